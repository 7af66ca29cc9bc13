package sensor

// Reading is a scripted thermometer result.
type Reading struct {
	Celsius float64
	Err     error
}

// FakeThermometer is a test double that returns scripted readings.
type FakeThermometer struct {
	// Readings are consumed one per call. When exhausted, the last one repeats.
	Readings []Reading

	index int

	// Calls counts ReadTemperature calls.
	Calls int
}

// NewFakeThermometer creates a FakeThermometer that always reads c.
func NewFakeThermometer(c float64) *FakeThermometer {
	return &FakeThermometer{Readings: []Reading{{Celsius: c}}}
}

// ReadTemperature returns the next scripted reading.
func (f *FakeThermometer) ReadTemperature() (float64, error) {
	f.Calls++
	if len(f.Readings) == 0 {
		return 0, nil
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r.Celsius, r.Err
}

// Script replaces the remaining readings.
func (f *FakeThermometer) Script(readings ...Reading) {
	f.Readings = readings
	f.index = 0
}
