package logic

// Threshold is the adjustable alarm threshold in °C.
// It is never clamped; values outside the sensor range are legal but advisory.
type Threshold struct {
	celsius float64
	changes int
}

// NewThreshold creates a threshold at the given value.
func NewThreshold(celsius float64) Threshold {
	return Threshold{celsius: celsius}
}

// Celsius returns the current threshold.
func (t Threshold) Celsius() float64 {
	return t.celsius
}

// Adjust moves the threshold by delta and returns the new value.
func (t *Threshold) Adjust(delta float64) float64 {
	t.celsius += delta
	t.changes++
	return t.celsius
}

// Raise increases the threshold by one Step.
func (t *Threshold) Raise() float64 {
	return t.Adjust(Step)
}

// Lower decreases the threshold by one Step.
func (t *Threshold) Lower() float64 {
	return t.Adjust(-Step)
}

// InRange reports whether the threshold lies within the sensor range.
// An out-of-range threshold above SensorMaxC can never trigger the alarm;
// one below SensorMinC always does.
func (t Threshold) InRange() bool {
	return InSensorRange(t.celsius)
}

// Changes returns how many adjustments have been applied.
func (t Threshold) Changes() int {
	return t.changes
}
