// Package sensor samples the temperature sensor and validates readings
// against the sensor's datasheet range.
package sensor

import (
	"errors"
	"fmt"

	"github.com/sweeney/temp-alarm/internal/logic"
)

// ErrCommunication wraps any bus-level failure while reading the sensor.
// It is transient: the next cadence tick simply reads again.
var ErrCommunication = errors.New("sensor communication failure")

// Thermometer reads a temperature in °C.
// *mcp9808.Device satisfies it.
type Thermometer interface {
	ReadTemperature() (float64, error)
}

// Sample is one reading.
type Sample struct {
	Celsius float64
	// InRange is false when the sensor reported a value outside
	// [logic.SensorMinC, logic.SensorMaxC] without a bus error.
	InRange bool
}

// Sampler reads the thermometer once per call.
type Sampler struct {
	t Thermometer
}

// NewSampler creates a Sampler over t.
func NewSampler(t Thermometer) *Sampler {
	return &Sampler{t: t}
}

// Sample reads the sensor. A bus error is returned wrapped in
// ErrCommunication and is not retried. Out-of-range readings are returned
// normally with InRange false.
func (s *Sampler) Sample() (Sample, error) {
	c, err := s.t.ReadTemperature()
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	return Sample{Celsius: c, InRange: logic.InSensorRange(c)}, nil
}
