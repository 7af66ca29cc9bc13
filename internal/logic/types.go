// Package logic contains the pure decision rules of the temperature alarm.
// This package has NO external dependencies (no GPIO, I2C, MQTT, OS, or sleeping).
// Time is always injectable as a duration since the clock epoch.
package logic

import "time"

// MCP9808 operating range from the datasheet.
const (
	SensorMinC = -40.0 // °C
	SensorMaxC = 125.0 // °C
)

// DefaultThresholdC is the alarm threshold after every power-up.
const DefaultThresholdC = 30.0 // °C

// CadencePeriod is the sampling period. Ticks fall on multiples of it
// measured from the clock epoch.
const CadencePeriod = 500 * time.Millisecond

// Step is the threshold change per debounced button press.
const Step = 1.0 // °C

// InSensorRange reports whether t is within the sensor's operating range.
func InSensorRange(c float64) bool {
	return SensorMinC <= c && c <= SensorMaxC
}

// AlarmActive reports whether the indicator should be lit.
// Equal values do not trigger.
func AlarmActive(celsius, thresholdC float64) bool {
	return celsius > thresholdC
}
