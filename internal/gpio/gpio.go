// Package gpio provides the button inputs and indicator outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// Input is a momentary switch wired between the pin and 3.3V with a pull-down.
type Input interface {
	// IsSet reports whether the pin currently reads high (button pressed).
	IsSet() bool
}

// Output is a digital output line.
type Output interface {
	// Set drives the line high.
	Set()
	// Clear drives the line low.
	Clear()
}

// Pins holds line offsets (BCM numbering).
type Pins struct {
	Down int // threshold down button
	Up   int // threshold up button
	High int // constant-high auxiliary output feeding the buttons
	LED  int // alarm indicator
}

// Default pin assignment.
const (
	DefaultPinDown = 17
	DefaultPinUp   = 27
	DefaultPinHigh = 22
	DefaultPinLED  = 23
)

// DefaultPins returns the default pin assignment.
func DefaultPins() Pins {
	return Pins{
		Down: DefaultPinDown,
		Up:   DefaultPinUp,
		High: DefaultPinHigh,
		LED:  DefaultPinLED,
	}
}

// ErrUnsupported is returned where the GPIO character device is unavailable.
var ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")
