// Package i2c provides an I2C bus on the Linux i2c-dev interface that
// satisfies tinygo.org/x/drivers.I2C.
package i2c

import (
	"errors"

	"tinygo.org/x/drivers"
)

// DefaultDevice is the Raspberry Pi's user I2C bus.
const DefaultDevice = "/dev/i2c-1"

// ErrUnsupported is returned where i2c-dev is unavailable.
var ErrUnsupported = errors.New("i2c: not supported on this platform (requires Linux)")

var _ drivers.I2C = (*Bus)(nil)
