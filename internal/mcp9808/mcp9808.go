// Package mcp9808 provides a driver for the Microchip MCP9808 digital
// temperature sensor.
//
//	d := mcp9808.New(bus)
//	if err := d.Configure(mcp9808.Config{}); err != nil { ... }
//	c, err := d.ReadTemperature()
//
// NOTE: I2C.Tx MUST perform a write followed by a read when both w and r are
// provided. The sensor keeps its register pointer between transactions, so a
// stop between the two phases is acceptable.
package mcp9808

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// Address is the default I2C address (A0..A2 tied low).
const Address = 0x18

// Registers.
const (
	regConfig       = 0x01
	regAmbient      = 0x05
	regManufacturer = 0x06
	regDevice       = 0x07
	regResolution   = 0x08
)

// Identity values.
const (
	manufacturerID = 0x0054
	deviceID       = 0x04
)

// Resolution selects the conversion resolution. The zero value is the
// finest setting.
type Resolution uint8

const (
	ResolutionSixteenth Resolution = iota // 0.0625 °C, 250 ms
	ResolutionEighth                      // 0.125 °C, 130 ms
	ResolutionQuarter                     // 0.25 °C, 65 ms
	ResolutionHalf                        // 0.5 °C, 30 ms
)

// bits returns the resolution register encoding.
func (r Resolution) bits() byte {
	return 0x03 - byte(r)&0x03
}

// Errors returned by the driver.
var (
	ErrWrongDevice = errors.New("mcp9808: unexpected manufacturer or device id")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x18 if zero.
	Address uint16
	// Resolution defaults to ResolutionSixteenth.
	Resolution Resolution
	// SkipIdentity disables the manufacturer/device id check.
	SkipIdentity bool
}

// Device wraps an I2C connection to an MCP9808.
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf [3]byte
}

// New creates a new MCP9808 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure checks the device identity, wakes it from shutdown and sets the
// conversion resolution.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}

	if !cfg.SkipIdentity {
		ok, err := d.Connected()
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongDevice
		}
	}

	// Continuous conversion, alerts disabled.
	if err := d.writeReg16(regConfig, 0x0000); err != nil {
		return fmt.Errorf("mcp9808: write config: %w", err)
	}
	if err := d.bus.Tx(d.Address, []byte{regResolution, cfg.Resolution.bits()}, nil); err != nil {
		return fmt.Errorf("mcp9808: write resolution: %w", err)
	}
	return nil
}

// Connected reports whether the device answers with the MCP9808 identity.
func (d *Device) Connected() (bool, error) {
	m, err := d.readReg16(regManufacturer)
	if err != nil {
		return false, fmt.Errorf("mcp9808: read manufacturer id: %w", err)
	}
	id, err := d.readReg16(regDevice)
	if err != nil {
		return false, fmt.Errorf("mcp9808: read device id: %w", err)
	}
	return m == manufacturerID && byte(id>>8) == deviceID, nil
}

// ReadTemperature returns the ambient temperature in °C at 0.0625 °C
// resolution. Alert flag bits are ignored.
func (d *Device) ReadTemperature() (float64, error) {
	raw, err := d.readReg16(regAmbient)
	if err != nil {
		return 0, fmt.Errorf("mcp9808: read ambient: %w", err)
	}
	return Celsius(raw), nil
}

// Celsius converts an ambient temperature register value to °C.
// The low 13 bits are a two's complement value in 1/16 °C.
func Celsius(raw uint16) float64 {
	v := int32(raw & 0x1FFF)
	if v&0x1000 != 0 {
		v -= 0x2000
	}
	return float64(v) / 16
}

func (d *Device) readReg16(reg byte) (uint16, error) {
	d.buf[0] = reg
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:3]); err != nil {
		return 0, err
	}
	return uint16(d.buf[1])<<8 | uint16(d.buf[2]), nil
}

func (d *Device) writeReg16(reg byte, v uint16) error {
	return d.bus.Tx(d.Address, []byte{reg, byte(v >> 8), byte(v)}, nil)
}
