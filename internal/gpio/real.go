//go:build linux

package gpio

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// RealBoard owns the device's GPIO lines on the Linux GPIO character device.
type RealBoard struct {
	chip *gpiocdev.Chip
	down *gpiocdev.Line
	up   *gpiocdev.Line
	high *gpiocdev.Line
	led  *gpiocdev.Line
}

// NewRealBoard requests the button inputs with pull-down, the LED output
// (initially off) and the auxiliary output (initially low; the control loop
// sets it high when it starts).
func NewRealBoard(chipName string, pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("temp-alarm"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &RealBoard{chip: chip}

	if b.down, err = chip.RequestLine(pins.Down, gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		b.Close()
		return nil, fmt.Errorf("request down pin %d: %w", pins.Down, err)
	}
	if b.up, err = chip.RequestLine(pins.Up, gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		b.Close()
		return nil, fmt.Errorf("request up pin %d: %w", pins.Up, err)
	}
	if b.high, err = chip.RequestLine(pins.High, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request high pin %d: %w", pins.High, err)
	}
	if b.led, err = chip.RequestLine(pins.LED, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request led pin %d: %w", pins.LED, err)
	}

	return b, nil
}

// Down returns the threshold-down button.
func (b *RealBoard) Down() Input { return lineInput{line: b.down, name: "down"} }

// Up returns the threshold-up button.
func (b *RealBoard) Up() Input { return lineInput{line: b.up, name: "up"} }

// High returns the auxiliary output.
func (b *RealBoard) High() Output { return lineOutput{line: b.high, name: "high"} }

// LED returns the alarm indicator.
func (b *RealBoard) LED() Output { return lineOutput{line: b.led, name: "led"} }

// Close releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so nothing is left driven across a reboot.
func (b *RealBoard) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{{"down", b.down}, {"up", b.up}, {"high", b.high}, {"led", b.led}} {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type lineInput struct {
	line *gpiocdev.Line
	name string
}

// IsSet reads the line. A read error is logged and treated as released,
// so a flaky line can never start a debounce wait.
func (i lineInput) IsSet() bool {
	v, err := i.line.Value()
	if err != nil {
		logrus.WithError(err).Warnf("gpio: read %s pin", i.name)
		return false
	}
	return v == 1
}

type lineOutput struct {
	line *gpiocdev.Line
	name string
}

func (o lineOutput) Set()   { o.write(1) }
func (o lineOutput) Clear() { o.write(0) }

func (o lineOutput) write(v int) {
	if err := o.line.SetValue(v); err != nil {
		logrus.WithError(err).Warnf("gpio: write %s pin", o.name)
	}
}
