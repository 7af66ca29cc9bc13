// Package config loads the daemon configuration from struct tag defaults,
// TEMPALARM_* environment variables and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/koding/multiconfig"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/temp-alarm/internal/gpio"
)

// EnvPrefix prefixes every environment variable, e.g. TEMPALARM_BROKER.
const EnvPrefix = "TEMPALARM"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the daemon configuration. Flag names are the lower-cased field
// names (-broker, -pindown, -i2cdevice).
type Config struct {
	GPIOChip string `default:"gpiochip0"`
	PinDown  int    `default:"17"`
	PinUp    int    `default:"27"`
	PinHigh  int    `default:"22"`
	PinLED   int    `default:"23"`

	I2CDevice     string `default:"/dev/i2c-1"`
	SensorAddress int    `default:"24"`

	// Broker is the MQTT broker URL. Empty disables publishing.
	Broker string `default:"tcp://localhost:1883"`
	// EmbeddedBroker is a listen address for an in-process broker. Empty
	// disables it.
	EmbeddedBroker string
	// HTTP is the status page listen address. Empty disables it.
	HTTP string `default:":8080"`
	// Heartbeat is the status publish interval. Zero disables it.
	Heartbeat time.Duration `default:"15m"`

	QueueSize int    `default:"256"`
	LogLevel  string `default:"info"`

	// PrintState reads the sensor and buttons once, prints them and exits.
	PrintState bool
}

// Load builds a Config from defaults, the environment and args (without the
// program name).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	loader := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{Prefix: EnvPrefix},
		&multiconfig.FlagLoader{Args: args},
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the loaders cannot.
func (c *Config) Validate() error {
	pins := map[string]int{"pindown": c.PinDown, "pinup": c.PinUp, "pinhigh": c.PinHigh, "pinled": c.PinLED}
	seen := make(map[int]string, len(pins))
	for _, name := range []string{"pindown", "pinup", "pinhigh", "pinled"} {
		pin := pins[name]
		if pin < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, name)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%w: %s and %s share line %d", ErrInvalid, other, name, pin)
		}
		seen[pin] = name
	}
	// 7-bit addresses outside the reserved blocks.
	if c.SensorAddress < 0x08 || c.SensorAddress > 0x77 {
		return fmt.Errorf("%w: sensoraddress %#x out of range", ErrInvalid, c.SensorAddress)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queuesize must be positive", ErrInvalid)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Pins returns the GPIO line assignment.
func (c *Config) Pins() gpio.Pins {
	return gpio.Pins{Down: c.PinDown, Up: c.PinUp, High: c.PinHigh, LED: c.PinLED}
}
