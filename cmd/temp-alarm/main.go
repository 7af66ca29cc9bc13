// Command temp-alarm samples an MCP9808 every 500 ms and lights an LED while
// the temperature is above a threshold set with two push buttons.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/temp-alarm/internal/broker"
	"github.com/sweeney/temp-alarm/internal/clock"
	"github.com/sweeney/temp-alarm/internal/config"
	"github.com/sweeney/temp-alarm/internal/control"
	"github.com/sweeney/temp-alarm/internal/gpio"
	"github.com/sweeney/temp-alarm/internal/i2c"
	"github.com/sweeney/temp-alarm/internal/logic"
	"github.com/sweeney/temp-alarm/internal/mcp9808"
	"github.com/sweeney/temp-alarm/internal/mqtt"
	"github.com/sweeney/temp-alarm/internal/sensor"
	"github.com/sweeney/temp-alarm/internal/status"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	lvl, _ := cfg.Level()
	logrus.SetLevel(lvl)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		cancel(signalCause{name: signalName(s)})
	}()

	if err := run(ctx, cfg); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	board, err := gpio.NewRealBoard(cfg.GPIOChip, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			logrus.WithError(err).Warn("release gpio")
		}
	}()

	bus, err := i2c.Open(cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("init i2c: %w", err)
	}
	defer bus.Close()

	dev := mcp9808.New(bus)
	if err := dev.Configure(mcp9808.Config{Address: uint16(cfg.SensorAddress)}); err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	sampler := sensor.NewSampler(&dev)

	if cfg.PrintState {
		return printState(os.Stdout, sampler, board.Down(), board.Up())
	}

	tracker := status.NewTracker(time.Now(), logic.DefaultThresholdC, statusConfig(cfg))
	d := &daemon{
		cfg:     cfg,
		tracker: tracker,
		now:     time.Now,
		hw: control.Hardware{
			Clock:   clock.NewMonotonic(),
			Sampler: sampler,
			Down:    board.Down(),
			Up:      board.Up(),
			LED:     board.LED(),
			High:    board.High(),
		},
	}

	// The embedded broker outlives ctx so SHUTDOWN can still be delivered.
	var brokerWG sync.WaitGroup
	brokerCtx, stopBroker := context.WithCancel(context.Background())
	defer func() {
		stopBroker()
		brokerWG.Wait()
	}()
	if cfg.EmbeddedBroker != "" {
		if _, err := broker.Start(brokerCtx, &brokerWG, cfg.EmbeddedBroker); err != nil {
			return err
		}
	}

	if cfg.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(mqtt.Config{
			Broker:             cfg.Broker,
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		d.publisher = publisher
		d.conn = publisher
	}

	return d.run(ctx)
}
