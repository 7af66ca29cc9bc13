package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/temp-alarm/internal/config"
	"github.com/sweeney/temp-alarm/internal/control"
	"github.com/sweeney/temp-alarm/internal/debounce"
	"github.com/sweeney/temp-alarm/internal/diag"
	"github.com/sweeney/temp-alarm/internal/gpio"
	"github.com/sweeney/temp-alarm/internal/logic"
	"github.com/sweeney/temp-alarm/internal/mqtt"
	"github.com/sweeney/temp-alarm/internal/status"
	"github.com/sweeney/temp-alarm/internal/web"
)

// signalCause is the cancellation cause recorded when a signal stops the daemon.
type signalCause struct {
	name string
}

func (s signalCause) Error() string { return "received " + s.name }

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// shutdownReason names what stopped ctx.
func shutdownReason(ctx context.Context) string {
	var sc signalCause
	if errors.As(context.Cause(ctx), &sc) {
		return sc.name
	}
	return "STOPPED"
}

// daemon wires the control loop to its diagnostic consumers.
type daemon struct {
	cfg       *config.Config
	hw        control.Hardware
	tracker   *status.Tracker
	publisher mqtt.Publisher        // nil when MQTT is disabled
	conn      mqtt.ConnectionStatus // nil when MQTT is disabled
	now       func() time.Time
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		CadenceMs:   logic.CadencePeriod.Milliseconds(),
		SettleMs:    debounce.SettleInterval.Milliseconds(),
		LockoutMs:   debounce.LockoutInterval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		I2CDevice:   cfg.I2CDevice,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
	}
}

// run blocks until ctx is done. The control loop stops between iterations,
// then queued diagnostics are drained and SHUTDOWN is published.
func (d *daemon) run(ctx context.Context) error {
	queue := diag.NewQueue(d.cfg.QueueSize)

	handlers := []diag.Handler{diag.NewLogHandler(), d.tracker}
	if d.publisher != nil {
		handlers = append(handlers, mqtt.Handler(d.publisher))
	}

	drainCtx, stopDrain := context.WithCancel(context.Background())
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		queue.Run(drainCtx, handlers...)
	}()

	d.publishSystem("STARTUP", "")

	var wg sync.WaitGroup
	auxCtx, stopAux := context.WithCancel(ctx)
	defer stopAux()

	if d.cfg.Heartbeat > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.heartbeat(auxCtx, queue)
		}()
	}

	var srv *web.Server
	if d.cfg.HTTP != "" {
		srv = web.New(d.cfg.HTTP, d.tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("http server")
			}
		}()
		logrus.Infof("http status server listening on %s", d.cfg.HTTP)
	}

	logrus.Infof("started: cadence=%v settle=%v lockout=%v broker=%q heartbeat=%v",
		logic.CadencePeriod, debounce.SettleInterval, debounce.LockoutInterval, d.cfg.Broker, d.cfg.Heartbeat)

	loop := control.New(control.DefaultConfig(), d.hw, queue)
	loopErr := loop.Run(ctx)

	reason := shutdownReason(ctx)
	logrus.Infof("shutting down (%s)", reason)

	stopAux()
	wg.Wait()

	stopDrain()
	<-drained
	if n := queue.Dropped(); n > 0 {
		logrus.Warnf("%d diagnostics were dropped", n)
	}
	d.refresh(queue)
	d.publishSystem("SHUTDOWN", reason)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("http shutdown")
		}
	}
	return loopErr
}

func (d *daemon) heartbeat(ctx context.Context, queue *diag.Queue) {
	ticker := time.NewTicker(d.cfg.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.refresh(queue)
			snap := d.tracker.Snapshot()
			logrus.WithFields(logrus.Fields{
				"uptime":  snap.Uptime().Truncate(time.Second),
				"samples": snap.Counts.Samples,
				"alarm":   snap.Alarm,
				"dropped": snap.Dropped,
			}).Info("heartbeat")
			d.publishSystem("HEARTBEAT", "")
		}
	}
}

// refresh copies state the tracker cannot observe through diagnostics.
func (d *daemon) refresh(queue *diag.Queue) {
	d.tracker.SetDropped(queue.Dropped())
	if d.conn != nil {
		d.tracker.SetMQTTConnected(d.conn.IsConnected())
	}
}

func (d *daemon) publishSystem(event, reason string) {
	if d.publisher == nil {
		return
	}
	snap := d.tracker.Snapshot()
	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		logrus.WithError(err).Warnf("failed to publish %s event", event)
		return
	}
	logrus.Debugf("published %s event", event)
}

// printState reads the sensor and both buttons once.
func printState(w io.Writer, s control.Sampler, down, up gpio.Input) error {
	sample, err := s.Sample()
	switch {
	case err != nil:
		fmt.Fprintf(w, "Temperature: error: %v\n", err)
	case !sample.InRange:
		fmt.Fprintf(w, "Temperature: %s °C (out of range)\n", diag.Celsius(sample.Celsius))
	default:
		fmt.Fprintf(w, "Temperature: %s °C\n", diag.Celsius(sample.Celsius))
	}
	fmt.Fprintf(w, "Down: %s, Up: %s\n", buttonString(down.IsSet()), buttonString(up.IsSet()))
	return err
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
