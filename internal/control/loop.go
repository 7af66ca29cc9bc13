// Package control runs the alarm's single control loop: sample the sensor on
// the cadence, drive the indicator, service the buttons, warn about the
// threshold.
package control

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sweeney/temp-alarm/internal/clock"
	"github.com/sweeney/temp-alarm/internal/debounce"
	"github.com/sweeney/temp-alarm/internal/diag"
	"github.com/sweeney/temp-alarm/internal/gpio"
	"github.com/sweeney/temp-alarm/internal/logic"
	"github.com/sweeney/temp-alarm/internal/sensor"
)

// GuardDelay is slept after every sample tick so the same millisecond
// cannot satisfy the cadence gate twice.
const GuardDelay = time.Millisecond

// Sampler takes one temperature reading.
type Sampler interface {
	Sample() (sensor.Sample, error)
}

// Hardware is everything the loop touches. It is owned by the loop for its
// whole lifetime.
type Hardware struct {
	Clock   clock.Clock
	Sampler Sampler
	Down    gpio.Input
	Up      gpio.Input
	LED     gpio.Output
	High    gpio.Output
}

// Config holds the loop timing.
type Config struct {
	Cadence    time.Duration
	Guard      time.Duration
	Settle     time.Duration
	Lockout    time.Duration
	ThresholdC float64
}

// DefaultConfig returns the device's fixed timing and default threshold.
func DefaultConfig() Config {
	return Config{
		Cadence:    logic.CadencePeriod,
		Guard:      GuardDelay,
		Settle:     debounce.SettleInterval,
		Lockout:    debounce.LockoutInterval,
		ThresholdC: logic.DefaultThresholdC,
	}
}

// Loop is the control task. Not safe for concurrent use: exactly one
// goroutine runs it.
type Loop struct {
	hw   Hardware
	sink diag.Sink

	cadence   *logic.Cadence
	guard     time.Duration
	down      *debounce.Debouncer
	up        *debounce.Debouncer
	threshold logic.Threshold
}

// New creates a Loop. A zero Guard disables the guard delay.
func New(cfg Config, hw Hardware, sink diag.Sink) *Loop {
	return &Loop{
		hw:        hw,
		sink:      sink,
		cadence:   logic.NewCadence(cfg.Cadence),
		guard:     cfg.Guard,
		down:      debounce.New(hw.Clock, cfg.Settle, cfg.Lockout),
		up:        debounce.New(hw.Clock, cfg.Settle, cfg.Lockout),
		threshold: logic.NewThreshold(cfg.ThresholdC),
	}
}

// ThresholdC returns the current alarm threshold.
func (l *Loop) ThresholdC() float64 {
	return l.threshold.Celsius()
}

// Run drives the auxiliary output high and then runs Step until ctx is done.
// Cancellation is only noticed between iterations; a debounce or guard delay
// in progress always completes. The indicator is cleared on return.
func (l *Loop) Run(ctx context.Context) error {
	l.hw.High.Set()
	defer l.hw.LED.Clear()

	l.emit(diag.LevelInfo, diag.KindStartup,
		fmt.Sprintf("Started with threshold %s °C.", diag.Celsius(l.threshold.Celsius())))

	for ctx.Err() == nil {
		l.Step()
		// Busy poll. Yield so the diagnostic drain still runs.
		runtime.Gosched()
	}
	return nil
}

// Step runs one loop iteration: sample on a cadence tick, then the down
// button, then the up button, then the threshold range check.
func (l *Loop) Step() {
	l.sampleIfDue()

	changed := false
	if l.hw.Down.IsSet() {
		l.down.Wait(l.hw.Down.IsSet)
		t := l.threshold.Lower()
		changed = true
		l.emit(diag.LevelInfo, diag.KindThresholdChanged,
			fmt.Sprintf("Decreased alarm threshold to %s °C.", diag.Celsius(t)))
	}
	if l.hw.Up.IsSet() {
		l.up.Wait(l.hw.Up.IsSet)
		t := l.threshold.Raise()
		changed = true
		l.emit(diag.LevelInfo, diag.KindThresholdChanged,
			fmt.Sprintf("Increased alarm threshold to %s °C.", diag.Celsius(t)))
	}

	if changed && !l.threshold.InRange() {
		l.emit(diag.LevelWarn, diag.KindThresholdOutOfRange,
			fmt.Sprintf("Threshold is out of range %s °C to %s °C.",
				diag.Celsius(logic.SensorMinC), diag.Celsius(logic.SensorMaxC)))
	}
}

func (l *Loop) sampleIfDue() {
	if !l.cadence.Due(l.hw.Clock.Now()) {
		return
	}

	s, err := l.hw.Sampler.Sample()
	if err != nil {
		l.emit(diag.LevelError, diag.KindSensorError, fmt.Sprintf("Error: %v", err))
	} else {
		l.indicate(s)
	}

	if l.guard > 0 {
		l.hw.Clock.Sleep(l.guard)
	}
}

// indicate drives the LED from s and reports it. Out-of-range readings are
// still compared against the threshold.
func (l *Loop) indicate(s sensor.Sample) {
	th := l.threshold.Celsius()
	alarm := logic.AlarmActive(s.Celsius, th)
	if alarm {
		l.hw.LED.Set()
	} else {
		l.hw.LED.Clear()
	}

	l.sink.Emit(diag.Event{
		At:         l.hw.Clock.Now(),
		Level:      diag.LevelInfo,
		Kind:       diag.KindSample,
		Message:    fmt.Sprintf("Temperature: %s °C, Threshold: %s °C", diag.Celsius(s.Celsius), diag.Celsius(th)),
		Celsius:    s.Celsius,
		ThresholdC: th,
		Alarm:      alarm,
	})
	if !s.InRange {
		l.sink.Emit(diag.Event{
			At:         l.hw.Clock.Now(),
			Level:      diag.LevelError,
			Kind:       diag.KindSampleOutOfRange,
			Message:    "Sensor reading is out of range.",
			Celsius:    s.Celsius,
			ThresholdC: th,
			Alarm:      alarm,
		})
	}
}

func (l *Loop) emit(level diag.Level, kind diag.Kind, msg string) {
	l.sink.Emit(diag.Event{
		At:         l.hw.Clock.Now(),
		Level:      level,
		Kind:       kind,
		Message:    msg,
		ThresholdC: l.threshold.Celsius(),
	})
}
