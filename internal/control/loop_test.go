package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/temp-alarm/internal/clock"
	"github.com/sweeney/temp-alarm/internal/diag"
	"github.com/sweeney/temp-alarm/internal/gpio"
	"github.com/sweeney/temp-alarm/internal/sensor"
)

const ms = time.Millisecond

type rig struct {
	clk   *clock.Fake
	therm *sensor.FakeThermometer
	down  *gpio.FakeInput
	up    *gpio.FakeInput
	led   *gpio.FakeOutput
	high  *gpio.FakeOutput
	rec   *diag.Recorder
	loop  *Loop
}

func newRig(t *testing.T, start time.Duration, celsius float64, cfg Config) *rig {
	t.Helper()
	clk := clock.NewFake(start)
	r := &rig{
		clk:   clk,
		therm: sensor.NewFakeThermometer(celsius),
		down:  gpio.NewFakeInput(clk),
		up:    gpio.NewFakeInput(clk),
		led:   gpio.NewFakeOutput(),
		high:  gpio.NewFakeOutput(),
		rec:   diag.NewRecorder(),
	}
	r.loop = New(cfg, Hardware{
		Clock:   clk,
		Sampler: sensor.NewSampler(r.therm),
		Down:    r.down,
		Up:      r.up,
		LED:     r.led,
		High:    r.high,
	}, r.rec)
	return r
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 500*ms, cfg.Cadence)
	assert.Equal(t, 1*ms, cfg.Guard)
	assert.Equal(t, 20*ms, cfg.Settle)
	assert.Equal(t, 30*ms, cfg.Lockout)
	assert.Equal(t, 30.0, cfg.ThresholdC)
}

func TestScenarioAboveThresholdLightsIndicator(t *testing.T) {
	r := newRig(t, 0, 31.0, DefaultConfig())

	r.loop.Step()

	assert.True(t, r.led.High)
	require.Len(t, r.rec.Events, 1)
	e := r.rec.Events[0]
	assert.Equal(t, diag.LevelInfo, e.Level)
	assert.Equal(t, diag.KindSample, e.Kind)
	assert.Equal(t, "Temperature: 31 °C, Threshold: 30 °C", e.Message)
	assert.True(t, e.Alarm)
	assert.Equal(t, []time.Duration{GuardDelay}, r.clk.Sleeps)
}

func TestScenarioEqualDoesNotTrigger(t *testing.T) {
	r := newRig(t, 0, 30.0, DefaultConfig())

	r.loop.Step()

	assert.False(t, r.led.High)
	assert.Equal(t, []bool{false}, r.led.History)
	assert.Equal(t, []string{"Temperature: 30 °C, Threshold: 30 °C"}, r.rec.Messages())
}

func TestScenarioOutOfRangeReadingStillEvaluated(t *testing.T) {
	r := newRig(t, 500*ms, 130, DefaultConfig())

	r.loop.Step()

	assert.True(t, r.led.High, "130 > 30 still lights the indicator")
	assert.Equal(t, []string{
		"Temperature: 130 °C, Threshold: 30 °C",
		"Sensor reading is out of range.",
	}, r.rec.Messages())
	errs := r.rec.OfLevel(diag.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.KindSampleOutOfRange, errs[0].Kind)
}

func TestSensorFailureLoggedAndRetriedNextTick(t *testing.T) {
	r := newRig(t, 0, 0, DefaultConfig())
	r.therm.Script(sensor.Reading{Err: errors.New("i2c: remote I/O error")}, sensor.Reading{Celsius: 25})
	r.led.Set()

	r.loop.Step()

	require.Len(t, r.rec.Events, 1)
	e := r.rec.Events[0]
	assert.Equal(t, diag.LevelError, e.Level)
	assert.Equal(t, diag.KindSensorError, e.Kind)
	assert.Equal(t, "Error: sensor communication failure: i2c: remote I/O error", e.Message)
	assert.True(t, r.led.High, "indicator untouched on failure")
	assert.Equal(t, 1, r.therm.Calls)

	// No retry until the next tick.
	for r.clk.Now() < 499*ms {
		r.clk.Advance(ms)
		r.loop.Step()
	}
	assert.Equal(t, 1, r.therm.Calls)

	r.clk.Advance(ms)
	r.loop.Step()
	assert.Equal(t, 2, r.therm.Calls)
	assert.False(t, r.led.High)
}

func TestNoSampleOffCadence(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())

	for i := 0; i < 498; i++ {
		r.loop.Step()
		r.clk.Advance(ms)
	}

	assert.Equal(t, 0, r.therm.Calls)
	assert.Empty(t, r.rec.Events)
	assert.Empty(t, r.clk.Sleeps, "idle iterations never sleep")
}

func TestSameMillisecondSamplesOnceWithoutGuard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Guard = 0
	r := newRig(t, 1500*ms, 25, cfg)

	for i := 0; i < 5; i++ {
		r.loop.Step()
	}

	assert.Equal(t, 1, r.therm.Calls)
	assert.Len(t, r.rec.OfKind(diag.KindSample), 1)
	assert.Empty(t, r.clk.Sleeps)
}

func TestOneSamplePerWindowUnderFastClock(t *testing.T) {
	for _, guard := range []time.Duration{GuardDelay, 0} {
		t.Run(guard.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Guard = guard
			r := newRig(t, 0, 25, cfg)
			r.clk.Tick = 100 * time.Microsecond

			for r.clk.Now() < 9750*ms {
				r.loop.Step()
			}

			samples := r.rec.OfKind(diag.KindSample)
			require.Len(t, samples, 20)
			for i, e := range samples {
				assert.Equal(t, time.Duration(i)*500*ms, e.At.Truncate(500*ms), "sample %d", i)
			}
		})
	}
}

func TestScenarioBouncingPressDecrementsOnce(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())
	r.down.Script(
		gpio.Edge{At: 1 * ms, High: true},
		gpio.Edge{At: 5 * ms, High: false},
		gpio.Edge{At: 8 * ms, High: true},
		gpio.Edge{At: 25 * ms, High: false},
		gpio.Edge{At: 27 * ms, High: true},
		gpio.Edge{At: 45 * ms, High: false},
		gpio.Edge{At: 47 * ms, High: true},
		gpio.Edge{At: 70 * ms, High: false},
	)

	for i := 0; i < 100; i++ {
		r.loop.Step()
		r.clk.Advance(ms)
	}

	assert.Equal(t, 29.0, r.loop.ThresholdC())
	assert.Equal(t, []string{"Decreased alarm threshold to 29 °C."}, r.rec.Messages())
	assert.Equal(t, 1, r.loop.down.Presses())
}

func TestConsecutivePressesStepByOne(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())

	for i := 1; i <= 5; i++ {
		r.up.Press(r.clk.Now(), 10*ms)
		r.loop.Step()
		assert.Equal(t, 30.0+float64(i), r.loop.ThresholdC())
		r.clk.Advance(ms)
	}
	for i := 1; i <= 3; i++ {
		r.down.Press(r.clk.Now(), 10*ms)
		r.loop.Step()
		assert.Equal(t, 35.0-float64(i), r.loop.ThresholdC())
		r.clk.Advance(ms)
	}

	changes := r.rec.OfKind(diag.KindThresholdChanged)
	require.Len(t, changes, 8)
	assert.Equal(t, "Increased alarm threshold to 31 °C.", changes[0].Message)
	assert.Equal(t, "Increased alarm threshold to 35 °C.", changes[4].Message)
	assert.Equal(t, "Decreased alarm threshold to 32 °C.", changes[7].Message)
}

func TestScenarioThresholdBelowRangeWarns(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())

	for r.loop.ThresholdC() > -45 {
		r.down.Press(r.clk.Now(), 10*ms)
		r.loop.Step()
		r.clk.Advance(ms)
	}

	assert.Equal(t, -45.0, r.loop.ThresholdC())
	warns := r.rec.OfLevel(diag.LevelWarn)
	require.Len(t, warns, 5, "one warning for each of -41..-45")
	for _, w := range warns {
		assert.Equal(t, diag.KindThresholdOutOfRange, w.Kind)
		assert.Equal(t, "Threshold is out of range -40 °C to 125 °C.", w.Message)
	}
	assert.Equal(t, -45.0, warns[4].ThresholdC)

	// The threshold is still in effect: every reading now alarms.
	r.clk.Set(10 * time.Second)
	r.loop.Step()
	assert.True(t, r.led.High)
}

func TestThresholdAboveRangeNeverAlarms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdC = 125
	r := newRig(t, 1*ms, 124, cfg)
	r.therm.Script(sensor.Reading{Celsius: 125.5})

	r.up.Press(1*ms, 5*ms)
	r.loop.Step()
	assert.Equal(t, 126.0, r.loop.ThresholdC())
	assert.Len(t, r.rec.OfKind(diag.KindThresholdOutOfRange), 1)

	r.clk.Set(500 * ms)
	r.loop.Step()
	assert.False(t, r.led.High)
}

func TestNoWarningWithoutChange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdC = -50
	r := newRig(t, 1*ms, 25, cfg)

	for i := 0; i < 10; i++ {
		r.loop.Step()
		r.clk.Advance(ms)
	}
	assert.Empty(t, r.rec.OfLevel(diag.LevelWarn))
}

func TestScenarioBothButtonsSequential(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())
	r.down.Press(0, 30*ms)
	r.up.Press(0, 200*ms)

	r.loop.Step()

	assert.Equal(t, 30.0, r.loop.ThresholdC())
	assert.Equal(t, []string{
		"Decreased alarm threshold to 29 °C.",
		"Increased alarm threshold to 30 °C.",
	}, r.rec.Messages())
	// Down resolved at 71ms; up read released at 211ms, then locked out.
	assert.Equal(t, 241*ms, r.clk.Now())
}

func TestSecondButtonServicedNextIteration(t *testing.T) {
	r := newRig(t, 1*ms, 25, DefaultConfig())
	r.down.Press(0, 30*ms)
	r.up.Press(100*ms, 50*ms)

	r.loop.Step()
	assert.Equal(t, 29.0, r.loop.ThresholdC(), "up not yet pressed when checked")

	for r.loop.ThresholdC() != 30 {
		r.clk.Advance(ms)
		r.loop.Step()
		require.Less(t, r.clk.Now(), time.Second)
	}
	assert.Len(t, r.rec.OfKind(diag.KindThresholdChanged), 2)
}

func TestIterationOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdC = -40
	r := newRig(t, 0, 25, cfg)
	r.down.Press(0, 10*ms)

	r.loop.Step()

	assert.Equal(t, []diag.Kind{
		diag.KindSample,
		diag.KindThresholdChanged,
		diag.KindThresholdOutOfRange,
	}, kinds(r.rec.Events))
	assert.Equal(t, "Temperature: 25 °C, Threshold: -40 °C", r.rec.Events[0].Message)
	assert.Equal(t, -41.0, r.rec.Events[2].ThresholdC)
}

func TestTickMissedWhileButtonHeld(t *testing.T) {
	r := newRig(t, 400*ms, 25, DefaultConfig())
	r.down.Press(400*ms, 300*ms)

	r.loop.Step()
	assert.Equal(t, 0, r.therm.Calls, "no sample while the debounce holds the loop")
	assert.Greater(t, r.clk.Now(), 700*ms)
}

func TestRunSetsHighAndStopsOnCancel(t *testing.T) {
	r := newRig(t, 0, 31, DefaultConfig())
	r.clk.Tick = 100 * time.Microsecond

	ctx, cancel := context.WithCancel(context.Background())
	stopAfter := 3
	r.loop.hw.Sampler = samplerFunc(func() (sensor.Sample, error) {
		stopAfter--
		if stopAfter == 0 {
			cancel()
		}
		return sensor.Sample{Celsius: 31, InRange: true}, nil
	})

	require.NoError(t, r.loop.Run(ctx))

	assert.Equal(t, []bool{true}, r.high.History, "aux output set exactly once")
	require.NotEmpty(t, r.rec.Events)
	assert.Equal(t, diag.KindStartup, r.rec.Events[0].Kind)
	assert.Equal(t, "Started with threshold 30 °C.", r.rec.Events[0].Message)
	assert.Len(t, r.rec.OfKind(diag.KindSample), 3)
	assert.False(t, r.led.High, "indicator cleared on exit")
}

type samplerFunc func() (sensor.Sample, error)

func (f samplerFunc) Sample() (sensor.Sample, error) { return f() }

func kinds(events []diag.Event) []diag.Kind {
	out := make([]diag.Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}
