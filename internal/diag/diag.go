// Package diag carries leveled diagnostics from the control loop to the
// outside world.
//
// The control loop is the only producer. It hands events to a Sink, which must
// never block it. A Queue is the production Sink: a bounded FIFO drained by
// its own goroutine, which is the only place logging, MQTT publishing and
// status tracking happen. The two goroutines share nothing but the queue.
package diag

import (
	"strconv"
	"time"
)

// Level is the diagnostic severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Kind identifies what happened.
type Kind string

const (
	KindStartup             Kind = "STARTUP"
	KindSample              Kind = "SAMPLE"
	KindSampleOutOfRange    Kind = "SAMPLE_OUT_OF_RANGE"
	KindSensorError         Kind = "SENSOR_ERROR"
	KindThresholdChanged    Kind = "THRESHOLD_CHANGED"
	KindThresholdOutOfRange Kind = "THRESHOLD_OUT_OF_RANGE"
)

// Event is one diagnostic.
type Event struct {
	// Time is the wall-clock time the event was queued.
	Time time.Time
	// At is the control clock reading (time since its epoch).
	At      time.Duration
	Level   Level
	Kind    Kind
	Message string

	// Celsius is the reading for sample kinds.
	Celsius float64
	// ThresholdC is the threshold in effect when the event was emitted.
	ThresholdC float64
	// Alarm is the indicator level after a sample.
	Alarm bool
}

// Sink accepts diagnostics. Emit must not block.
type Sink interface {
	Emit(e Event)
}

// Handler consumes diagnostics on the drain goroutine.
type Handler interface {
	Handle(e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e Event)

// Handle calls f(e).
func (f HandlerFunc) Handle(e Event) { f(e) }

// Celsius formats a temperature with the shortest exact representation:
// 31, 22.0625, -45.
func Celsius(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
