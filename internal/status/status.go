// Package status provides a thread-safe status tracker for the temp-alarm daemon.
// It is fed from the diagnostic drain goroutine and read by HTTP handlers and
// MQTT status events; the control loop never touches it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/temp-alarm/internal/diag"
	"github.com/sweeney/temp-alarm/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	CadenceMs   int64
	SettleMs    int64
	LockoutMs   int64
	HeartbeatMs int64
	I2CDevice   string
	Broker      string
	HTTPAddr    string
}

// Counts tracks diagnostics since startup.
type Counts struct {
	Samples           int
	SensorErrors      int
	OutOfRange        int
	ThresholdChanges  int
	ThresholdWarnings int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Started         bool
	HaveReading     bool
	TemperatureC    float64
	ReadingInRange  bool
	ThresholdC      float64
	Alarm           bool
	LastSensorError string
	Counts          Counts
	Dropped         uint64
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// ThresholdInRange reports whether the threshold is inside the sensor range.
func (s Snapshot) ThresholdInRange() bool {
	return logic.InSensorRange(s.ThresholdC)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, initial threshold and config.
func NewTracker(startTime time.Time, thresholdC float64, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			ThresholdC: thresholdC,
			Config:     cfg,
		},
	}
}

// Handle folds a diagnostic event into the tracked state.
func (t *Tracker) Handle(e diag.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.ThresholdC = e.ThresholdC
	switch e.Kind {
	case diag.KindStartup:
		t.snap.Started = true
	case diag.KindSample:
		t.snap.HaveReading = true
		t.snap.TemperatureC = e.Celsius
		t.snap.ReadingInRange = true
		t.snap.Alarm = e.Alarm
		t.snap.Counts.Samples++
	case diag.KindSampleOutOfRange:
		t.snap.ReadingInRange = false
		t.snap.Counts.OutOfRange++
	case diag.KindSensorError:
		t.snap.LastSensorError = e.Message
		t.snap.Counts.SensorErrors++
	case diag.KindThresholdChanged:
		t.snap.Counts.ThresholdChanges++
	case diag.KindThresholdOutOfRange:
		t.snap.Counts.ThresholdWarnings++
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetDropped records how many diagnostics the queue has discarded.
func (t *Tracker) SetDropped(n uint64) {
	t.mu.Lock()
	t.snap.Dropped = n
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
