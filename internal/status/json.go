package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Ready         bool          `json:"ready"`
	Reading       *ReadingJSON  `json:"reading,omitempty"`
	Threshold     ThresholdJSON `json:"threshold"`
	Alarm         bool          `json:"alarm"`
	SensorError   string        `json:"sensor_error,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"counts"`
	Config        ConfigJSON    `json:"config"`
}

// ReadingJSON is the last temperature reading.
type ReadingJSON struct {
	Celsius float64 `json:"celsius"`
	InRange bool    `json:"in_range"`
}

// ThresholdJSON is the alarm threshold.
type ThresholdJSON struct {
	Celsius float64 `json:"celsius"`
	InRange bool    `json:"in_range"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of diagnostic counts.
type CountsJSON struct {
	Samples           int    `json:"samples"`
	SensorErrors      int    `json:"sensor_errors"`
	OutOfRange        int    `json:"out_of_range"`
	ThresholdChanges  int    `json:"threshold_changes"`
	ThresholdWarnings int    `json:"threshold_warnings"`
	Dropped           uint64 `json:"dropped"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	CadenceMs   int64  `json:"cadence_ms"`
	SettleMs    int64  `json:"settle_ms"`
	LockoutMs   int64  `json:"lockout_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	I2CDevice   string `json:"i2c_device"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Started,
		Threshold:     ThresholdJSON{Celsius: snap.ThresholdC, InRange: snap.ThresholdInRange()},
		Alarm:         snap.Alarm,
		SensorError:   snap.LastSensorError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:           snap.Counts.Samples,
			SensorErrors:      snap.Counts.SensorErrors,
			OutOfRange:        snap.Counts.OutOfRange,
			ThresholdChanges:  snap.Counts.ThresholdChanges,
			ThresholdWarnings: snap.Counts.ThresholdWarnings,
			Dropped:           snap.Dropped,
		},
		Config: ConfigJSON{
			CadenceMs:   snap.Config.CadenceMs,
			SettleMs:    snap.Config.SettleMs,
			LockoutMs:   snap.Config.LockoutMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			I2CDevice:   snap.Config.I2CDevice,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.HaveReading {
		inner.Reading = &ReadingJSON{Celsius: snap.TemperatureC, InRange: snap.ReadingInRange}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
