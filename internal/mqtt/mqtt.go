// Package mqtt publishes diagnostics and lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/temp-alarm/internal/diag"
)

// TopicEvents is the MQTT topic for diagnostic events.
const TopicEvents = "sensors/temp-alarm/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/temp-alarm/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a diagnostic to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event diag.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a diagnostic.
type Payload struct {
	Diagnostic DiagnosticPayload `json:"diagnostic"`
}

// DiagnosticPayload contains the diagnostic details. Temperature and alarm
// are only present for sample kinds.
type DiagnosticPayload struct {
	Timestamp    string   `json:"timestamp"`
	Level        string   `json:"level"`
	Kind         string   `json:"kind"`
	Message      string   `json:"message"`
	ThresholdC   float64  `json:"threshold_c"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	Alarm        *bool    `json:"alarm,omitempty"`
}

// FormatPayload creates the JSON payload for a diagnostic.
func FormatPayload(event diag.Event) ([]byte, error) {
	p := DiagnosticPayload{
		Timestamp:  event.Time.UTC().Format(time.RFC3339),
		Level:      event.Level.String(),
		Kind:       string(event.Kind),
		Message:    event.Message,
		ThresholdC: event.ThresholdC,
	}
	switch event.Kind {
	case diag.KindSample, diag.KindSampleOutOfRange:
		c, alarm := event.Celsius, event.Alarm
		p.TemperatureC = &c
		p.Alarm = &alarm
	}
	return json.Marshal(Payload{Diagnostic: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Handler forwards every diagnostic to p. Failures are logged and dropped.
func Handler(p Publisher) diag.Handler {
	return diag.HandlerFunc(func(e diag.Event) {
		if err := p.Publish(e); err != nil {
			logrus.WithError(err).WithField("kind", e.Kind).Warn("mqtt: publish diagnostic")
		}
	})
}
