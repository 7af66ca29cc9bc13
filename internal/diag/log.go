package diag

import "github.com/sirupsen/logrus"

// LogHandler writes events to a logrus logger at the event's level.
type LogHandler struct {
	Logger logrus.FieldLogger
}

// NewLogHandler logs through the standard logrus logger.
func NewLogHandler() *LogHandler {
	return &LogHandler{Logger: logrus.StandardLogger()}
}

// Handle logs e.
func (h *LogHandler) Handle(e Event) {
	fields := logrus.Fields{
		"kind":        e.Kind,
		"threshold_c": e.ThresholdC,
	}
	switch e.Kind {
	case KindSample, KindSampleOutOfRange:
		fields["temperature_c"] = e.Celsius
		fields["alarm"] = e.Alarm
	}

	entry := h.Logger.WithFields(fields)
	switch e.Level {
	case LevelError:
		entry.Error(e.Message)
	case LevelWarn:
		entry.Warn(e.Message)
	default:
		entry.Info(e.Message)
	}
}
