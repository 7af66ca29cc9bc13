package diag

// Recorder keeps every event, for tests. It is both a Sink and a Handler.
type Recorder struct {
	Events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Handle records e.
func (r *Recorder) Handle(e Event) {
	r.Emit(e)
}

// Messages returns the message of every recorded event.
func (r *Recorder) Messages() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Message)
	}
	return out
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// OfLevel returns the recorded events at level l.
func (r *Recorder) OfLevel(l Level) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Level == l {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
