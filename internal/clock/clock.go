// Package clock provides the device time base: a millisecond-resolution
// monotonic "now" and a sleep that suspends the calling goroutine.
package clock

import "time"

// Clock is the only source of time for the control loop.
type Clock interface {
	// Now returns the time elapsed since the clock epoch, truncated to
	// whole milliseconds. It never decreases.
	Now() time.Duration

	// Sleep suspends the caller for at least d. It never returns early.
	Sleep(d time.Duration)
}

// Monotonic is the real clock. Its epoch is the moment it was created.
type Monotonic struct {
	epoch time.Time
}

// NewMonotonic starts a clock whose epoch is now.
func NewMonotonic() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Now returns milliseconds since the epoch using the monotonic reading.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.epoch).Truncate(time.Millisecond)
}

// Sleep blocks the goroutine, letting the scheduler run other work.
func (m *Monotonic) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Epoch returns the wall-clock instant the clock started.
func (m *Monotonic) Epoch() time.Time {
	return m.epoch
}
