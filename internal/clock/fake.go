package clock

import "time"

// Fake is a manually driven clock for tests.
// Sleep advances time instantly instead of blocking.
type Fake struct {
	now time.Duration

	// Sleeps records every duration passed to Sleep, in order.
	Sleeps []time.Duration

	// OnSleep, if set, is called after time has advanced on each Sleep.
	OnSleep func(now time.Duration)

	// Tick, if non-zero, is added to the time after every Now call.
	// It simulates a loop that takes time to run between clock reads.
	Tick time.Duration
}

// NewFake creates a Fake clock starting at the given offset from the epoch.
func NewFake(start time.Duration) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time truncated to milliseconds.
func (f *Fake) Now() time.Duration {
	now := f.now.Truncate(time.Millisecond)
	f.now += f.Tick
	return now
}

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.Sleeps = append(f.Sleeps, d)
	f.now += d
	if f.OnSleep != nil {
		f.OnSleep(f.now)
	}
}

// Advance moves time forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.now += d
}

// Set moves the clock to t. Moving backwards is ignored so Now stays monotonic.
func (f *Fake) Set(t time.Duration) {
	if t > f.now {
		f.now = t
	}
}

// Slept returns the total time spent in Sleep.
func (f *Fake) Slept() time.Duration {
	var total time.Duration
	for _, d := range f.Sleeps {
		total += d
	}
	return total
}
