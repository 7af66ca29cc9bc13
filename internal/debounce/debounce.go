// Package debounce turns a noisy momentary switch into one clean press.
//
// Mechanical contacts chatter for a few milliseconds and fingers twitch.
// A Debouncer is entered once the raw input reads pressed; it waits, sleeping
// on the clock, until the input reads released, then holds a short lockout
// before handing control back.
package debounce

import (
	"time"
)

// Default intervals.
const (
	SettleInterval  = 20 * time.Millisecond
	LockoutInterval = 30 * time.Millisecond
)

// State is the debouncer phase.
type State int

const (
	StateIdle State = iota
	StateSettling
	StateLockout
)

func (s State) String() string {
	switch s {
	case StateSettling:
		return "settling"
	case StateLockout:
		return "lockout"
	default:
		return "idle"
	}
}

// Sleeper suspends the caller for at least d.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Debouncer handles one button.
type Debouncer struct {
	clock   Sleeper
	settle  time.Duration
	lockout time.Duration

	state   State
	presses int
	polls   int
}

// New creates a Debouncer with the given intervals. Zero intervals fall
// back to SettleInterval and LockoutInterval.
func New(clock Sleeper, settle, lockout time.Duration) *Debouncer {
	if settle <= 0 {
		settle = SettleInterval
	}
	if lockout <= 0 {
		lockout = LockoutInterval
	}
	return &Debouncer{
		clock:   clock,
		settle:  settle,
		lockout: lockout,
	}
}

// Wait blocks until isPressed reports false, re-checking every settle
// interval, then sleeps the lockout. Each call resolves exactly one press.
// Nothing can abort a Wait once started.
func (d *Debouncer) Wait(isPressed func() bool) {
	d.state = StateSettling
	for isPressed() {
		d.polls++
		d.clock.Sleep(d.settle)
	}

	d.state = StateLockout
	d.clock.Sleep(d.lockout)

	d.state = StateIdle
	d.presses++
}

// State returns the current phase. Outside of Wait it is always StateIdle.
func (d *Debouncer) State() State {
	return d.state
}

// Presses returns the number of presses resolved so far.
func (d *Debouncer) Presses() int {
	return d.presses
}

// Polls returns how many settle intervals have been slept in total.
func (d *Debouncer) Polls() int {
	return d.polls
}
