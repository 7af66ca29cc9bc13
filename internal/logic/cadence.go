package logic

import "time"

// Cadence is the phase-locked sample gate. A tick is due when the clock's
// millisecond count is an exact multiple of the period.
//
// The gate remembers the last millisecond that fired, so evaluating it
// repeatedly within the same millisecond reports only one tick.
type Cadence struct {
	periodMs int64
	lastMs   int64
	fired    bool
}

// NewCadence creates a gate for the given period. Periods under one
// millisecond are raised to one millisecond.
func NewCadence(period time.Duration) *Cadence {
	ms := period.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return &Cadence{periodMs: ms}
}

// Due reports whether now is a sample tick that has not fired yet,
// and marks it as fired.
func (c *Cadence) Due(now time.Duration) bool {
	ms := now.Milliseconds()
	if ms%c.periodMs != 0 {
		return false
	}
	if c.fired && ms == c.lastMs {
		return false
	}
	c.lastMs = ms
	c.fired = true
	return true
}

// Period returns the gate period.
func (c *Cadence) Period() time.Duration {
	return time.Duration(c.periodMs) * time.Millisecond
}
