package gpio

import (
	"sort"
	"time"
)

// Nower supplies the current time since the clock epoch.
type Nower interface {
	Now() time.Duration
}

// Edge is a scripted level change at a point in time.
type Edge struct {
	At   time.Duration
	High bool
}

// FakeInput is a test double whose level follows a scripted timeline.
// Before the first edge the input reads low.
type FakeInput struct {
	clock Nower
	edges []Edge

	// Reads counts calls to IsSet.
	Reads int
}

// NewFakeInput creates a FakeInput driven by clock. Edges may be given in any order.
func NewFakeInput(clock Nower, edges ...Edge) *FakeInput {
	f := &FakeInput{clock: clock}
	f.Script(edges...)
	return f
}

// Script appends edges to the timeline.
func (f *FakeInput) Script(edges ...Edge) {
	f.edges = append(f.edges, edges...)
	sort.SliceStable(f.edges, func(i, j int) bool { return f.edges[i].At < f.edges[j].At })
}

// Press scripts a clean press from at lasting hold.
func (f *FakeInput) Press(at, hold time.Duration) {
	f.Script(Edge{At: at, High: true}, Edge{At: at + hold, High: false})
}

// IsSet returns the level at the clock's current time.
func (f *FakeInput) IsSet() bool {
	f.Reads++
	now := f.clock.Now()
	level := false
	for _, e := range f.edges {
		if e.At > now {
			break
		}
		level = e.High
	}
	return level
}

// FakeOutput records the levels written to it.
type FakeOutput struct {
	// High is the current level.
	High bool

	// History contains every level written, in order.
	History []bool
}

// NewFakeOutput creates a FakeOutput that starts low.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set drives the fake line high.
func (f *FakeOutput) Set() {
	f.High = true
	f.History = append(f.History, true)
}

// Clear drives the fake line low.
func (f *FakeOutput) Clear() {
	f.High = false
	f.History = append(f.History, false)
}

// Writes returns how many times the line has been written.
func (f *FakeOutput) Writes() int {
	return len(f.History)
}
