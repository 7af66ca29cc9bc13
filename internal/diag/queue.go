package diag

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is enough for several seconds of diagnostics.
const DefaultQueueSize = 256

// Queue is a bounded fire-and-forget Sink.
type Queue struct {
	ch      chan Event
	dropped atomic.Uint64
	now     func() time.Time
}

// NewQueue creates a queue holding up to size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:  make(chan Event, size),
		now: time.Now,
	}
}

// Emit queues e without blocking. When the queue is full the event is
// dropped and counted.
func (q *Queue) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = q.now()
	}
	select {
	case q.ch <- e:
	default:
		if q.dropped.Add(1) == 1 {
			logrus.Warnf("diag: queue full (%d events), dropping", cap(q.ch))
		}
	}
}

// Dropped returns how many events have been discarded.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Run delivers events to handlers, in order, until ctx is done. It then
// delivers whatever is still queued and returns.
func (q *Queue) Run(ctx context.Context, handlers ...Handler) {
	deliver := func(e Event) {
		for _, h := range handlers {
			h.Handle(e)
		}
	}

	for {
		select {
		case e := <-q.ch:
			deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-q.ch:
					deliver(e)
				default:
					return
				}
			}
		}
	}
}
