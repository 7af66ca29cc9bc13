package mqtt

import "github.com/sirupsen/logrus"

// DefaultBufferSize is how many messages are held while the broker is away.
const DefaultBufferSize = 256

// pending is a serialized message waiting for the broker.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of pending messages. When full the
// oldest message is overwritten. Not safe for concurrent use.
type backlog struct {
	msgs    []pending
	next    int
	n       int
	dropped uint64
	warned  bool
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{msgs: make([]pending, capacity)}
}

// add queues m and reports whether an older message was overwritten.
func (b *backlog) add(m pending) bool {
	capacity := len(b.msgs)
	b.msgs[b.next] = m
	b.next = (b.next + 1) % capacity
	if b.n < capacity {
		b.n++
		return false
	}

	b.dropped++
	if !b.warned {
		logrus.Warnf("mqtt: backlog full (%d messages), overwriting oldest", capacity)
		b.warned = true
	}
	return true
}

// take empties the backlog, oldest first.
func (b *backlog) take() []pending {
	if b.n == 0 {
		return nil
	}
	capacity := len(b.msgs)
	out := make([]pending, 0, b.n)
	for i := b.n; i > 0; i-- {
		out = append(out, b.msgs[(b.next-i+capacity)%capacity])
	}
	b.n = 0
	b.next = 0
	b.warned = false
	return out
}

func (b *backlog) len() int { return b.n }
