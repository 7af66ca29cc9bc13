package mqtt

import (
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/temp-alarm/internal/diag"
)

type received struct {
	topic   string
	payload []byte
	retain  bool
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// startBroker runs an in-process broker on addr and returns everything
// published under sensors/temp-alarm/.
func startBroker(t *testing.T, addr string) <-chan received {
	t.Helper()
	srv := mochi.New(&mochi.Options{InlineClient: true})
	require.NoError(t, srv.AddHook(new(auth.AllowHook), nil))

	msgs := make(chan received, 64)
	err := srv.Subscribe("sensors/temp-alarm/#", 1, func(cl *mochi.Client, sub packets.Subscription, pk packets.Packet) {
		msgs <- received{
			topic:   pk.TopicName,
			payload: append([]byte(nil), pk.Payload...),
			retain:  pk.FixedHeader.Retain,
		}
	})
	require.NoError(t, err)

	require.NoError(t, srv.AddListener(listeners.NewTCP(listeners.Config{ID: "t1", Address: addr})))
	require.NoError(t, srv.Serve())
	t.Cleanup(func() { srv.Close() })
	return msgs
}

func next(t *testing.T, msgs <-chan received) received {
	t.Helper()
	select {
	case m := <-msgs:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return received{}
	}
}

func sampleCelsius(t *testing.T, payload []byte) float64 {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal(payload, &p))
	require.NotNil(t, p.Diagnostic.TemperatureC)
	return *p.Diagnostic.TemperatureC
}

func TestRealPublisherDeliversToBroker(t *testing.T) {
	addr := freeAddr(t)
	msgs := startBroker(t, addr)

	var connected atomic.Bool
	p, err := NewRealPublisher(Config{
		Broker:             "tcp://" + addr,
		ClientID:           "temp-alarm-test",
		ConnectTimeout:     5 * time.Second,
		OnConnectionChange: connected.Store,
	})
	require.NoError(t, err)
	defer p.Close()

	require.Eventually(t, p.IsConnected, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, connected.Load, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Publish(diag.Event{Time: time.Now(), Kind: diag.KindSample, Celsius: 31, ThresholdC: 30, Alarm: true}))
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}))

	first := next(t, msgs)
	assert.Equal(t, TopicEvents, first.topic)
	assert.Equal(t, 31.0, sampleCelsius(t, first.payload))

	second := next(t, msgs)
	assert.Equal(t, TopicSystem, second.topic)
	assert.Contains(t, string(second.payload), `"event":"STARTUP"`)
	assert.Zero(t, p.Buffered())
}

func TestRealPublisherBuffersUntilConnected(t *testing.T) {
	addr := freeAddr(t)

	p, err := NewRealPublisher(Config{
		Broker:         "tcp://" + addr,
		ClientID:       "temp-alarm-test-buffer",
		ConnectTimeout: 50 * time.Millisecond,
		RetryInterval:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer p.Close()

	require.False(t, p.IsConnected())
	for c := 1; c <= 3; c++ {
		require.NoError(t, p.Publish(diag.Event{Time: time.Now(), Kind: diag.KindSample, Celsius: float64(c), ThresholdC: 30}))
	}
	require.Equal(t, 3, p.Buffered())

	msgs := startBroker(t, addr)

	for c := 1; c <= 3; c++ {
		m := next(t, msgs)
		assert.Equal(t, TopicEvents, m.topic)
		assert.Equal(t, float64(c), sampleCelsius(t, m.payload))
	}
	assert.Eventually(t, func() bool { return p.Buffered() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRealPublisherBacklogOverflowKeepsNewest(t *testing.T) {
	addr := freeAddr(t)

	p, err := NewRealPublisher(Config{
		Broker:         "tcp://" + addr,
		ClientID:       "temp-alarm-test-overflow",
		BufferSize:     2,
		ConnectTimeout: 50 * time.Millisecond,
		RetryInterval:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer p.Close()

	for c := 1; c <= 4; c++ {
		require.NoError(t, p.Publish(diag.Event{Time: time.Now(), Kind: diag.KindSample, Celsius: float64(c)}))
	}
	require.Equal(t, 2, p.Buffered())

	msgs := startBroker(t, addr)
	assert.Equal(t, 3.0, sampleCelsius(t, next(t, msgs).payload))
	assert.Equal(t, 4.0, sampleCelsius(t, next(t, msgs).payload))
}
