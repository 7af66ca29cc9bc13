package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/temp-alarm/internal/diag"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timeout")

// Config configures a RealPublisher.
type Config struct {
	Broker   string
	ClientID string

	// BufferSize bounds the backlog kept while disconnected.
	BufferSize int
	// ConnectTimeout is how long NewRealPublisher waits for the first
	// connection before carrying on disconnected.
	ConnectTimeout time.Duration
	// RetryInterval is the delay between connection attempts.
	RetryInterval time.Duration
	// PublishTimeout bounds each publish while connected.
	PublishTimeout time.Duration

	// OnConnectionChange, if set, is called on connect and connection loss.
	OnConnectionChange func(connected bool)
}

func (c *Config) setDefaults() {
	if c.ClientID == "" {
		c.ClientID = "temp-alarm"
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 5 * time.Second
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 5 * time.Second
	}
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are kept in a backlog and flushed, oldest
// first, when it comes back.
type RealPublisher struct {
	client  paho.Client
	cfg     Config
	mu      sync.Mutex
	backlog *backlog
}

// NewRealPublisher creates a publisher for cfg.Broker. A broker that cannot
// be reached yet is not an error: the client keeps retrying in the
// background and publishes are buffered meanwhile.
func NewRealPublisher(cfg Config) (*RealPublisher, error) {
	cfg.setDefaults()
	p := &RealPublisher{
		cfg:     cfg,
		backlog: newBacklog(cfg.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "connection lost"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.RetryInterval).
		SetMaxReconnectInterval(cfg.RetryInterval).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		logrus.Warnf("mqtt: broker %s not reachable yet, buffering until connected", cfg.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		p.client.Disconnect(0)
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// Publish sends a diagnostic to TopicEvents at QoS 0.
func (p *RealPublisher) Publish(event diag.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(pending{topic: TopicEvents, payload: payload})
}

// PublishSystem sends a system lifecycle event to TopicSystem at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(pending{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the connection to the broker is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages wait for the broker.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close disconnects from the broker. Anything still buffered is lost.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	if n := p.Buffered(); n > 0 {
		logrus.Warnf("mqtt: closing with %d unsent messages", n)
	}
	return nil
}

func (p *RealPublisher) send(m pending) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		p.backlog.add(m)
		return nil
	}
	if p.backlog.len() > 0 {
		p.flushLocked()
		if p.backlog.len() > 0 {
			p.backlog.add(m)
			return nil
		}
	}
	return p.publish(m)
}

// publish must be called with p.mu held.
func (p *RealPublisher) publish(m pending) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("publish %s: %w", m.topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (p *RealPublisher) onConnect(paho.Client) {
	logrus.Infof("mqtt: connected to %s", p.cfg.Broker)
	if p.cfg.OnConnectionChange != nil {
		p.cfg.OnConnectionChange(true)
	}
	// paho runs this handler on its own goroutine; flushing waits on
	// tokens, so hand it off.
	go p.flush()
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	logrus.WithError(err).Warn("mqtt: connection lost")
	if p.cfg.OnConnectionChange != nil {
		p.cfg.OnConnectionChange(false)
	}
}

func (p *RealPublisher) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

// flushLocked publishes the backlog in order, putting back whatever is
// left if a publish fails. p.mu must be held.
func (p *RealPublisher) flushLocked() {
	msgs := p.backlog.take()
	if len(msgs) == 0 {
		return
	}
	logrus.Infof("mqtt: flushing %d buffered messages", len(msgs))
	for i, m := range msgs {
		if err := p.publish(m); err != nil {
			logrus.WithError(err).Warn("mqtt: flush interrupted")
			for _, rest := range msgs[i:] {
				p.backlog.add(rest)
			}
			return
		}
	}
}
