package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/broker"
	"line-monitor/pkg/config"
	"line-monitor/pkg/state"
)

// EventSink receives classified domain events. *state.Aggregator satisfies it.
type EventSink interface {
	Publish(event state.Event)
}

// Manager owns the single logical broker connection: handshake, the fixed
// subscription set, reconnect/backoff, malformed-payload accounting, and the
// periodic health check. Raw frames are classified and forwarded to the sink.
type Manager struct {
	cfg        *config.Config
	log        *logrus.Logger
	sink       EventSink
	classifier *state.Classifier
	clock      state.Clock

	mu             sync.Mutex
	client         broker.Client
	connected      bool
	closed         bool
	messages       uint64
	errors         uint64
	lastData       time.Time
	health         state.ConnectionHealth
	attempts       int
	exhausted      bool
	reconnectTimer *time.Timer

	done       chan struct{}
	closeOnce  sync.Once
	healthOnce sync.Once
	wg         sync.WaitGroup
}

// New creates a Manager backed by a paho MQTT client built from cfg.
func New(cfg *config.Config, log *logrus.Logger, sink EventSink) *Manager {
	m := newManager(cfg, log, sink, nil)
	m.client = broker.NewPahoClient(broker.Options{
		URL:              cfg.BrokerURL,
		ClientID:         cfg.BrokerClientID,
		Username:         cfg.BrokerUsername,
		Password:         cfg.BrokerPassword,
		OnConnectionLost: m.ConnectionLost,
	})
	return m
}

// NewWithClient creates a Manager with an injected broker client for testing.
func NewWithClient(cfg *config.Config, log *logrus.Logger, sink EventSink, client broker.Client, clock state.Clock) *Manager {
	m := newManager(cfg, log, sink, clock)
	m.client = client
	return m
}

func newManager(cfg *config.Config, log *logrus.Logger, sink EventSink, clock state.Clock) *Manager {
	if log == nil {
		log = logrus.New()
	}
	if clock == nil {
		clock = state.RealClock{}
	}
	return &Manager{
		cfg:        cfg,
		log:        log,
		sink:       sink,
		classifier: state.NewClassifier(cfg.Topics, clock),
		clock:      clock,
		health:     state.HealthCritical,
		done:       make(chan struct{}),
	}
}

// Connect performs the initial handshake and issues every topic subscription
// with at-least-once delivery. It returns an error if the handshake fails
// within the configured timeout; the caller decides whether to keep running
// on seed data.
func (m *Manager) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Network.HandshakeTimeout())
	defer cancel()

	if err := m.client.Connect(ctx); err != nil {
		m.mu.Lock()
		m.health = state.HealthCritical
		m.mu.Unlock()
		m.emitConnection()
		return fmt.Errorf("broker handshake: %w", err)
	}
	if err := m.subscribeAll(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.connected = true
	m.health = state.HealthHealthy
	m.attempts = 0
	m.lastData = m.clock.Now()
	m.mu.Unlock()
	m.emitConnection()

	m.startHealthLoop()
	return nil
}

// startHealthLoop launches the periodic health check once per Manager
// lifetime, whichever connect path succeeds first.
func (m *Manager) startHealthLoop() {
	m.healthOnce.Do(func() {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.wg.Add(1)
		m.mu.Unlock()
		go m.healthLoop()
	})
}

// Disconnect tears the transport down deterministically. Safe to call at any
// time, including twice: the second call is a no-op. Pending reconnect timers
// are cleared before teardown so no callback fires afterward.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.connected = false
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.mu.Unlock()

	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	if m.client.IsConnected() {
		m.client.Disconnect(250 * time.Millisecond)
	}
	m.emitConnection()
}

// ConnectionLost handles an unexpected transport close by scheduling a
// backed-off reconnect attempt.
func (m *Manager) ConnectionLost(err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.connected = false
	m.health = state.HealthCritical
	m.mu.Unlock()

	m.log.WithError(err).Warn("broker connection lost")
	m.emitConnection()
	m.scheduleReconnect()
}

func (m *Manager) subscribeAll(ctx context.Context) error {
	for _, topic := range m.cfg.Topics.All() {
		if err := m.client.Subscribe(ctx, topic, 1, m.handleMessage); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

// handleMessage is the single inbound path. Every successfully parsed frame
// bumps the message counter and the last-data timestamp; that is the sole
// heartbeat signal. Malformed or unclassifiable frames are counted and
// dropped without reaching the aggregator.
func (m *Manager) handleMessage(topic string, payload []byte) {
	if !json.Valid(payload) {
		m.mu.Lock()
		m.errors++
		m.mu.Unlock()
		m.log.WithField("topic", topic).Debug("dropping non-JSON payload")
		return
	}

	m.mu.Lock()
	m.messages++
	m.lastData = m.clock.Now()
	m.mu.Unlock()

	event, err := m.classifier.Classify(topic, payload)
	if err != nil {
		m.mu.Lock()
		m.errors++
		m.mu.Unlock()
		m.log.WithField("topic", topic).WithError(err).Debug("dropping unclassifiable payload")
		return
	}
	m.sink.Publish(event)
}

// Client exposes the underlying broker client for outbound publishing.
func (m *Manager) Client() broker.Client {
	return m.client
}

// Counters returns the session message and error counts.
func (m *Manager) Counters() (messages, errors uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages, m.errors
}

// Health returns the current tri-state connection health.
func (m *Manager) Health() state.ConnectionHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

func (m *Manager) emitConnection() {
	m.mu.Lock()
	ev := state.NewConnectionChanged(
		m.clock.Now(),
		m.connected,
		m.health,
		append([]string(nil), m.cfg.Topics.All()...),
		m.messages,
		m.errors,
	)
	m.mu.Unlock()
	m.sink.Publish(ev)
}

// backoffDelay computes the delay before reconnect attempt n (1-based):
// initial doubling per attempt, capped, with a small random jitter.
func (m *Manager) backoffDelay(attempt int) time.Duration {
	net := m.cfg.Network
	delay := time.Duration(net.InitialBackoffSeconds) * time.Second
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= time.Duration(net.MaxBackoffSeconds)*time.Second {
			break
		}
	}
	max := time.Duration(net.MaxBackoffSeconds) * time.Second
	if delay > max {
		delay = max
	}
	if net.BackoffJitter > 0 {
		jitter := 1 + net.BackoffJitter*(2*rand.Float64()-1)
		delay = time.Duration(float64(delay) * jitter)
	}
	return delay
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed || m.reconnectTimer != nil {
		m.mu.Unlock()
		return
	}
	m.attempts++
	attempt := m.attempts
	if attempt > m.cfg.Network.MaxReconnectAttempts {
		exhausted := m.exhausted
		m.exhausted = true
		m.mu.Unlock()
		if !exhausted {
			// Exactly one terminal warning, not one per failed attempt.
			m.log.Error("reconnect attempts exhausted, giving up")
			m.sink.Publish(state.NewWarningRaised(
				m.clock.Now(),
				state.SeverityHigh,
				fmt.Sprintf("broker connection lost and %d reconnect attempts failed", m.cfg.Network.MaxReconnectAttempts),
			))
			m.emitConnection()
		}
		return
	}
	delay := m.backoffDelay(attempt)
	m.reconnectTimer = time.AfterFunc(delay, m.attemptReconnect)
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Info("scheduling reconnect")
}

func (m *Manager) attemptReconnect() {
	m.mu.Lock()
	m.reconnectTimer = nil
	if m.closed {
		m.mu.Unlock()
		return
	}
	attempt := m.attempts
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Network.HandshakeTimeout())
	defer cancel()

	if err := m.client.Connect(ctx); err != nil {
		m.log.WithError(err).WithField("attempt", attempt).Warn("reconnect failed")
		m.scheduleReconnect()
		return
	}
	if err := m.subscribeAll(ctx); err != nil {
		m.log.WithError(err).Warn("resubscribe failed, reconnecting")
		m.client.Disconnect(0)
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if m.closed {
		// Disconnect ran while this attempt was in flight; release the
		// transport again instead of reviving a closed manager.
		m.mu.Unlock()
		m.client.Disconnect(0)
		return
	}
	m.connected = true
	m.health = state.HealthHealthy
	m.attempts = 0
	m.exhausted = false
	// Explicit reconnect is the one place session counters reset.
	m.messages = 0
	m.errors = 0
	m.lastData = m.clock.Now()
	m.mu.Unlock()

	m.log.Info("reconnected to broker")
	m.emitConnection()
	m.startHealthLoop()
}

// forceReconnect tears down a nominally connected but critically unhealthy
// transport and starts the reconnect cycle.
func (m *Manager) forceReconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.connected = false
	m.mu.Unlock()

	m.log.Warn("connection health critical, forcing reconnect")
	if m.client.IsConnected() {
		m.client.Disconnect(0)
	}
	m.emitConnection()
	m.scheduleReconnect()
}
