package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"line-monitor/pkg/broker"
)

// MockClient is a reusable mock that implements broker.Client for tests.
// Handlers registered via Subscribe can be driven with Inject to simulate
// inbound frames without a broker.
type MockClient struct {
	mu sync.Mutex

	ConnectError   error
	SubscribeError error
	PublishError   error

	// ConnectErrors, when non-empty, is consumed one per Connect call before
	// ConnectError applies. Lets tests fail N attempts then succeed.
	ConnectErrors []error

	// ConnectBarrier, when non-nil, is received from at the start of every
	// Connect call, letting tests hold an attempt in flight.
	ConnectBarrier chan struct{}

	ConnectCalls    int
	SubscribeCalls  []string
	PublishCalls    []PublishedMessage
	DisconnectCalls int

	connected bool
	handlers  map[string]broker.MessageHandler
}

// PublishedMessage records one Publish invocation.
type PublishedMessage struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockClient() *MockClient {
	return &MockClient{handlers: make(map[string]broker.MessageHandler)}
}

func (m *MockClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.ConnectCalls++
	barrier := m.ConnectBarrier
	m.mu.Unlock()
	if barrier != nil {
		<-barrier
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ConnectErrors) > 0 {
		err := m.ConnectErrors[0]
		m.ConnectErrors = m.ConnectErrors[1:]
		if err != nil {
			return err
		}
		m.connected = true
		return nil
	}
	if m.ConnectError != nil {
		return m.ConnectError
	}
	m.connected = true
	return nil
}

func (m *MockClient) Subscribe(ctx context.Context, topic string, qos byte, handler broker.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubscribeCalls = append(m.SubscribeCalls, topic)
	if m.SubscribeError != nil {
		return m.SubscribeError
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockClient) Unsubscribe(ctx context.Context, topics ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range topics {
		delete(m.handlers, t)
	}
	return nil
}

func (m *MockClient) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishCalls = append(m.PublishCalls, PublishedMessage{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockClient) Disconnect(quiesce time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DisconnectCalls++
	m.connected = false
}

// Calls returns the connect and disconnect call counts, safe to read while
// client goroutines are still running.
func (m *MockClient) Calls() (connects, disconnects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConnectCalls, m.DisconnectCalls
}

func (m *MockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Inject delivers a frame to the handler whose subscription filter matches
// topic, honoring MQTT "+" wildcards. Returns whether a handler was found.
func (m *MockClient) Inject(topic string, payload []byte) bool {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	if !ok {
		for filter, h := range m.handlers {
			if filterMatches(filter, topic) {
				handler, ok = h, true
				break
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	handler(topic, payload)
	return true
}

func filterMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	if len(fp) != len(tp) {
		return false
	}
	for i, f := range fp {
		if f != "+" && f != tp[i] {
			return false
		}
	}
	return true
}
