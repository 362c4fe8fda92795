package broker

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Options configures the paho-backed client.
type Options struct {
	URL      string
	ClientID string
	Username string
	Password string

	// Called when an established connection drops unexpectedly.
	// Reconnection is owned by the caller, not by paho.
	OnConnectionLost func(err error)
	// Called after every successful (re)connect, before any messages flow.
	OnConnect func()
}

// pahoClient implements Client over mqtt.Client. Paho's own auto-reconnect
// is disabled so the connection manager controls the retry policy.
type pahoClient struct {
	client mqtt.Client
}

// NewPahoClient builds a Client for the given broker options.
func NewPahoClient(opts Options) Client {
	co := mqtt.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(false).
		SetCleanSession(true)

	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	if opts.OnConnectionLost != nil {
		co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			opts.OnConnectionLost(err)
		})
	}
	if opts.OnConnect != nil {
		co.SetOnConnectHandler(func(_ mqtt.Client) {
			opts.OnConnect()
		})
	}

	return &pahoClient{client: mqtt.NewClient(co)}
}

func (p *pahoClient) Connect(ctx context.Context) error {
	return p.wait(ctx, "connect", p.client.Connect())
}

func (p *pahoClient) Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error {
	tok := p.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	})
	return p.wait(ctx, fmt.Sprintf("subscribe %s", topic), tok)
}

func (p *pahoClient) Unsubscribe(ctx context.Context, topics ...string) error {
	return p.wait(ctx, "unsubscribe", p.client.Unsubscribe(topics...))
}

func (p *pahoClient) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	return p.wait(ctx, fmt.Sprintf("publish %s", topic), p.client.Publish(topic, qos, retained, payload))
}

func (p *pahoClient) Disconnect(quiesce time.Duration) {
	p.client.Disconnect(uint(quiesce.Milliseconds()))
}

func (p *pahoClient) IsConnected() bool {
	return p.client.IsConnected()
}

// wait blocks on a paho token, bounded by the context deadline so a hung
// handshake cannot stall the caller indefinitely.
func (p *pahoClient) wait(ctx context.Context, op string, tok mqtt.Token) error {
	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("%s: timed out after %s", op, timeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
