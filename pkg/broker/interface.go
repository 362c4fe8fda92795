package broker

import (
	"context"
	"time"
)

// MessageHandler receives one inbound frame for a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Client defines the interface for broker operations.
// This allows us to mock it easily in tests without depending on the MQTT
// client library. The paho-backed implementation lives in paho.go.
type Client interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error
	Unsubscribe(ctx context.Context, topics ...string) error
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
	Disconnect(quiesce time.Duration)
	IsConnected() bool
}
