// Package statuspub periodically publishes a compact health/status document
// back to a broker topic, so dashboards can monitor the monitor itself.
package statuspub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/broker"
	"line-monitor/pkg/state"
)

// SnapshotSource is anything that can produce the current state snapshot.
// *state.Aggregator satisfies it.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// StatusDoc is the published wire document.
type StatusDoc struct {
	Timestamp    int64                  `json:"timestamp"`
	Connected    bool                   `json:"connected"`
	Health       state.ConnectionHealth `json:"health"`
	SystemStatus state.SystemStatus     `json:"system_status"`
	Messages     uint64                 `json:"messages"`
	Errors       uint64                 `json:"errors"`
	Warnings     int                    `json:"warnings"`
	Tasks        int                    `json:"tasks"`
	Metrics      state.Metrics          `json:"metrics"`
}

// Publisher periodically snapshots the aggregator and publishes a StatusDoc.
type Publisher struct {
	client   broker.Client
	source   SnapshotSource
	log      *logrus.Logger
	topic    string
	interval time.Duration

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func New(client broker.Client, source SnapshotSource, log *logrus.Logger, topic string, interval time.Duration) *Publisher {
	if log == nil {
		log = logrus.New()
	}
	return &Publisher{
		client:   client,
		source:   source,
		log:      log,
		topic:    topic,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the publish loop.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop halts publishing; idempotent.
func (p *Publisher) Stop() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Publisher) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.publishOnce(ctx)
		}
	}
}

func (p *Publisher) publishOnce(ctx context.Context) {
	if !p.client.IsConnected() {
		return
	}
	snap := p.source.Snapshot()
	doc := Build(snap)

	payload, err := json.Marshal(doc)
	if err != nil {
		p.log.WithError(err).Warn("marshaling status document")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.client.Publish(pubCtx, p.topic, 0, true, payload); err != nil {
		p.log.WithError(err).Debug("status publish failed")
	}
}

// Build condenses a snapshot into the published document.
func Build(snap state.Snapshot) StatusDoc {
	return StatusDoc{
		Timestamp:    snap.At.UnixMilli(),
		Connected:    snap.Connection.Connected,
		Health:       snap.Connection.Health,
		SystemStatus: snap.SystemStatus,
		Messages:     snap.Connection.Messages,
		Errors:       snap.Connection.Errors,
		Warnings:     len(snap.Warnings),
		Tasks:        len(snap.Tasks),
		Metrics:      snap.Metrics,
	}
}
