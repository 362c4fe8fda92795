package statuspub

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/state"
	"line-monitor/pkg/testutil"
)

type fixedSource struct {
	snap state.Snapshot
}

func (f *fixedSource) Snapshot() state.Snapshot { return f.snap }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		Tasks: map[string]state.Task{
			"s1": {SubtaskID: "s1"},
			"s2": {SubtaskID: "s2"},
		},
		Warnings:     []state.Warning{{ID: 1}},
		SystemStatus: state.StatusWarning,
		Connection: state.ConnectionStatus{
			Connected: true,
			Health:    state.HealthWarning,
			Messages:  120,
			Errors:    3,
		},
		Metrics: state.Metrics{DetectionRate: 40, Efficiency: 62.5},
		At:      time.Unix(1700000000, 0),
	}
}

func TestBuildCondensesSnapshot(t *testing.T) {
	doc := Build(sampleSnapshot())

	if doc.Timestamp != time.Unix(1700000000, 0).UnixMilli() {
		t.Errorf("timestamp = %d", doc.Timestamp)
	}
	if !doc.Connected || doc.Health != state.HealthWarning {
		t.Errorf("connection = (%v, %v)", doc.Connected, doc.Health)
	}
	if doc.Tasks != 2 || doc.Warnings != 1 {
		t.Errorf("counts = (%d tasks, %d warnings), want (2, 1)", doc.Tasks, doc.Warnings)
	}
	if doc.Messages != 120 || doc.Errors != 3 {
		t.Errorf("counters = (%d, %d), want (120, 3)", doc.Messages, doc.Errors)
	}
	if doc.Metrics.Efficiency != 62.5 {
		t.Errorf("efficiency = %v, want 62.5", doc.Metrics.Efficiency)
	}
}

func TestPublishOnceSendsRetainedDoc(t *testing.T) {
	client := testutil.NewMockClient()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	p := New(client, &fixedSource{snap: sampleSnapshot()}, quietLogger(), "monitor/status", time.Minute)

	p.publishOnce(context.Background())

	if len(client.PublishCalls) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.PublishCalls))
	}
	msg := client.PublishCalls[0]
	if msg.Topic != "monitor/status" {
		t.Errorf("topic = %q", msg.Topic)
	}
	if !msg.Retained {
		t.Error("status document must be retained so late subscribers see it")
	}
	if msg.QoS != 0 {
		t.Errorf("qos = %d, want 0", msg.QoS)
	}

	var doc StatusDoc
	if err := json.Unmarshal(msg.Payload, &doc); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if doc.Tasks != 2 {
		t.Errorf("published doc has %d tasks, want 2", doc.Tasks)
	}
}

func TestPublishSkippedWhileDisconnected(t *testing.T) {
	client := testutil.NewMockClient()
	p := New(client, &fixedSource{snap: sampleSnapshot()}, quietLogger(), "monitor/status", time.Minute)

	p.publishOnce(context.Background())

	if len(client.PublishCalls) != 0 {
		t.Errorf("published %d messages while disconnected, want 0", len(client.PublishCalls))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	client := testutil.NewMockClient()
	p := New(client, &fixedSource{snap: sampleSnapshot()}, quietLogger(), "monitor/status", 10*time.Millisecond)

	p.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	p.Stop()
	p.Stop()
}
