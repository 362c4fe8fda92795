package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/config"
	"line-monitor/pkg/state"
	"line-monitor/pkg/testutil"
)

type fixedClock struct {
	current time.Time
}

func (f *fixedClock) Now() time.Time { return f.current }

func (f *fixedClock) Advance(d time.Duration) { f.current = f.current.Add(d) }

func testConfig() *config.Config {
	return &config.Config{
		BrokerURL: "tcp://broker.test:1883",
		Topics: config.TopicConfig{
			Management:        config.DefaultTopicManagement,
			Projector:         config.DefaultTopicProjector,
			Telemetry:         config.DefaultTopicTelemetry,
			Detection:         config.DefaultTopicDetection,
			Hand:              config.DefaultTopicHand,
			TaskAssign:        config.DefaultTopicTaskAssign,
			NeighborsUpdate:   config.DefaultTopicNeighborsUpdate,
			StationNeighbors:  config.DefaultTopicStationNeighbors,
			StationVersion:    config.DefaultTopicStationVersion,
			StationMaster:     config.DefaultTopicStationMaster,
			TopologyPositions: config.DefaultTopicTopologyPositions,
			TopologyGraph:     config.DefaultTopicTopologyGraph,
			StatusOut:         config.DefaultTopicStatusOut,
		},
		Network: config.NetworkConfig{
			HandshakeTimeoutSeconds: 5,
			InitialBackoffSeconds:   0, // immediate retries in tests
			MaxBackoffSeconds:       0,
			BackoffJitter:           0,
			MaxReconnectAttempts:    3,
			HeartbeatSeconds:        30,
		},
		Limits: config.LimitConfig{WarningLog: 50, CompletedLog: 50, GridWindow: 5, EventQueue: 100},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, *testutil.MockClient, *testutil.CapturingSink, *fixedClock) {
	t.Helper()
	client := testutil.NewMockClient()
	sink := testutil.NewCapturingSink()
	clock := &fixedClock{current: time.Unix(1700000000, 0)}
	m := NewWithClient(cfg, quietLogger(), sink, client, clock)
	return m, client, sink, clock
}

func TestConnectSubscribesAllTopics(t *testing.T) {
	cfg := testConfig()
	m, client, sink, _ := newTestManager(t, cfg)
	defer m.Disconnect()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	want := cfg.Topics.All()
	if len(client.SubscribeCalls) != len(want) {
		t.Fatalf("subscribed to %d topics, want %d", len(client.SubscribeCalls), len(want))
	}
	for i, topic := range want {
		if client.SubscribeCalls[i] != topic {
			t.Errorf("subscription %d = %q, want %q", i, client.SubscribeCalls[i], topic)
		}
	}
	if got := m.Health(); got != state.HealthHealthy {
		t.Errorf("health after connect = %v, want healthy", got)
	}
	if conns := sink.ByType("connection"); len(conns) == 0 {
		t.Error("no connection event emitted after connect")
	}
}

func TestConnectFailureReportsCritical(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	client.ConnectError = errors.New("broker unreachable")

	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("Connect succeeded against a failing broker")
	}
	if got := m.Health(); got != state.HealthCritical {
		t.Errorf("health after failed connect = %v, want critical", got)
	}
	conns := sink.ByType("connection")
	if len(conns) == 0 {
		t.Fatal("no connection event emitted after failed connect")
	}
	ev := conns[len(conns)-1].(state.ConnectionChanged)
	if ev.Connected {
		t.Error("connection event reports connected after failure")
	}
}

func TestInboundFramesClassifiedAndCounted(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	defer m.Disconnect()
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Valid frame: forwarded to the sink, counted as a message.
	if !client.Inject("telemetry", []byte(`{"temperature":21.5}`)) {
		t.Fatal("no handler registered for telemetry")
	}
	if got := sink.ByType("telemetry"); len(got) != 1 {
		t.Fatalf("forwarded %d telemetry events, want 1", len(got))
	}

	// Malformed JSON: counted as an error, never forwarded.
	client.Inject("telemetry", []byte(`{"temperature":`))
	// Valid JSON nobody understands: counted as both message and error.
	client.Inject("telemetry", []byte(`{"note":"hello"}`))

	messages, errs := m.Counters()
	if messages != 2 {
		t.Errorf("messages = %d, want 2", messages)
	}
	if errs != 2 {
		t.Errorf("errors = %d, want 2", errs)
	}
	if got := sink.ByType("telemetry"); len(got) != 1 {
		t.Errorf("dropped frames reached the sink: %d telemetry events", len(got))
	}
}

func TestWildcardStationFramesReachHandler(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	defer m.Disconnect()
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if !client.Inject("station/w3/version", []byte(`{"version":"2.1.0"}`)) {
		t.Fatal("wildcard subscription did not match station topic")
	}
	reports := sink.ByType("station_report")
	if len(reports) != 1 {
		t.Fatalf("got %d station reports, want 1", len(reports))
	}
	if id := reports[0].(state.StationReported).Station.ID; id != "w3" {
		t.Errorf("station id = %q, want w3", id)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	m, client, _, _ := newTestManager(t, testConfig())
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	m.Disconnect()
	m.Disconnect()

	if client.DisconnectCalls != 1 {
		t.Errorf("client disconnected %d times, want 1", client.DisconnectCalls)
	}
	if got := m.Health(); got == state.HealthHealthy {
		t.Error("health still healthy after disconnect")
	}
}

func TestReconnectExhaustionRaisesOneWarning(t *testing.T) {
	cfg := testConfig()
	m, client, sink, _ := newTestManager(t, cfg)
	client.ConnectError = errors.New("broker down")

	m.ConnectionLost(errors.New("transport closed"))

	// Zero backoff makes the retry cycle run out almost immediately.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.ByType("warning")) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	warnings := sink.ByType("warning")
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings after exhaustion, want exactly 1", len(warnings))
	}
	w := warnings[0].(state.WarningRaised)
	if w.Severity != state.SeverityHigh {
		t.Errorf("exhaustion warning severity = %v, want high", w.Severity)
	}
	if calls := client.ConnectCalls; calls != cfg.Network.MaxReconnectAttempts {
		t.Errorf("connect attempted %d times, want %d", calls, cfg.Network.MaxReconnectAttempts)
	}

	// Later losses while exhausted must not duplicate the terminal warning.
	m.ConnectionLost(errors.New("still down"))
	time.Sleep(50 * time.Millisecond)
	if got := len(sink.ByType("warning")); got != 1 {
		t.Errorf("got %d warnings after repeated loss, want 1", got)
	}
}

func TestReconnectSuccessResetsSession(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	client.Inject("telemetry", []byte(`{"temperature":20}`))
	client.Inject("telemetry", []byte(`not json`))
	if messages, errs := m.Counters(); messages != 1 || errs != 1 {
		t.Fatalf("counters before loss = (%d, %d), want (1, 1)", messages, errs)
	}

	// First retry fails, second succeeds.
	client.ConnectErrors = []error{errors.New("flap"), nil}
	m.ConnectionLost(errors.New("transport closed"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Health() == state.HealthHealthy {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := m.Health(); got != state.HealthHealthy {
		t.Fatalf("health after reconnect = %v, want healthy", got)
	}
	if messages, errs := m.Counters(); messages != 0 || errs != 0 {
		t.Errorf("counters after reconnect = (%d, %d), want (0, 0)", messages, errs)
	}
	if len(sink.ByType("warning")) != 0 {
		t.Error("successful reconnect raised a warning")
	}
}

func TestHealthTickRefreshesConnectionCounters(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	defer m.Disconnect()
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		client.Inject("telemetry", []byte(`{"temperature":20}`))
	}

	// Steady healthy traffic: no transition happens, but the tick must still
	// push current counters into the state stream.
	m.checkHealth()

	conns := sink.ByType("connection")
	if len(conns) == 0 {
		t.Fatal("no connection event emitted by the health tick")
	}
	last := conns[len(conns)-1].(state.ConnectionChanged)
	if last.Messages != 5 || last.Errors != 0 {
		t.Errorf("tick reported counters (%d, %d), want (5, 0)", last.Messages, last.Errors)
	}
	if !last.Connected || last.Health != state.HealthHealthy {
		t.Errorf("tick reported (%v, %v), want connected and healthy", last.Connected, last.Health)
	}
}

func TestDisconnectWinsOverInFlightReconnect(t *testing.T) {
	m, client, sink, _ := newTestManager(t, testConfig())
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	barrier := make(chan struct{})
	client.ConnectBarrier = barrier

	m.ConnectionLost(errors.New("transport closed"))

	// Wait until the retry attempt is parked on the barrier.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if connects, _ := client.Calls(); connects >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if connects, _ := client.Calls(); connects < 2 {
		t.Fatal("reconnect attempt never started")
	}

	m.Disconnect()
	before := len(sink.ByType("connection"))
	close(barrier)

	// The released attempt connects the transport, then must notice the
	// closed manager and drop it again without reporting connected.
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !client.IsConnected() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if client.IsConnected() {
		t.Error("transport left connected after Disconnect")
	}
	if got := m.Health(); got == state.HealthHealthy {
		t.Error("closed manager reported healthy after revived reconnect")
	}
	if after := len(sink.ByType("connection")); after != before {
		t.Errorf("revived reconnect emitted %d connection events after Disconnect", after-before)
	}
}

func TestBackoffDelaySequence(t *testing.T) {
	cfg := testConfig()
	cfg.Network.InitialBackoffSeconds = 1
	cfg.Network.MaxBackoffSeconds = 30
	cfg.Network.BackoffJitter = 0
	m, _, _, _ := newTestManager(t, cfg)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		if got := m.backoffDelay(i + 1); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Network.InitialBackoffSeconds = 4
	cfg.Network.MaxBackoffSeconds = 30
	cfg.Network.BackoffJitter = 0.2
	m, _, _, _ := newTestManager(t, cfg)

	for i := 0; i < 100; i++ {
		d := m.backoffDelay(1)
		if d < 3200*time.Millisecond || d > 4800*time.Millisecond {
			t.Fatalf("jittered delay %v outside [3.2s, 4.8s]", d)
		}
	}
}

func TestClassifyHealth(t *testing.T) {
	heartbeat := 30 * time.Second
	tests := []struct {
		name      string
		connected bool
		sinceData time.Duration
		messages  uint64
		errors    uint64
		want      state.ConnectionHealth
	}{
		{"disconnected", false, 0, 0, 0, state.HealthCritical},
		{"fresh data no errors", true, 5 * time.Second, 100, 0, state.HealthHealthy},
		{"slightly stale", true, 45 * time.Second, 100, 0, state.HealthWarning},
		{"very stale", true, 2 * time.Minute, 100, 0, state.HealthCritical},
		{"elevated error ratio", true, 5 * time.Second, 100, 20, state.HealthWarning},
		{"mostly errors", true, 5 * time.Second, 100, 60, state.HealthCritical},
		{"no traffic yet", true, 0, 0, 0, state.HealthHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyHealth(tt.connected, tt.sinceData, heartbeat, tt.messages, tt.errors)
			if got != tt.want {
				t.Errorf("classifyHealth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriticalHealthWhileConnectedForcesReconnect(t *testing.T) {
	m, client, _, clock := newTestManager(t, testConfig())
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	// Data goes silent for well past the critical threshold.
	clock.Advance(10 * time.Minute)
	m.checkHealth()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client.ConnectCalls >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if client.ConnectCalls < 2 {
		t.Fatalf("connect called %d times, expected a forced reconnect", client.ConnectCalls)
	}
}
