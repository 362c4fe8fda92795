package config

import "time"

type Config struct {
	BrokerURL      string
	BrokerClientID string
	BrokerUsername string
	BrokerPassword string

	Topics  TopicConfig
	Network NetworkConfig
	Limits  LimitConfig
	Metrics MetricsConfig

	StatusPublishSeconds int
}

// TopicConfig is the fixed subscription set, each name overridable.
type TopicConfig struct {
	Management        string
	Projector         string
	Telemetry         string
	Detection         string
	Hand              string
	TaskAssign        string
	NeighborsUpdate   string
	StationNeighbors  string
	StationVersion    string
	StationMaster     string
	TopologyPositions string
	TopologyGraph     string
	StatusOut         string
}

// All returns every inbound topic in subscription order.
// StatusOut is excluded: the monitor publishes there, it never subscribes.
func (t TopicConfig) All() []string {
	return []string{
		t.Management,
		t.Projector,
		t.Telemetry,
		t.Detection,
		t.Hand,
		t.TaskAssign,
		t.NeighborsUpdate,
		t.StationNeighbors,
		t.StationVersion,
		t.StationMaster,
		t.TopologyPositions,
		t.TopologyGraph,
	}
}

type NetworkConfig struct {
	HandshakeTimeoutSeconds int
	InitialBackoffSeconds   int
	MaxBackoffSeconds       int
	BackoffJitter           float64
	MaxReconnectAttempts    int
	HeartbeatSeconds        int
}

func (n NetworkConfig) HandshakeTimeout() time.Duration {
	return time.Duration(n.HandshakeTimeoutSeconds) * time.Second
}

func (n NetworkConfig) HeartbeatInterval() time.Duration {
	return time.Duration(n.HeartbeatSeconds) * time.Second
}

// LimitConfig bounds the in-memory caches so nothing grows without limit.
type LimitConfig struct {
	WarningLog   int
	CompletedLog int
	GridWindow   int
	EventQueue   int
}

type MetricsConfig struct {
	DetectionWindowSeconds  int
	CompletionWindowSeconds int
	Weights                 EfficiencyWeights
	FetchURL                string
	FetchTimeoutSeconds     int
}

// EfficiencyWeights blend the system-efficiency inputs. The specific values
// are tuning parameters, not a physical law; they only need to move
// efficiency up with more completions and down with more errors.
type EfficiencyWeights struct {
	ActiveTasks float64
	Completion  float64
	ErrorFree   float64
}

// Load builds configuration from the given sources in order of precedence
// (typically: CLI flags > environment > config file), falling back to
// defaults for anything unset.
func Load(sources ...ConfigSource) (*Config, error) {
	resolver := NewConfigResolver(sources...)

	cfg := &Config{
		BrokerURL:      resolver.ResolveString(KeyBrokerURL, ""),
		BrokerClientID: resolver.ResolveString(KeyBrokerClientID, DefaultBrokerClientID),
		BrokerUsername: resolver.ResolveString(KeyBrokerUsername, ""),
		BrokerPassword: resolver.ResolveString(KeyBrokerPassword, ""),
		Topics: TopicConfig{
			Management:        resolver.ResolveString(KeyTopicManagement, DefaultTopicManagement),
			Projector:         resolver.ResolveString(KeyTopicProjector, DefaultTopicProjector),
			Telemetry:         resolver.ResolveString(KeyTopicTelemetry, DefaultTopicTelemetry),
			Detection:         resolver.ResolveString(KeyTopicDetection, DefaultTopicDetection),
			Hand:              resolver.ResolveString(KeyTopicHand, DefaultTopicHand),
			TaskAssign:        resolver.ResolveString(KeyTopicTaskAssign, DefaultTopicTaskAssign),
			NeighborsUpdate:   resolver.ResolveString(KeyTopicNeighborsUpdate, DefaultTopicNeighborsUpdate),
			StationNeighbors:  resolver.ResolveString(KeyTopicStationNeighbors, DefaultTopicStationNeighbors),
			StationVersion:    resolver.ResolveString(KeyTopicStationVersion, DefaultTopicStationVersion),
			StationMaster:     resolver.ResolveString(KeyTopicStationMaster, DefaultTopicStationMaster),
			TopologyPositions: resolver.ResolveString(KeyTopicTopologyPositions, DefaultTopicTopologyPositions),
			TopologyGraph:     resolver.ResolveString(KeyTopicTopologyGraph, DefaultTopicTopologyGraph),
			StatusOut:         resolver.ResolveString(KeyTopicStatusOut, DefaultTopicStatusOut),
		},
		Network: NetworkConfig{
			HandshakeTimeoutSeconds: resolver.ResolveInt(KeyNetworkHandshakeTimeoutSeconds, DefaultNetworkHandshakeTimeoutSeconds),
			InitialBackoffSeconds:   resolver.ResolveInt(KeyNetworkInitialBackoffSeconds, DefaultNetworkInitialBackoffSeconds),
			MaxBackoffSeconds:       resolver.ResolveInt(KeyNetworkMaxBackoffSeconds, DefaultNetworkMaxBackoffSeconds),
			BackoffJitter:           resolver.ResolveFloat(KeyNetworkBackoffJitter, DefaultNetworkBackoffJitter),
			MaxReconnectAttempts:    resolver.ResolveInt(KeyNetworkMaxReconnectAttempts, DefaultNetworkMaxReconnectAttempts),
			HeartbeatSeconds:        resolver.ResolveInt(KeyNetworkHeartbeatSeconds, DefaultNetworkHeartbeatSeconds),
		},
		Limits: LimitConfig{
			WarningLog:   resolver.ResolveInt(KeyLimitWarningLog, DefaultLimitWarningLog),
			CompletedLog: resolver.ResolveInt(KeyLimitCompletedLog, DefaultLimitCompletedLog),
			GridWindow:   resolver.ResolveInt(KeyLimitGridWindow, DefaultLimitGridWindow),
			EventQueue:   resolver.ResolveInt(KeyLimitEventQueue, DefaultLimitEventQueue),
		},
		Metrics: MetricsConfig{
			DetectionWindowSeconds:  resolver.ResolveInt(KeyMetricsDetectionWindowSeconds, DefaultMetricsDetectionWindowSeconds),
			CompletionWindowSeconds: resolver.ResolveInt(KeyMetricsCompletionWindowSeconds, DefaultMetricsCompletionWindowSeconds),
			Weights: EfficiencyWeights{
				ActiveTasks: resolver.ResolveFloat(KeyMetricsWeightActiveTasks, DefaultMetricsWeightActiveTasks),
				Completion:  resolver.ResolveFloat(KeyMetricsWeightCompletion, DefaultMetricsWeightCompletion),
				ErrorFree:   resolver.ResolveFloat(KeyMetricsWeightErrorFree, DefaultMetricsWeightErrorFree),
			},
			FetchURL:            resolver.ResolveString(KeyMetricsFetchURL, ""),
			FetchTimeoutSeconds: resolver.ResolveInt(KeyMetricsFetchTimeoutSeconds, DefaultMetricsFetchTimeoutSeconds),
		},
		StatusPublishSeconds: resolver.ResolveInt(KeyStatusPublishSeconds, DefaultStatusPublishSeconds),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
