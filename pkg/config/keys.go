package config

// Configuration key constants
// These constants centralize all environment variable and configuration key names
// to eliminate magic strings and improve maintainability.

const (
	// Core service configuration keys
	KeyBrokerURL      = "BROKER_URL"
	KeyBrokerClientID = "BROKER_CLIENT_ID"
	KeyBrokerUsername = "BROKER_USERNAME"
	KeyBrokerPassword = "BROKER_PASSWORD"

	// Topic override keys
	KeyTopicManagement        = "TOPIC_MANAGEMENT"
	KeyTopicProjector         = "TOPIC_PROJECTOR"
	KeyTopicTelemetry         = "TOPIC_TELEMETRY"
	KeyTopicDetection         = "TOPIC_DETECTION"
	KeyTopicHand              = "TOPIC_HAND"
	KeyTopicTaskAssign        = "TOPIC_TASK_ASSIGN"
	KeyTopicNeighborsUpdate   = "TOPIC_NEIGHBORS_UPDATE"
	KeyTopicStationNeighbors  = "TOPIC_STATION_NEIGHBORS"
	KeyTopicStationVersion    = "TOPIC_STATION_VERSION"
	KeyTopicStationMaster     = "TOPIC_STATION_MASTER"
	KeyTopicTopologyPositions = "TOPIC_TOPOLOGY_POSITIONS"
	KeyTopicTopologyGraph     = "TOPIC_TOPOLOGY_GRAPH"
	KeyTopicStatusOut         = "TOPIC_STATUS_OUT"

	// Network configuration keys
	KeyNetworkHandshakeTimeoutSeconds = "NETWORK_HANDSHAKE_TIMEOUT_SECONDS"
	KeyNetworkInitialBackoffSeconds   = "NETWORK_INITIAL_BACKOFF_SECONDS"
	KeyNetworkMaxBackoffSeconds       = "NETWORK_MAX_BACKOFF_SECONDS"
	KeyNetworkBackoffJitter           = "NETWORK_BACKOFF_JITTER"
	KeyNetworkMaxReconnectAttempts    = "NETWORK_MAX_RECONNECT_ATTEMPTS"
	KeyNetworkHeartbeatSeconds        = "NETWORK_HEARTBEAT_SECONDS"

	// Cache bound keys
	KeyLimitWarningLog   = "LIMIT_WARNING_LOG"
	KeyLimitCompletedLog = "LIMIT_COMPLETED_LOG"
	KeyLimitGridWindow   = "LIMIT_GRID_WINDOW"
	KeyLimitEventQueue   = "LIMIT_EVENT_QUEUE"

	// Derived metric keys
	KeyMetricsDetectionWindowSeconds  = "METRICS_DETECTION_WINDOW_SECONDS"
	KeyMetricsCompletionWindowSeconds = "METRICS_COMPLETION_WINDOW_SECONDS"
	KeyMetricsWeightActiveTasks       = "METRICS_WEIGHT_ACTIVE_TASKS"
	KeyMetricsWeightCompletion        = "METRICS_WEIGHT_COMPLETION"
	KeyMetricsWeightErrorFree         = "METRICS_WEIGHT_ERROR_FREE"
	KeyMetricsFetchURL                = "METRICS_FETCH_URL"
	KeyMetricsFetchTimeoutSeconds     = "METRICS_FETCH_TIMEOUT_SECONDS"

	// Status publisher keys
	KeyStatusPublishSeconds = "STATUS_PUBLISH_SECONDS"
)

// Default values for configuration
const (
	DefaultBrokerClientID = "line-monitor"

	// Topic defaults
	DefaultTopicManagement        = "management/interface"
	DefaultTopicProjector         = "projector/control"
	DefaultTopicTelemetry         = "telemetry"
	DefaultTopicDetection         = "vision/detections"
	DefaultTopicHand              = "vision/hands"
	DefaultTopicTaskAssign        = "tasks/attributes"
	DefaultTopicNeighborsUpdate   = "neighbors/update"
	DefaultTopicStationNeighbors  = "station/+/neighbors"
	DefaultTopicStationVersion    = "station/+/version"
	DefaultTopicStationMaster     = "station/+/master"
	DefaultTopicTopologyPositions = "topology/positions"
	DefaultTopicTopologyGraph     = "topology/graph"
	DefaultTopicStatusOut         = "monitor/status"

	// Network defaults
	DefaultNetworkHandshakeTimeoutSeconds = 10
	DefaultNetworkInitialBackoffSeconds   = 1
	DefaultNetworkMaxBackoffSeconds       = 30
	DefaultNetworkBackoffJitter           = 0.2
	DefaultNetworkMaxReconnectAttempts    = 5
	DefaultNetworkHeartbeatSeconds        = 30

	// Cache bound defaults
	DefaultLimitWarningLog   = 50
	DefaultLimitCompletedLog = 50
	DefaultLimitGridWindow   = 5
	DefaultLimitEventQueue   = 1000

	// Derived metric defaults
	DefaultMetricsDetectionWindowSeconds  = 60
	DefaultMetricsCompletionWindowSeconds = 3600
	DefaultMetricsWeightActiveTasks       = 0.3
	DefaultMetricsWeightCompletion        = 0.4
	DefaultMetricsWeightErrorFree         = 0.3
	DefaultMetricsFetchTimeoutSeconds     = 5

	DefaultStatusPublishSeconds = 10
)

// CLI flag name constants (kebab-case for command line)
const (
	FlagBrokerURL      = "broker-url"
	FlagBrokerClientID = "broker-client-id"
	FlagBrokerUsername = "broker-username"
	FlagBrokerPassword = "broker-password"

	FlagNetworkHandshakeTimeoutSeconds = "handshake-timeout-seconds"
	FlagNetworkInitialBackoffSeconds   = "initial-backoff-seconds"
	FlagNetworkMaxBackoffSeconds       = "max-backoff-seconds"
	FlagNetworkBackoffJitter           = "backoff-jitter"
	FlagNetworkMaxReconnectAttempts    = "max-reconnect-attempts"
	FlagNetworkHeartbeatSeconds        = "heartbeat-seconds"

	FlagMetricsFetchURL = "metrics-fetch-url"
	FlagConfigFile      = "config"
)

// Help descriptions
const (
	AppName        = "Line Monitor"
	AppDescription = "Ingest candy-production-line telemetry from an MQTT broker"

	HelpBrokerURL      = "Broker URL, e.g. ws://localhost:9001/mqtt (required)"
	HelpBrokerClientID = "MQTT client identifier"
	HelpBrokerUsername = "Broker username"
	HelpBrokerPassword = "Broker password"

	HelpHandshakeTimeoutSeconds = "Connect handshake timeout in seconds"
	HelpInitialBackoffSeconds   = "Initial reconnect backoff in seconds"
	HelpMaxBackoffSeconds       = "Max reconnect backoff in seconds"
	HelpBackoffJitter           = "Reconnect backoff jitter fraction"
	HelpMaxReconnectAttempts    = "Reconnect attempts before giving up"
	HelpHeartbeatSeconds        = "Connection health check interval in seconds"

	HelpMetricsFetchURL = "Optional metrics endpoint polled once at startup"
	HelpConfigFile      = "Path to a YAML config file"
)
