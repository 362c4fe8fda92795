package state

import "time"

// Event is one classified domain event. Every inbound payload either becomes
// exactly one Event or is dropped by the classifier; the aggregator dispatches
// on the concrete type in a single switch.
type Event interface {
	Timestamp() time.Time // When the event occurred (wire timestamp if present)
	EventType() string    // For categorization/filtering
}

type SystemStatusChanged struct {
	timestamp time.Time
	RawStatus string
	Message   string
}

func (e SystemStatusChanged) Timestamp() time.Time { return e.timestamp }
func (e SystemStatusChanged) EventType() string    { return "system_status" }

func NewSystemStatusChanged(at time.Time, rawStatus, message string) SystemStatusChanged {
	return SystemStatusChanged{timestamp: at, RawStatus: rawStatus, Message: message}
}

type TaskUpdated struct {
	timestamp time.Time
	Task      Task
}

func (e TaskUpdated) Timestamp() time.Time { return e.timestamp }
func (e TaskUpdated) EventType() string    { return "task_update" }

func NewTaskUpdated(at time.Time, task Task) TaskUpdated {
	return TaskUpdated{timestamp: at, Task: task}
}

type RuleEvaluated struct {
	timestamp time.Time
	RuleID    string
	Satisfied bool
	Details   string
}

func (e RuleEvaluated) Timestamp() time.Time { return e.timestamp }
func (e RuleEvaluated) EventType() string    { return "rule_evaluation" }

func NewRuleEvaluated(at time.Time, ruleID string, satisfied bool, details string) RuleEvaluated {
	return RuleEvaluated{timestamp: at, RuleID: ruleID, Satisfied: satisfied, Details: details}
}

type StateTransitioned struct {
	timestamp time.Time
	From      string
	To        string
}

func (e StateTransitioned) Timestamp() time.Time { return e.timestamp }
func (e StateTransitioned) EventType() string    { return "state_transition" }

func NewStateTransitioned(at time.Time, from, to string) StateTransitioned {
	return StateTransitioned{timestamp: at, From: from, To: to}
}

type CandyDetected struct {
	timestamp time.Time
	Detection CandyDetection
}

func (e CandyDetected) Timestamp() time.Time { return e.timestamp }
func (e CandyDetected) EventType() string    { return "vision_detection" }

func NewCandyDetected(at time.Time, detection CandyDetection) CandyDetected {
	return CandyDetected{timestamp: at, Detection: detection}
}

type HandTracked struct {
	timestamp time.Time
	Hand      HandPosition
}

func (e HandTracked) Timestamp() time.Time { return e.timestamp }
func (e HandTracked) EventType() string    { return "hand_position" }

func NewHandTracked(at time.Time, hand HandPosition) HandTracked {
	return HandTracked{timestamp: at, Hand: hand}
}

// TasksAssigned carries a task-assignment message: grid geometry, newly
// active cells, the confirmation cell, and the current task set. Any part may
// be absent.
type TasksAssigned struct {
	timestamp    time.Time
	Rows         int
	Cols         int
	ActiveCells  []GridCell
	Confirmation *GridCell
	Current      []Task
}

func (e TasksAssigned) Timestamp() time.Time { return e.timestamp }
func (e TasksAssigned) EventType() string    { return "task_assignment" }

type NeighborsUpdated struct {
	timestamp   time.Time
	Stations    []Station
	Connections []BLEConnection
}

func (e NeighborsUpdated) Timestamp() time.Time { return e.timestamp }
func (e NeighborsUpdated) EventType() string    { return "neighbor_topology" }

// StationReported is a per-station wildcard-topic message: a neighbor list,
// version report, or master declaration for one station.
type StationReported struct {
	timestamp time.Time
	Station   Station
	Links     []BLEConnection
}

func (e StationReported) Timestamp() time.Time { return e.timestamp }
func (e StationReported) EventType() string    { return "station_report" }

// TopologyUpdated replaces floor positions and/or graph edges wholesale.
type TopologyUpdated struct {
	timestamp time.Time
	Positions []Position
	Edges     []GraphEdge
	HasPos    bool
	HasEdges  bool
}

func (e TopologyUpdated) Timestamp() time.Time { return e.timestamp }
func (e TopologyUpdated) EventType() string    { return "topology" }

// TelemetryReported carries environmental sensor readings. Each field is
// optional; absent fields leave the previous value in place.
type TelemetryReported struct {
	timestamp   time.Time
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
	Power       *float64
}

func (e TelemetryReported) Timestamp() time.Time { return e.timestamp }
func (e TelemetryReported) EventType() string    { return "telemetry" }

type TaskFinished struct {
	timestamp time.Time
	Completed CompletedTask
}

func (e TaskFinished) Timestamp() time.Time { return e.timestamp }
func (e TaskFinished) EventType() string    { return "task_completed" }

func NewTaskFinished(at time.Time, completed CompletedTask) TaskFinished {
	return TaskFinished{timestamp: at, Completed: completed}
}

// ConnectionChanged is emitted by the ingest layer, not classified from a
// topic. It mirrors transport state into the snapshot.
type ConnectionChanged struct {
	timestamp time.Time
	Connected bool
	Health    ConnectionHealth
	Topics    []string
	Messages  uint64
	Errors    uint64
}

func (e ConnectionChanged) Timestamp() time.Time { return e.timestamp }
func (e ConnectionChanged) EventType() string    { return "connection" }

func NewConnectionChanged(at time.Time, connected bool, health ConnectionHealth, topics []string, messages, errors uint64) ConnectionChanged {
	return ConnectionChanged{timestamp: at, Connected: connected, Health: health, Topics: topics, Messages: messages, Errors: errors}
}

// WarningRaised injects a synthesized Warning directly, bypassing
// classification. Used for transport failures surfaced as user-visible
// warnings (reconnect exhaustion) and informational notices.
type WarningRaised struct {
	timestamp time.Time
	Severity  Severity
	Message   string
	RuleID    string
	Details   string
}

func (e WarningRaised) Timestamp() time.Time { return e.timestamp }
func (e WarningRaised) EventType() string    { return "warning" }

func NewWarningRaised(at time.Time, severity Severity, message string) WarningRaised {
	return WarningRaised{timestamp: at, Severity: severity, Message: message}
}
