package state

import "strings"

// SystemStatus is the overall line state shown to consumers.
type SystemStatus string

const (
	StatusOperational SystemStatus = "operational"
	StatusWarning     SystemStatus = "warning"
	StatusCritical    SystemStatus = "critical"
)

// MapSystemStatus maps a raw status token from the line controller to a
// SystemStatus. Unmapped tokens land on Warning so an unknown state is
// visible rather than silently treated as fine.
func MapSystemStatus(token string) SystemStatus {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "operational", "running", "active", "idle":
		return StatusOperational
	case "cleaning", "maintenance", "paused", "waiting_confirmation":
		return StatusWarning
	case "error", "fault", "emergency_stop", "critical":
		return StatusCritical
	default:
		return StatusWarning
	}
}

// Severity of a Warning entry.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// highKeywords and mediumKeywords drive SeverityFromText. This is a
// heuristic over free-form rule text, not a guarantee.
var (
	highKeywords   = []string{"critical", "error", "failed"}
	mediumKeywords = []string{"warning", "anomaly", "confirmation"}
)

// SeverityFromText derives a severity by scanning rule id and details text
// for a small fixed vocabulary.
func SeverityFromText(text string) Severity {
	lower := strings.ToLower(text)
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return SeverityMedium
		}
	}
	return SeverityLow
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending             TaskStatus = "pending"
	TaskInProgress          TaskStatus = "in_progress"
	TaskWaitingConfirmation TaskStatus = "waiting_confirmation"
	TaskCompleted           TaskStatus = "completed"
	TaskFailed              TaskStatus = "failed"
)

// MapTaskStatus maps a raw task status string to a TaskStatus. Anything
// unrecognized defaults to pending.
func MapTaskStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "started", "in_progress", "in-progress":
		return TaskInProgress
	case "waiting_confirmation":
		return TaskWaitingConfirmation
	case "completed":
		return TaskCompleted
	case "failed":
		return TaskFailed
	default:
		return TaskPending
	}
}

// ConnectionHealth is the tri-state broker connection indicator. Degraded
// but alive is distinguishable from fully down.
type ConnectionHealth string

const (
	HealthHealthy  ConnectionHealth = "healthy"
	HealthWarning  ConnectionHealth = "warning"
	HealthCritical ConnectionHealth = "critical"
)
