package ingest

import (
	"time"

	"line-monitor/pkg/state"
)

// Health classification thresholds relative to the heartbeat interval and
// the session error ratio.
const (
	staleWarnFactor     = 1
	staleCriticalFactor = 3
	errorRatioWarn      = 0.1
	errorRatioCritical  = 0.5
)

// healthLoop periodically re-evaluates connection health from "time since
// last data" and the error ratio. A critical result while nominally
// connected forces a reconnect; this is the only self-directed control flow
// in the manager.
func (m *Manager) healthLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.Network.HeartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.checkHealth()
		}
	}
}

func (m *Manager) checkHealth() {
	m.mu.Lock()
	now := m.clock.Now()
	next := classifyHealth(m.connected, now.Sub(m.lastData), m.cfg.Network.HeartbeatInterval(), m.messages, m.errors)
	m.health = next
	connected := m.connected
	m.mu.Unlock()

	// Emit every tick, not only on transitions: the connection event is the
	// sole path keeping snapshot message/error counters current.
	m.emitConnection()
	if next == state.HealthCritical && connected {
		m.forceReconnect()
	}
}

// classifyHealth maps connection signals to the tri-state indicator.
// Degraded-but-alive (stale data, elevated errors) is distinguishable from
// fully critical.
func classifyHealth(connected bool, sinceData, heartbeat time.Duration, messages, errors uint64) state.ConnectionHealth {
	if !connected {
		return state.HealthCritical
	}
	if sinceData > time.Duration(staleCriticalFactor)*heartbeat {
		return state.HealthCritical
	}
	errorRatio := 0.0
	if messages > 0 {
		errorRatio = float64(errors) / float64(messages)
	}
	if errorRatio > errorRatioCritical {
		return state.HealthCritical
	}
	if sinceData > time.Duration(staleWarnFactor)*heartbeat || errorRatio > errorRatioWarn {
		return state.HealthWarning
	}
	return state.HealthHealthy
}
