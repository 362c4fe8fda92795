// Package seed provides the fallback state consumers render before (or
// without) live broker data, plus a one-shot fetch of a metrics endpoint
// at startup.
package seed

import "line-monitor/pkg/state"

// DefaultSnapshot is the mock state used when no broker or metrics endpoint
// is reachable. It keeps every view renderable: a plausible grid, nominal
// sensor readings, and an empty but valid task set.
func DefaultSnapshot() state.Snapshot {
	return state.Snapshot{
		Tasks:        map[string]state.Task{},
		SystemStatus: state.StatusOperational,
		Sensor: state.SensorData{
			Temperature: 21.5,
			Humidity:    45.0,
			Pressure:    1013.0,
			Power:       0.0,
		},
		Grid: state.GridActivity{Rows: 3, Cols: 4},
		Progress: state.TaskProgress{
			Current: map[string]state.Task{},
		},
		Neighbors: state.Neighbors{
			Connections: map[string]state.BLEConnection{},
		},
		Connection: state.ConnectionStatus{
			Health: state.HealthCritical,
		},
	}
}
