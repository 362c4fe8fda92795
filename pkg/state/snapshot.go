package state

import "time"

// Snapshot returns a deep copy of the full aggregator state. Derived rates
// are computed against the current clock, so repeated calls during silence
// observe detection rate draining as the trailing window empties.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := a.clock.Now()

	tasks := make(map[string]Task, len(a.tasks))
	for k, v := range a.tasks {
		tasks[k] = v
	}
	current := make(map[string]Task, len(a.currentTasks))
	for k, v := range a.currentTasks {
		current[k] = v
	}
	links := make(map[string]BLEConnection, len(a.links))
	for k, v := range a.links {
		links[k] = v
	}

	snap := Snapshot{
		Tasks:        tasks,
		Warnings:     append([]Warning(nil), a.warnings...),
		Sensor:       a.sensor,
		SystemStatus: a.systemStatus,
		Grid: GridActivity{
			Rows:   a.grid.Rows,
			Cols:   a.grid.Cols,
			Active: append([]GridCell(nil), a.grid.Active...),
		},
		Progress: TaskProgress{
			Current:   current,
			Completed: append([]CompletedTask(nil), a.completed...),
		},
		Neighbors: Neighbors{
			Stations:    append([]Station(nil), a.stations...),
			Connections: links,
			Positions:   append([]Position(nil), a.positions...),
			Edges:       append([]GraphEdge(nil), a.edges...),
		},
		Connection: a.conn,
		Metrics:    a.computeMetrics(now),
		At:         now,
	}
	snap.Connection.SubscribedTopics = append([]string(nil), a.conn.SubscribedTopics...)

	if a.detection != nil {
		det := *a.detection
		det.Candies = append([]Candy(nil), a.detection.Candies...)
		snap.Detection = &det
	}
	if a.hand != nil {
		hand := *a.hand
		snap.Hand = &hand
	}
	if a.grid.Confirmation != nil {
		cell := *a.grid.Confirmation
		snap.Grid.Confirmation = &cell
	}
	return snap
}

// Seed installs a starting snapshot, typically defaults or a one-shot REST
// fetch, so consumers have something to render before broker data arrives.
func (a *Aggregator) Seed(snap Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for k, v := range snap.Tasks {
		a.tasks[k] = v
	}
	for k, v := range snap.Progress.Current {
		a.currentTasks[k] = v
	}
	a.sensor = snap.Sensor
	a.systemStatus = snap.SystemStatus
	if snap.Grid.Rows > 0 {
		a.grid.Rows = snap.Grid.Rows
		a.grid.Cols = snap.Grid.Cols
	}
	a.stations = append(a.stations, snap.Neighbors.Stations...)
	for k, v := range snap.Neighbors.Connections {
		a.links[k] = v
	}
	a.positions = snap.Neighbors.Positions
	a.edges = snap.Neighbors.Edges
	// Fetched metrics are served whole until live data replaces them; hand
	// accuracy additionally carries into the live computation.
	a.seeded = snap.Metrics
	a.handAccuracy = snap.Metrics.HandAccuracy
}

func countAfter(times []time.Time, cutoff time.Time) int {
	count := 0
	for _, t := range times {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}
