package state

import "time"

// Task is one unit of work on the line, keyed by SubtaskID. At most one live
// entry per subtask id exists in the cache; later updates supersede in place.
type Task struct {
	TaskID    string     `json:"task_id"`
	SubtaskID string     `json:"subtask_id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	// Progress is stored as received, including values outside [0,1].
	Progress   float64 `json:"progress"`
	DeadlineMs int64   `json:"deadline_ms"`
	DurationS  float64 `json:"duration_s,omitempty"`
	ProductID  string  `json:"product_id,omitempty"`
}

// Active reports whether the task counts toward the active-task ratio.
func (t Task) Active() bool {
	return t.Status == TaskInProgress || t.Status == TaskWaitingConfirmation
}

// Warning is an immutable user-visible notice. IDs increase monotonically
// within a session.
type Warning struct {
	ID       int       `json:"id"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
	RuleID   string    `json:"rule_id,omitempty"`
	Details  string    `json:"details,omitempty"`
}

// SensorData is the single current environmental snapshot; replaced
// field-wise per telemetry message.
type SensorData struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	Power       float64   `json:"power"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Candy is one detected object in a vision frame.
type Candy struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}

// CandyDetection is the latest vision result; a new frame fully replaces it.
type CandyDetection struct {
	Candies []Candy   `json:"candies"`
	FrameID string    `json:"frame_id,omitempty"`
	At      time.Time `json:"at"`
}

// HandPoint is one tracked hand.
type HandPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Visible    bool    `json:"visible"`
}

// HandPosition is the latest hand-tracking result.
type HandPosition struct {
	Left  HandPoint `json:"left"`
	Right HandPoint `json:"right"`
	At    time.Time `json:"at"`
}

// GridCell addresses one cell of the projected work grid.
type GridCell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridActivity is the fixed grid geometry plus a bounded sliding window of
// recently active cells. It represents recent hot-spots, not history.
type GridActivity struct {
	Rows         int        `json:"rows"`
	Cols         int        `json:"cols"`
	Active       []GridCell `json:"active"`
	Confirmation *GridCell  `json:"confirmation,omitempty"`
}

// CompletedTask is one finished unit in the bounded completed-tasks log.
type CompletedTask struct {
	SubtaskID string    `json:"subtask_id"`
	Title     string    `json:"title,omitempty"`
	DurationS float64   `json:"duration_s,omitempty"`
	At        time.Time `json:"at"`
}

// TaskProgress pairs the mutable current-task map with the newest-first
// completed log.
type TaskProgress struct {
	Current   map[string]Task `json:"current"`
	Completed []CompletedTask `json:"completed"`
}

// Station is one node of the line network.
type Station struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Master  bool   `json:"master"`
}

// BLEConnection is one station-to-peer link, upserted by station id.
type BLEConnection struct {
	StationID string `json:"station_id"`
	PeerID    string `json:"peer_id"`
	RSSI      int    `json:"rssi"`
}

// Position is a station's placement on the floor plan.
type Position struct {
	StationID string  `json:"station_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// GraphEdge is one edge of the topology graph.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Neighbors is the network topology view. Stations and connections upsert by
// id; positions and edges are replaced wholesale per message.
type Neighbors struct {
	Stations    []Station                `json:"stations"`
	Connections map[string]BLEConnection `json:"connections"`
	Positions   []Position               `json:"positions"`
	Edges       []GraphEdge              `json:"edges"`
}

// ConnectionStatus mirrors the broker link. Counters are monotonic within a
// session and reset only on explicit reconnect.
type ConnectionStatus struct {
	Connected        bool             `json:"connected"`
	Health           ConnectionHealth `json:"health"`
	LastData         time.Time        `json:"last_data"`
	SubscribedTopics []string         `json:"subscribed_topics"`
	Messages         uint64           `json:"messages"`
	Errors           uint64           `json:"errors"`
}

// Metrics are the derived rolling indicators. DetectionRate, HandAccuracy
// and Efficiency are percentages in [0,100]; CompletionRate is the count of
// completions in the trailing window.
type Metrics struct {
	DetectionRate  float64 `json:"detection_rate"`
	HandAccuracy   float64 `json:"hand_accuracy"`
	CompletionRate float64 `json:"completion_rate"`
	Efficiency     float64 `json:"efficiency"`
}

// Snapshot is an immutable point-in-time copy of aggregator state. Consumers
// may hold it indefinitely; it never aliases live mutable state.
type Snapshot struct {
	Tasks        map[string]Task  `json:"tasks"`
	Warnings     []Warning        `json:"warnings"`
	Sensor       SensorData       `json:"sensor"`
	SystemStatus SystemStatus     `json:"system_status"`
	Detection    *CandyDetection  `json:"detection,omitempty"`
	Hand         *HandPosition    `json:"hand,omitempty"`
	Grid         GridActivity     `json:"grid"`
	Progress     TaskProgress     `json:"progress"`
	Neighbors    Neighbors        `json:"neighbors"`
	Connection   ConnectionStatus `json:"connection"`
	Metrics      Metrics          `json:"metrics"`
	At           time.Time        `json:"at"`
}
