package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/config"
)

// Config for the aggregator's bounds and metric tuning.
type Config struct {
	WarningLogCap    int
	CompletedLogCap  int
	GridWindowCap    int
	EventQueueCap    int
	DetectionWindow  time.Duration
	CompletionWindow time.Duration
	Weights          config.EfficiencyWeights
}

// ConfigFrom derives aggregator settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		WarningLogCap:    cfg.Limits.WarningLog,
		CompletedLogCap:  cfg.Limits.CompletedLog,
		GridWindowCap:    cfg.Limits.GridWindow,
		EventQueueCap:    cfg.Limits.EventQueue,
		DetectionWindow:  time.Duration(cfg.Metrics.DetectionWindowSeconds) * time.Second,
		CompletionWindow: time.Duration(cfg.Metrics.CompletionWindowSeconds) * time.Second,
		Weights:          cfg.Metrics.Weights,
	}
}

func DefaultConfig() Config {
	return Config{
		WarningLogCap:    config.DefaultLimitWarningLog,
		CompletedLogCap:  config.DefaultLimitCompletedLog,
		GridWindowCap:    config.DefaultLimitGridWindow,
		EventQueueCap:    config.DefaultLimitEventQueue,
		DetectionWindow:  config.DefaultMetricsDetectionWindowSeconds * time.Second,
		CompletionWindow: config.DefaultMetricsCompletionWindowSeconds * time.Second,
		Weights: config.EfficiencyWeights{
			ActiveTasks: config.DefaultMetricsWeightActiveTasks,
			Completion:  config.DefaultMetricsWeightCompletion,
			ErrorFree:   config.DefaultMetricsWeightErrorFree,
		},
	}
}

// Saturation points for the derived metrics: this many recent detections or
// window completions score 100%. Tuning values, not contracts.
const (
	detectionSaturation  = 10
	completionSaturation = 10
)

// Aggregator is the in-memory domain model. It owns every cache exclusively;
// consumers only ever see copies via Snapshot or subscription callbacks.
type Aggregator struct {
	mu    sync.RWMutex
	clock Clock
	cfg   Config
	log   *logrus.Logger

	// Entity caches
	tasks         map[string]Task
	warnings      []Warning // newest first, bounded by WarningLogCap
	nextWarningID int
	sensor        SensorData
	systemStatus  SystemStatus
	detection     *CandyDetection
	hand          *HandPosition
	grid          GridActivity
	currentTasks  map[string]Task
	completed     []CompletedTask // newest first, bounded by CompletedLogCap
	stations      []Station
	links         map[string]BLEConnection
	positions     []Position
	edges         []GraphEdge
	conn          ConnectionStatus

	// Rolling windows for derived metrics
	detectionTimes  []time.Time
	completionTimes []time.Time
	handAccuracy    float64

	// Seeded metrics are served until the first live data frame; live flips
	// once on the first touch and never back.
	seeded Metrics
	live   bool

	subscribers []func(Snapshot)

	// Control channels
	eventCh chan Event
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewAggregator creates an aggregator with the given clock (nil for real time).
func NewAggregator(clock Clock, cfg Config, log *logrus.Logger) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Aggregator{
		clock:         clock,
		cfg:           cfg,
		log:           log,
		tasks:         make(map[string]Task),
		currentTasks:  make(map[string]Task),
		links:         make(map[string]BLEConnection),
		systemStatus:  StatusOperational,
		conn:          ConnectionStatus{Health: HealthCritical},
		nextWarningID: 1,
		eventCh:       make(chan Event, cfg.EventQueueCap),
		done:          make(chan struct{}),
	}
}

// Start begins processing events until ctx is done or Stop is called.
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.processEvents(ctx)
}

// Stop gracefully shuts down the aggregator.
func (a *Aggregator) Stop() {
	close(a.done)
	a.wg.Wait()
}

// Publish enqueues an event without blocking. The hot path drops rather than
// stalls when the queue is full.
func (a *Aggregator) Publish(event Event) {
	select {
	case a.eventCh <- event:
	default:
	}
}

// Subscribe registers fn to receive a fresh snapshot after every applied
// event. Must be called before Start.
func (a *Aggregator) Subscribe(fn func(Snapshot)) {
	a.subscribers = append(a.subscribers, fn)
}

// Apply mutates state synchronously. Prefer Publish from ingest paths; Apply
// exists for seeding and deterministic tests.
func (a *Aggregator) Apply(event Event) {
	a.mu.Lock()
	a.handleEvent(event)
	a.mu.Unlock()
	a.notify()
}

func (a *Aggregator) processEvents(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case event := <-a.eventCh:
			a.mu.Lock()
			a.handleEvent(event)
			a.mu.Unlock()
			a.notify()
		}
	}
}

func (a *Aggregator) notify() {
	if len(a.subscribers) == 0 {
		return
	}
	snap := a.Snapshot()
	for _, fn := range a.subscribers {
		fn(snap)
	}
}

// handleEvent applies one classified event. Every branch is total: malformed
// fields were already coerced at the classification boundary, so nothing here
// can fail past the aggregator.
func (a *Aggregator) handleEvent(event Event) {
	switch e := event.(type) {
	case SystemStatusChanged:
		a.applySystemStatus(MapSystemStatus(e.RawStatus), e.Message, e.Timestamp())
		a.touch(e.Timestamp())

	case StateTransitioned:
		a.applySystemStatus(MapSystemStatus(e.To), "", e.Timestamp())
		a.touch(e.Timestamp())

	case TaskUpdated:
		a.upsertTask(e.Task)
		a.touch(e.Timestamp())

	case RuleEvaluated:
		if !e.Satisfied {
			a.addWarning(Warning{
				Severity: SeverityFromText(e.RuleID + " " + e.Details),
				Message:  ruleMessage(e),
				At:       e.Timestamp(),
				RuleID:   e.RuleID,
				Details:  e.Details,
			})
		}
		a.touch(e.Timestamp())

	case CandyDetected:
		det := e.Detection
		a.detection = &det
		a.detectionTimes = appendPruned(a.detectionTimes, e.Timestamp(), a.cfg.DetectionWindow)
		a.touch(e.Timestamp())

	case HandTracked:
		hand := e.Hand
		a.hand = &hand
		a.handAccuracy = maxFloat(hand.Left.Confidence, hand.Right.Confidence) * 100
		a.touch(e.Timestamp())

	case TasksAssigned:
		a.applyAssignment(e)
		a.touch(e.Timestamp())

	case TelemetryReported:
		a.applyTelemetry(e)
		a.touch(e.Timestamp())

	case TaskFinished:
		a.applyCompletion(e.Completed)
		a.touch(e.Timestamp())

	case NeighborsUpdated:
		a.stations = e.Stations
		for _, link := range e.Connections {
			a.links[link.StationID] = link
		}
		a.touch(e.Timestamp())

	case StationReported:
		a.upsertStation(e.Station)
		for _, link := range e.Links {
			a.links[link.StationID] = link
		}
		a.touch(e.Timestamp())

	case TopologyUpdated:
		if e.HasPos {
			a.positions = e.Positions
		}
		if e.HasEdges {
			a.edges = e.Edges
		}
		a.touch(e.Timestamp())

	case ConnectionChanged:
		a.conn.Connected = e.Connected
		a.conn.Health = e.Health
		a.conn.SubscribedTopics = e.Topics
		a.conn.Messages = e.Messages
		a.conn.Errors = e.Errors

	case WarningRaised:
		a.addWarning(Warning{
			Severity: e.Severity,
			Message:  e.Message,
			At:       e.Timestamp(),
			RuleID:   e.RuleID,
			Details:  e.Details,
		})

	default:
		// Unknown event kinds are ignored, never fatal.
		a.log.WithField("event_type", event.EventType()).Debug("ignoring unhandled event kind")
	}
}

func (a *Aggregator) applySystemStatus(status SystemStatus, message string, at time.Time) {
	prev := a.systemStatus
	a.systemStatus = status
	if status == StatusOperational || status == prev || message == "" {
		return
	}
	severity := SeverityMedium
	if status == StatusCritical {
		severity = SeverityHigh
	}
	a.addWarning(Warning{Severity: severity, Message: message, At: at})
}

func (a *Aggregator) upsertTask(task Task) {
	key := task.SubtaskID
	if key == "" {
		key = task.TaskID
	}
	if key == "" {
		return
	}
	a.tasks[key] = task
}

func (a *Aggregator) addWarning(w Warning) {
	w.ID = a.nextWarningID
	a.nextWarningID++
	a.warnings = append([]Warning{w}, a.warnings...)
	if len(a.warnings) > a.cfg.WarningLogCap {
		a.warnings = a.warnings[:a.cfg.WarningLogCap]
	}
}

func (a *Aggregator) applyAssignment(e TasksAssigned) {
	if e.Rows > 0 {
		a.grid.Rows = e.Rows
	}
	if e.Cols > 0 {
		a.grid.Cols = e.Cols
	}
	for _, cell := range e.ActiveCells {
		a.activateCell(cell)
	}
	if e.Confirmation != nil {
		cell := *e.Confirmation
		a.grid.Confirmation = &cell
	}
	for _, task := range e.Current {
		if task.SubtaskID != "" {
			a.currentTasks[task.SubtaskID] = task
		}
	}
}

// activateCell inserts a cell into the bounded activity window, evicting the
// oldest entry past capacity. Already-present cells are left in place.
func (a *Aggregator) activateCell(cell GridCell) {
	for _, c := range a.grid.Active {
		if c == cell {
			return
		}
	}
	a.grid.Active = append(a.grid.Active, cell)
	if len(a.grid.Active) > a.cfg.GridWindowCap {
		a.grid.Active = a.grid.Active[len(a.grid.Active)-a.cfg.GridWindowCap:]
	}
}

func (a *Aggregator) applyTelemetry(e TelemetryReported) {
	if e.Temperature != nil {
		a.sensor.Temperature = *e.Temperature
	}
	if e.Humidity != nil {
		a.sensor.Humidity = *e.Humidity
	}
	if e.Pressure != nil {
		a.sensor.Pressure = *e.Pressure
	}
	if e.Power != nil {
		a.sensor.Power = *e.Power
	}
	a.sensor.UpdatedAt = e.Timestamp()
}

func (a *Aggregator) applyCompletion(done CompletedTask) {
	a.completed = append([]CompletedTask{done}, a.completed...)
	if len(a.completed) > a.cfg.CompletedLogCap {
		a.completed = a.completed[:a.cfg.CompletedLogCap]
	}
	a.completionTimes = appendPruned(a.completionTimes, done.At, a.cfg.CompletionWindow)

	if done.SubtaskID != "" {
		if task, ok := a.tasks[done.SubtaskID]; ok {
			task.Status = TaskCompleted
			a.tasks[done.SubtaskID] = task
		}
		delete(a.currentTasks, done.SubtaskID)
	}
}

func (a *Aggregator) upsertStation(station Station) {
	for i, s := range a.stations {
		if s.ID == station.ID {
			if station.Name == "" {
				station.Name = s.Name
			}
			if station.Version == "" {
				station.Version = s.Version
			}
			a.stations[i] = station
			return
		}
	}
	a.stations = append(a.stations, station)
}

// touch records data arrival. Connection and warning events do not touch:
// seeded metrics must survive transport chatter until real line data flows.
func (a *Aggregator) touch(at time.Time) {
	a.live = true
	if at.After(a.conn.LastData) {
		a.conn.LastData = at
	}
}

func ruleMessage(e RuleEvaluated) string {
	if e.Details != "" {
		return e.Details
	}
	return fmt.Sprintf("rule %s violated", e.RuleID)
}

func appendPruned(times []time.Time, at time.Time, window time.Duration) []time.Time {
	cutoff := at.Add(-window)
	for len(times) > 0 && times[0].Before(cutoff) {
		times = times[1:]
	}
	return append(times, at)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
