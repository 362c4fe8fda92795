package state

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"line-monitor/pkg/config"
)

// ErrUnrecognized marks a payload whose topic/shape combination matches no
// known event kind. Callers count and drop it; it is never fatal.
var ErrUnrecognized = errors.New("unrecognized topic/shape")

// Classifier turns raw (topic, payload) pairs into typed domain events.
// The topic is the primary hint; within multiplexed topics the payload shape
// decides. Decoding is defensive throughout: wrong-typed or missing fields
// coerce to zero values or drop the message, they never panic.
type Classifier struct {
	topics config.TopicConfig
	clock  Clock
}

func NewClassifier(topics config.TopicConfig, clock Clock) *Classifier {
	if clock == nil {
		clock = RealClock{}
	}
	return &Classifier{topics: topics, clock: clock}
}

// Classify decodes payload and selects the event kind for topic.
// Returns ErrUnrecognized when no kind matches.
func (c *Classifier) Classify(topic string, payload []byte) (Event, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}
	at := c.eventTime(obj)

	switch {
	case topicMatches(c.topics.Management, topic):
		return c.classifyManagement(at, obj)
	case topicMatches(c.topics.Projector, topic), topicMatches(c.topics.TaskAssign, topic):
		return c.classifyAssignment(at, obj), nil
	case topicMatches(c.topics.Telemetry, topic):
		return c.classifyTelemetry(at, obj)
	case topicMatches(c.topics.Detection, topic):
		return NewCandyDetected(at, decodeDetection(at, obj)), nil
	case topicMatches(c.topics.Hand, topic):
		return NewHandTracked(at, decodeHand(at, obj)), nil
	case topicMatches(c.topics.NeighborsUpdate, topic):
		return c.classifyNeighbors(at, obj), nil
	case topicMatches(c.topics.StationNeighbors, topic),
		topicMatches(c.topics.StationVersion, topic),
		topicMatches(c.topics.StationMaster, topic):
		return c.classifyStation(at, topic, obj), nil
	case topicMatches(c.topics.TopologyPositions, topic):
		return TopologyUpdated{timestamp: at, Positions: decodePositions(obj), HasPos: true}, nil
	case topicMatches(c.topics.TopologyGraph, topic):
		return TopologyUpdated{timestamp: at, Edges: decodeEdges(obj), HasEdges: true}, nil
	default:
		return nil, ErrUnrecognized
	}
}

// classifyManagement demultiplexes the management topic by the "type"
// discriminator, falling back to field-shape sniffing for senders that omit it.
func (c *Classifier) classifyManagement(at time.Time, obj map[string]interface{}) (Event, error) {
	switch getString(obj, "type") {
	case "system_status", "status":
		return NewSystemStatusChanged(at, getString(obj, "status"), getString(obj, "message")), nil
	case "task_update":
		return NewTaskUpdated(at, decodeTask(obj)), nil
	case "rule_evaluation":
		return NewRuleEvaluated(at, getString(obj, "rule_id"), getBool(obj, "satisfied"), getString(obj, "details")), nil
	case "state_transition":
		return NewStateTransitioned(at, getString(obj, "from"), getString(obj, "to")), nil
	}

	// No discriminator: sniff by distinguishing fields.
	if _, ok := obj["satisfied"]; ok {
		return NewRuleEvaluated(at, getString(obj, "rule_id"), getBool(obj, "satisfied"), getString(obj, "details")), nil
	}
	if _, ok := obj["subtask_id"]; ok {
		return NewTaskUpdated(at, decodeTask(obj)), nil
	}
	if _, ok := obj["status"]; ok {
		return NewSystemStatusChanged(at, getString(obj, "status"), getString(obj, "message")), nil
	}
	return nil, ErrUnrecognized
}

func (c *Classifier) classifyAssignment(at time.Time, obj map[string]interface{}) Event {
	ev := TasksAssigned{
		timestamp: at,
		Rows:      getInt(obj, "rows"),
		Cols:      getInt(obj, "cols"),
	}
	for _, raw := range getSlice(obj, "active_cells") {
		if cell, ok := decodeCell(raw); ok {
			ev.ActiveCells = append(ev.ActiveCells, cell)
		}
	}
	if raw, ok := obj["confirmation_cell"]; ok {
		if cell, ok := decodeCell(raw); ok {
			ev.Confirmation = &cell
		}
	}
	for _, raw := range getSlice(obj, "current_tasks") {
		if m, ok := raw.(map[string]interface{}); ok {
			ev.Current = append(ev.Current, decodeTask(m))
		}
	}
	return ev
}

func (c *Classifier) classifyTelemetry(at time.Time, obj map[string]interface{}) (Event, error) {
	if getString(obj, "type") == "task_completed" || hasKey(obj, "completed_task") {
		body := obj
		if m, ok := obj["completed_task"].(map[string]interface{}); ok {
			body = m
		}
		return NewTaskFinished(at, CompletedTask{
			SubtaskID: getString(body, "subtask_id"),
			Title:     getString(body, "title"),
			DurationS: getFloat(body, "duration"),
			At:        at,
		}), nil
	}

	ev := TelemetryReported{timestamp: at}
	found := false
	if v, ok := getFloatOk(obj, "temperature"); ok {
		ev.Temperature, found = &v, true
	}
	if v, ok := getFloatOk(obj, "humidity"); ok {
		ev.Humidity, found = &v, true
	}
	if v, ok := getFloatOk(obj, "pressure"); ok {
		ev.Pressure, found = &v, true
	}
	if v, ok := getFloatOk(obj, "power"); ok {
		ev.Power, found = &v, true
	}
	if !found {
		return nil, ErrUnrecognized
	}
	return ev, nil
}

func (c *Classifier) classifyNeighbors(at time.Time, obj map[string]interface{}) Event {
	ev := NeighborsUpdated{timestamp: at}
	for _, raw := range getSlice(obj, "stations") {
		if m, ok := raw.(map[string]interface{}); ok {
			ev.Stations = append(ev.Stations, decodeStation(m))
		}
	}
	for _, raw := range getSlice(obj, "connections") {
		if m, ok := raw.(map[string]interface{}); ok {
			ev.Connections = append(ev.Connections, decodeLink(m))
		}
	}
	return ev
}

func (c *Classifier) classifyStation(at time.Time, topic string, obj map[string]interface{}) Event {
	station := Station{ID: stationFromTopic(topic)}
	if station.ID == "" {
		station.ID = getString(obj, "station_id")
	}
	station.Name = getString(obj, "name")
	station.Version = getString(obj, "version")
	station.Master = getBool(obj, "master")

	ev := StationReported{timestamp: at, Station: station}
	for _, raw := range getSlice(obj, "neighbors") {
		if m, ok := raw.(map[string]interface{}); ok {
			link := decodeLink(m)
			if link.StationID == "" {
				link.StationID = station.ID
			}
			ev.Links = append(ev.Links, link)
		}
	}
	return ev
}

// eventTime prefers the wire timestamp (epoch millis) and falls back to the
// local clock when it is absent or unusable.
func (c *Classifier) eventTime(obj map[string]interface{}) time.Time {
	if ms, ok := getFloatOk(obj, "timestamp"); ok && ms > 0 {
		return time.UnixMilli(int64(ms))
	}
	return c.clock.Now()
}

// stationFromTopic extracts the station id from topics shaped station/<id>/x.
func stationFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 && parts[0] == "station" {
		return parts[1]
	}
	return ""
}

// topicMatches implements MQTT filter matching: "+" matches one level, "#"
// matches the remainder.
func topicMatches(filter, topic string) bool {
	if filter == "" {
		return false
	}
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if f != "+" && f != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}
