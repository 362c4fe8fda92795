package state

import "time"

// Coercing accessors over generically decoded JSON. Every helper is total:
// a missing key or wrong-typed value yields the zero value, never a panic.

func getString(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func getBool(obj map[string]interface{}, key string) bool {
	if v, ok := obj[key].(bool); ok {
		return v
	}
	return false
}

func getFloat(obj map[string]interface{}, key string) float64 {
	v, _ := getFloatOk(obj, key)
	return v
}

func getFloatOk(obj map[string]interface{}, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func getInt(obj map[string]interface{}, key string) int {
	v, _ := getFloatOk(obj, key)
	return int(v)
}

func getSlice(obj map[string]interface{}, key string) []interface{} {
	if v, ok := obj[key].([]interface{}); ok {
		return v
	}
	return nil
}

func hasKey(obj map[string]interface{}, key string) bool {
	_, ok := obj[key]
	return ok
}

func decodeTask(obj map[string]interface{}) Task {
	return Task{
		TaskID:     getString(obj, "task_id"),
		SubtaskID:  getString(obj, "subtask_id"),
		Title:      getString(obj, "title"),
		Status:     MapTaskStatus(getString(obj, "status")),
		Progress:   getFloat(obj, "progress"),
		DeadlineMs: int64(getFloat(obj, "deadline")),
		DurationS:  getFloat(obj, "duration"),
		ProductID:  getString(obj, "product_id"),
	}
}

func decodeCell(raw interface{}) (GridCell, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return GridCell{}, false
	}
	if !hasKey(m, "row") || !hasKey(m, "col") {
		return GridCell{}, false
	}
	return GridCell{Row: getInt(m, "row"), Col: getInt(m, "col")}, true
}

func decodeDetection(at time.Time, obj map[string]interface{}) CandyDetection {
	det := CandyDetection{FrameID: getString(obj, "frame_id"), At: at}
	for _, raw := range getSlice(obj, "candies") {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		candy := Candy{
			Class:      getString(m, "class"),
			Confidence: getFloat(m, "confidence"),
		}
		if box := getSlice(m, "box"); len(box) == 4 {
			for i, b := range box {
				if f, ok := b.(float64); ok {
					candy.Box[i] = f
				}
			}
		}
		det.Candies = append(det.Candies, candy)
	}
	return det
}

func decodeHand(at time.Time, obj map[string]interface{}) HandPosition {
	hand := HandPosition{At: at}
	if m, ok := obj["left"].(map[string]interface{}); ok {
		hand.Left = decodeHandPoint(m)
	}
	if m, ok := obj["right"].(map[string]interface{}); ok {
		hand.Right = decodeHandPoint(m)
	}
	return hand
}

func decodeHandPoint(m map[string]interface{}) HandPoint {
	return HandPoint{
		X:          getFloat(m, "x"),
		Y:          getFloat(m, "y"),
		Confidence: getFloat(m, "confidence"),
		Visible:    true,
	}
}

func decodeStation(m map[string]interface{}) Station {
	return Station{
		ID:      getString(m, "id"),
		Name:    getString(m, "name"),
		Version: getString(m, "version"),
		Master:  getBool(m, "master"),
	}
}

func decodeLink(m map[string]interface{}) BLEConnection {
	return BLEConnection{
		StationID: getString(m, "station_id"),
		PeerID:    getString(m, "peer_id"),
		RSSI:      getInt(m, "rssi"),
	}
}

func decodePositions(obj map[string]interface{}) []Position {
	var positions []Position
	for _, raw := range getSlice(obj, "positions") {
		if m, ok := raw.(map[string]interface{}); ok {
			positions = append(positions, Position{
				StationID: getString(m, "station_id"),
				X:         getFloat(m, "x"),
				Y:         getFloat(m, "y"),
			})
		}
	}
	return positions
}

func decodeEdges(obj map[string]interface{}) []GraphEdge {
	var edges []GraphEdge
	for _, raw := range getSlice(obj, "edges") {
		if m, ok := raw.(map[string]interface{}); ok {
			edges = append(edges, GraphEdge{From: getString(m, "from"), To: getString(m, "to")})
		}
	}
	return edges
}
