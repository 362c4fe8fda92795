package state

import "time"

// computeMetrics derives the rolling indicators from current cache contents.
// Pure with respect to the caches: callers hold at least the read lock.
func (a *Aggregator) computeMetrics(now time.Time) Metrics {
	// Before any live frame the seeded metrics (defaults or the startup
	// fetch) are authoritative; computing from empty windows would zero them.
	if !a.live {
		return a.seeded
	}

	detections := countAfter(a.detectionTimes, now.Add(-a.cfg.DetectionWindow))
	completions := countAfter(a.completionTimes, now.Add(-a.cfg.CompletionWindow))

	detectionRate := float64(detections) / detectionSaturation * 100
	if detectionRate > 100 {
		detectionRate = 100
	}

	return Metrics{
		DetectionRate:  detectionRate,
		HandAccuracy:   a.handAccuracy,
		CompletionRate: float64(completions),
		Efficiency:     a.efficiency(completions),
	}
}

// efficiency blends active-task ratio, completion rate, and inverse error
// rate through the configured weights. Higher completions and fewer errors
// push it up; the exact coefficients are tuning, not contract.
func (a *Aggregator) efficiency(completions int) float64 {
	w := a.cfg.Weights
	total := w.ActiveTasks + w.Completion + w.ErrorFree
	if total == 0 {
		return 0
	}

	active := 0
	for _, task := range a.tasks {
		if task.Active() {
			active++
		}
	}
	activeRatio := 0.0
	if len(a.tasks) > 0 {
		activeRatio = float64(active) / float64(len(a.tasks))
	}

	completionScore := float64(completions) / completionSaturation
	if completionScore > 1 {
		completionScore = 1
	}

	errorFree := 1.0
	if a.conn.Messages > 0 {
		ratio := float64(a.conn.Errors) / float64(a.conn.Messages)
		if ratio > 1 {
			ratio = 1
		}
		errorFree = 1 - ratio
	}

	blend := w.ActiveTasks*activeRatio + w.Completion*completionScore + w.ErrorFree*errorFree
	return blend / total * 100
}
