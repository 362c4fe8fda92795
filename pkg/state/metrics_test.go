package state

import (
	"testing"
	"time"
)

func TestMetrics_DetectionRateBurstThenDecay(t *testing.T) {
	clock := &MockClock{current: time.Unix(1700000000, 0)}
	agg := newTestAggregator(clock)

	// Burst: 10 detection messages within one second.
	for i := 0; i < 10; i++ {
		clock.Advance(100 * time.Millisecond)
		agg.Apply(NewCandyDetected(clock.Now(), CandyDetection{At: clock.Now()}))
	}

	burst := agg.Snapshot().Metrics.DetectionRate
	if burst != 100 {
		t.Fatalf("expected saturated detection rate 100 after burst, got %v", burst)
	}

	// Silence: the rate must be monotonically non-increasing as the trailing
	// window drains.
	prev := burst
	for i := 0; i < 8; i++ {
		clock.Advance(10 * time.Second)
		rate := agg.Snapshot().Metrics.DetectionRate
		if rate > prev {
			t.Fatalf("detection rate increased during silence: %v -> %v", prev, rate)
		}
		prev = rate
	}
	if prev != 0 {
		t.Errorf("expected detection rate to drain to 0 after the window, got %v", prev)
	}
}

func TestMetrics_HandAccuracyFromMaxConfidence(t *testing.T) {
	clock := &MockClock{current: time.Unix(1700000000, 0)}
	agg := newTestAggregator(clock)

	agg.Apply(NewHandTracked(clock.Now(), HandPosition{
		Left:  HandPoint{Confidence: 0.42, Visible: true},
		Right: HandPoint{Confidence: 0.87, Visible: true},
	}))

	if got := agg.Snapshot().Metrics.HandAccuracy; got != 87 {
		t.Errorf("expected hand accuracy 87 (max of left/right x100), got %v", got)
	}
}

func TestMetrics_CompletionRateTrailingWindow(t *testing.T) {
	clock := &MockClock{current: time.Unix(1700000000, 0)}
	agg := newTestAggregator(clock)

	// Three completions, then push two of them out of the 1-hour window.
	for i := 0; i < 3; i++ {
		agg.Apply(NewTaskFinished(clock.Now(), CompletedTask{SubtaskID: "s", At: clock.Now()}))
		clock.Advance(10 * time.Minute)
	}
	if got := agg.Snapshot().Metrics.CompletionRate; got != 3 {
		t.Fatalf("expected 3 completions in window, got %v", got)
	}

	clock.Advance(45 * time.Minute)
	if got := agg.Snapshot().Metrics.CompletionRate; got != 1 {
		t.Errorf("expected 1 completion left in trailing hour, got %v", got)
	}
}

func TestMetrics_SeededValuesHoldUntilLiveData(t *testing.T) {
	clock := &MockClock{current: time.Unix(1700000000, 0)}
	agg := newTestAggregator(clock)

	seeded := Metrics{DetectionRate: 73.5, HandAccuracy: 55, CompletionRate: 4, Efficiency: 81.2}
	agg.Seed(Snapshot{Metrics: seeded})

	if got := agg.Snapshot().Metrics; got != seeded {
		t.Fatalf("expected seeded metrics returned verbatim, got %+v", got)
	}

	// Transport chatter is not line data; seeded metrics must survive it.
	agg.Apply(NewConnectionChanged(clock.Now(), false, HealthCritical, nil, 0, 0))
	agg.Apply(NewWarningRaised(clock.Now(), SeverityHigh, "broker unreachable"))
	if got := agg.Snapshot().Metrics; got != seeded {
		t.Fatalf("expected seeded metrics to survive connection events, got %+v", got)
	}

	// First live frame switches to computed metrics; hand accuracy carries.
	agg.Apply(NewCandyDetected(clock.Now(), CandyDetection{At: clock.Now()}))
	got := agg.Snapshot().Metrics
	if got.DetectionRate != 10 {
		t.Errorf("expected detection rate 10 from one live detection, got %v", got.DetectionRate)
	}
	if got.HandAccuracy != 55 {
		t.Errorf("expected seeded hand accuracy to carry into live metrics, got %v", got.HandAccuracy)
	}
	if got.CompletionRate != 0 {
		t.Errorf("expected live completion rate 0, got %v", got.CompletionRate)
	}
}

func TestMetrics_EfficiencyRespondsQualitatively(t *testing.T) {
	clock := &MockClock{current: time.Unix(1700000000, 0)}
	agg := newTestAggregator(clock)

	base := agg.Snapshot().Metrics.Efficiency

	// More completions must not lower efficiency.
	for i := 0; i < 5; i++ {
		agg.Apply(NewTaskFinished(clock.Now(), CompletedTask{SubtaskID: "s", At: clock.Now()}))
	}
	withCompletions := agg.Snapshot().Metrics.Efficiency
	if withCompletions < base {
		t.Errorf("efficiency dropped with more completions: %v -> %v", base, withCompletions)
	}

	// A high error ratio must lower efficiency.
	agg.Apply(NewConnectionChanged(clock.Now(), true, HealthWarning, nil, 100, 80))
	withErrors := agg.Snapshot().Metrics.Efficiency
	if withErrors >= withCompletions {
		t.Errorf("efficiency did not drop with errors: %v -> %v", withCompletions, withErrors)
	}
}
