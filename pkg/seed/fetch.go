package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/state"
)

// Initial returns the startup snapshot: the defaults, overlaid with metrics
// from the optional REST endpoint. The fetch is bounded by timeout and its
// failure is non-fatal; startup never blocks on a hung endpoint.
func Initial(ctx context.Context, log *logrus.Logger, url string, timeout time.Duration) state.Snapshot {
	snap := DefaultSnapshot()
	if url == "" {
		return snap
	}
	metrics, err := fetchMetrics(ctx, url, timeout)
	if err != nil {
		log.WithError(err).WithField("url", url).Warn("metrics fetch failed, using defaults")
		return snap
	}
	snap.Metrics = *metrics
	return snap
}

func fetchMetrics(ctx context.Context, url string, timeout time.Duration) (*state.Metrics, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics endpoint returned %s", resp.Status)
	}

	var metrics state.Metrics
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}
	return &metrics, nil
}
