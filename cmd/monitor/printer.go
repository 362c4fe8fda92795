package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"line-monitor/pkg/config"
	"line-monitor/pkg/state"
)

// statusPrinter periodically logs a condensed view of the aggregator state.
type statusPrinter struct {
	source snapshotSource
	config *config.Config
	logger *logrus.Logger

	lastSnapshot state.Snapshot
}

type snapshotSource interface {
	Snapshot() state.Snapshot
}

func newStatusPrinter(source snapshotSource, cfg *config.Config, logger *logrus.Logger) *statusPrinter {
	return &statusPrinter{source: source, config: cfg, logger: logger}
}

// Run blocks until ctx is done, printing periodic status updates.
func (p *statusPrinter) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"broker": p.config.BrokerURL,
		"topics": len(p.config.Topics.All()),
	}).Info("line monitor started")

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			p.printStatus()
		}
	}
}

func (p *statusPrinter) printStatus() {
	snap := p.source.Snapshot()
	if p.shouldPrint(snap) {
		p.logger.WithFields(logrus.Fields{
			"health":     snap.Connection.Health,
			"status":     snap.SystemStatus,
			"messages":   snap.Connection.Messages,
			"errors":     snap.Connection.Errors,
			"tasks":      len(snap.Tasks),
			"warnings":   len(snap.Warnings),
			"efficiency": snap.Metrics.Efficiency,
		}).Info("status")
	}
	p.lastSnapshot = snap
}

// shouldPrint suppresses repeats when nothing observable changed.
func (p *statusPrinter) shouldPrint(snap state.Snapshot) bool {
	last := p.lastSnapshot
	if last.At.IsZero() {
		return true
	}
	if snap.Connection.Messages != last.Connection.Messages ||
		snap.Connection.Errors != last.Connection.Errors {
		return true
	}
	if snap.Connection.Health != last.Connection.Health ||
		snap.SystemStatus != last.SystemStatus {
		return true
	}
	return len(snap.Warnings) != len(last.Warnings)
}
