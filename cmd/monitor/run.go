package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"line-monitor/pkg/config"
	"line-monitor/pkg/ingest"
	"line-monitor/pkg/seed"
	"line-monitor/pkg/state"
	"line-monitor/pkg/statuspub"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the broker and aggregate line telemetry",
		RunE:  runMonitor,
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().String(config.FlagConfigFile, "", config.HelpConfigFile)
	return cmd
}

func runMonitor(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString(config.FlagConfigFile)
	fileSource, err := config.NewFileSource(configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.SourceFromFlags(cmd.Flags()), &config.EnvSource{}, fileSource)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := state.NewAggregator(nil, state.ConfigFrom(cfg), logger)
	aggregator.Seed(seed.Initial(ctx, logger, cfg.Metrics.FetchURL,
		time.Duration(cfg.Metrics.FetchTimeoutSeconds)*time.Second))
	aggregator.Start(ctx)
	defer aggregator.Stop()

	manager := ingest.New(cfg, logger, aggregator)
	if err := manager.Connect(ctx); err != nil {
		// Stay up on seed data; the reconnect policy takes it from here.
		logger.WithError(err).Warn("broker unreachable at startup")
		manager.ConnectionLost(err)
	}
	defer manager.Disconnect()

	publisher := statuspub.New(manager.Client(), aggregator, logger, cfg.Topics.StatusOut,
		time.Duration(cfg.StatusPublishSeconds)*time.Second)
	publisher.Start(ctx)
	defer publisher.Stop()

	printer := newStatusPrinter(aggregator, cfg, logger)
	return printer.Run(ctx)
}
