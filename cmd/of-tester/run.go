package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"OFTester/internal/config"
	"OFTester/internal/control"
	"OFTester/internal/events"
	"OFTester/internal/model"
	"OFTester/internal/results"
	"OFTester/internal/scenario"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run the given scenarios, or the configured ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runScenarios(ctx, args)
		},
	}
}

func runScenarios(ctx context.Context, names []string) error {
	cfg, env, err := loadEnvironment()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = cfg.Scenarios
	}
	log.Infof("Configuration loaded successfully: %d switch(es), scenarios %v", len(env.DPIDs()), names)

	metricsClient, closeMetrics, err := newMetricsClient(cfg, env)
	if err != nil {
		return fmt.Errorf("failed to create metrics client: %w", err)
	}
	defer closeMetrics()

	waiter, err := newDetector(cfg, env, metricsClient)
	if err != nil {
		return err
	}

	var publisher model.Publisher
	if cfg.Events.Enabled {
		p, err := events.NewPublisher(cfg.Events)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	engine, err := scenario.NewEngine(scenario.EngineOptions{
		Control:   control.NewClient(env.ControllerURL(), requestTimeout),
		Waiter:    waiter,
		Publisher: publisher,
		Settle:    config.Duration(cfg.SettleTime),
		Drain:     config.Duration(cfg.DrainTime),
	})
	if err != nil {
		return err
	}

	writers, closeWriters, err := newWriters(cfg)
	if err != nil {
		return fmt.Errorf("failed to create results writers: %w", err)
	}
	defer closeWriters()

	runner := &scenario.Runner{
		Registry:           scenario.Builtins(),
		Engine:             engine,
		Env:                env,
		PacketSizes:        cfg.PacketSizes,
		CollectionInterval: config.Duration(cfg.CollectionInterval),
		Options:            scenarioOptions(cfg),
		Collector:          results.NewMetricsCollector(metricsClient, cfg.Detector.Downsample),
		Writers:            writers,
	}
	records, err := runner.Run(ctx, names)
	for _, r := range records {
		for _, tm := range r.TimeMetrics {
			status := "ok"
			if tm.Err != "" {
				status = tm.Err
			}
			log.Infof("%s run %s size %d: %s in %s", r.Scenario, r.RunID, tm.PacketSize, status, tm.Duration())
		}
	}
	return err
}
