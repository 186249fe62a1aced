package main

import (
	"fmt"
	"time"

	"OFTester/internal/config"
	"OFTester/internal/detector"
	"OFTester/internal/metrics"
	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/internal/results"
	"OFTester/internal/scenario"
	"OFTester/internal/topology"
)

const requestTimeout = 30 * time.Second

func loadEnvironment() (*config.Config, *topology.Environment, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	env, err := topology.NewEnvironment(cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build environment: %w", err)
	}
	return cfg, env, nil
}

func scenarioOptions(cfg *config.Config) scenario.Options {
	opts := scenario.Options{VxlanExperimenter: cfg.VxlanExperimenter}
	if cfg.ActionOrder == "output-first" {
		opts.Order = openflow.OutputFirst
	}
	return opts
}

// closer releases whatever the wiring opened.
type closer func()

func newMetricsClient(cfg *config.Config, env *topology.Environment) (model.MetricsClient, closer, error) {
	switch cfg.Metrics.Backend {
	case "clickhouse":
		ch, err := metrics.NewClickHouse(cfg.Metrics.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		return ch, func() { ch.Close() }, nil
	default:
		return metrics.NewOpenTSDB(env.MetricsURL(), requestTimeout), func() {}, nil
	}
}

func newDetector(cfg *config.Config, env *topology.Environment, client model.MetricsClient) (*detector.Detector, error) {
	d := cfg.Detector
	return detector.New(detector.Options{
		Metrics:      client,
		Metric:       env.Metric(results.MetricBits),
		PollInterval: config.Duration(d.PollInterval),
		Window:       config.Duration(d.Window),
		Downsample:   d.Downsample,
		Thresholds:   detector.Thresholds{MinRate: d.MinRate, GrowthThreshold: d.GrowthThreshold},
		MaxPolls:     d.MaxPolls,
		Timeout:      config.Duration(d.Timeout),
	})
}

func newWriters(cfg *config.Config) ([]model.Writer, closer, error) {
	var writers []model.Writer
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	for _, name := range cfg.Results.Writers {
		switch name {
		case "file":
			writers = append(writers, results.NewFileWriter(cfg.Results.StorageRootPath))
		case "clickhouse":
			w, err := results.NewClickHouseWriter(cfg.Results.ClickHouse)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			writers = append(writers, w)
			closers = append(closers, func() { w.Close() })
		}
	}
	return writers, closeAll, nil
}
