package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/internal/topology"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Collector gathers the metric series of one finished packet-size window.
type Collector interface {
	Collect(ctx context.Context, sc *Scenario, tm *model.TimeMetrics) ([]model.Series, error)
}

// Runner runs a list of named scenarios against one environment and hands
// every run record to the writers.
type Runner struct {
	Registry           *Registry
	Engine             *Engine
	Env                *topology.Environment
	PacketSizes        []int
	CollectionInterval time.Duration
	Options            Options
	Collector          Collector
	Writers            []model.Writer

	// NewRunID defaults to a random UUID.
	NewRunID func() string
}

// Run resolves every name before running any, then runs the scenarios in
// order. It returns the records of the scenarios that ran and every error
// joined.
func (r *Runner) Run(ctx context.Context, names []string) ([]*model.RunRecord, error) {
	if len(names) == 0 {
		return nil, model.Invalid("scenarios", "no scenarios configured")
	}
	features := make([]Feature, len(names))
	for i, name := range names {
		f, err := r.Registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		features[i] = f
	}

	newRunID := r.NewRunID
	if newRunID == nil {
		newRunID = func() string { return uuid.NewString() }
	}

	var records []*model.RunRecord
	var errs []error
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sc := New(name, r.Env, features[i], r.PacketSizes, r.CollectionInterval)
		sc.Options = r.Options
		sc.RunID = newRunID()
		log.Infof("Running scenario %s (run %s)", name, sc.RunID)

		if err := r.Engine.Run(ctx, sc); err != nil {
			errs = append(errs, fmt.Errorf("scenario %s: %w", name, err))
			if model.IsValidation(err) {
				continue
			}
		}

		record := r.record(ctx, sc)
		for _, w := range r.Writers {
			if err := w.Write(record); err != nil {
				errs = append(errs, fmt.Errorf("failed to write %s results with %s: %w", name, w.Name(), err))
			}
		}
		records = append(records, record)
		log.Infof("Scenario %s finished (run %s)", name, sc.RunID)
	}
	return records, errors.Join(errs...)
}

func (r *Runner) record(ctx context.Context, sc *Scenario) *model.RunRecord {
	order := "mutations-first"
	if sc.Options.Order == openflow.OutputFirst {
		order = "output-first"
	}
	record := &model.RunRecord{
		RunID:       sc.RunID,
		Scenario:    sc.Name,
		DPIDs:       sc.Env.DPIDs(),
		PacketSizes: append([]int(nil), sc.PacketSizes...),
		TimeMetrics: sc.TimeMetrics,
		Labels: map[string]string{
			"controller":   sc.Env.ControllerURL(),
			"action_order": order,
		},
	}
	if r.Collector == nil || ctx.Err() != nil {
		return record
	}

	record.Series = make(map[int][]model.Series)
	for _, tm := range sc.TimeMetrics {
		if tm.Err != "" {
			continue
		}
		series, err := r.Collector.Collect(ctx, sc, tm)
		if err != nil {
			log.Warnf("Failed to collect metrics for %s at packet size %d: %v", sc.Name, tm.PacketSize, err)
			continue
		}
		record.Series[tm.PacketSize] = series
	}
	return record
}
