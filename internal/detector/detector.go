package detector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"OFTester/internal/model"

	log "github.com/sirupsen/logrus"
)

// ErrNotSteady is returned when the poll bound is exhausted before the series settles.
var ErrNotSteady = errors.New("steady state not reached")

// Options configures a Detector. At least one of MaxPolls and Timeout must be set.
type Options struct {
	Metrics      model.MetricsClient
	Metric       string
	PollInterval time.Duration
	Window       time.Duration
	Downsample   string
	Thresholds   Thresholds
	MaxPolls     int
	Timeout      time.Duration

	// Sleep waits between injection and query. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Detector polls a throughput series until it plateaus.
type Detector struct {
	opts Options
}

// Result describes how steady state was reached.
type Result struct {
	Polls   int
	Verdict Verdict
	Elapsed time.Duration
}

// New validates the options and fills in defaults.
func New(opts Options) (*Detector, error) {
	if opts.Metrics == nil {
		return nil, model.Invalid("detector", "a metrics client is required")
	}
	if opts.Metric == "" {
		return nil, model.Invalid("detector", "a metric name is required")
	}
	if opts.MaxPolls <= 0 && opts.Timeout <= 0 {
		return nil, model.Invalid("detector", "either max polls or a timeout must bound the wait")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Window <= 0 {
		opts.Window = 30 * time.Second
	}
	if opts.Downsample == "" {
		opts.Downsample = "10s-avg"
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Detector{opts: opts}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait injects one packet per poll through inject and returns once the rate
// series for dpid is steady. Cancellation is checked on every poll. Errors from
// inject or from the metrics backend abort the wait.
func (d *Detector) Wait(ctx context.Context, dpid uint64, inject func(ctx context.Context) error) (Result, error) {
	parent := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	started := d.opts.Now()
	query := model.Query{
		Metric:     d.opts.Metric,
		Window:     d.opts.Window,
		Aggregator: "sum",
		Downsample: d.opts.Downsample,
		Rate:       true,
		Tags:       map[string]string{"dpid": strconv.FormatUint(dpid, 10)},
	}

	var res Result
	for {
		if d.opts.MaxPolls > 0 && res.Polls >= d.opts.MaxPolls {
			return res, fmt.Errorf("switch %d after %d polls: %w", dpid, res.Polls, ErrNotSteady)
		}
		if err := d.check(parent, ctx, dpid, res.Polls); err != nil {
			return res, err
		}

		res.Polls++
		if err := inject(ctx); err != nil {
			if e := d.check(parent, ctx, dpid, res.Polls); e != nil {
				return res, e
			}
			return res, err
		}
		if err := d.opts.Sleep(ctx, d.opts.PollInterval); err != nil {
			if e := d.check(parent, ctx, dpid, res.Polls); e != nil {
				return res, e
			}
			return res, err
		}

		samples, err := d.opts.Metrics.QueryRate(ctx, query)
		if err != nil {
			if e := d.check(parent, ctx, dpid, res.Polls); e != nil {
				return res, e
			}
			return res, err
		}
		if len(samples) < 2 {
			log.Warnf("Only %d datapoint(s) for switch %d, retrying", len(samples), dpid)
			continue
		}

		prev, curr := samples[len(samples)-2].Value, samples[len(samples)-1].Value
		res.Verdict = Evaluate(prev, curr, d.opts.Thresholds)
		log.Debugf("Switch %d poll %d: rate=%.0f growth=%.4f%% (%s)", dpid, res.Polls, curr, res.Verdict.GrowthRate, res.Verdict.Reason)
		if res.Verdict.Steady {
			res.Elapsed = d.opts.Now().Sub(started)
			log.Infof("Switch %d reached steady state after %d polls", dpid, res.Polls)
			return res, nil
		}
	}
}

// check distinguishes caller cancellation from the detector's own timeout.
func (d *Detector) check(parent, ctx context.Context, dpid uint64, polls int) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("switch %d timed out after %v and %d polls: %w", dpid, d.opts.Timeout, polls, ErrNotSteady)
	}
	return nil
}
