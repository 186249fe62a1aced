package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/internal/topology"

	log "github.com/sirupsen/logrus"
)

// Marker names recorded on every TimeMetrics.
const (
	MarkerBaselineInstalled = "baseline installed"
	MarkerTrafficSaturated  = "traffic saturated"
	MarkerFeatureInstalled  = "feature installed"
)

// Default phase waits.
const (
	DefaultSettleTime = 30 * time.Second
	DefaultDrainTime  = 10 * time.Second
)

// EngineOptions wires an Engine. Publisher and Clock are optional.
type EngineOptions struct {
	Control   ControlClient
	Waiter    Waiter
	Publisher model.Publisher
	Clock     Clock
	// Settle is waited after saturation, Drain before the collection window.
	Settle time.Duration
	Drain  time.Duration
}

// Engine drives one scenario through its per-packet-size state machine.
type Engine struct {
	control   ControlClient
	waiter    Waiter
	publisher model.Publisher
	clock     Clock
	settle    time.Duration
	drain     time.Duration
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Control == nil {
		return nil, model.Invalid("engine", "a control client is required")
	}
	if opts.Waiter == nil {
		return nil, model.Invalid("engine", "a steady-state waiter is required")
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Settle < 0 || opts.Drain < 0 {
		return nil, model.Invalid("engine", "settle and drain times must not be negative")
	}
	return &Engine{
		control:   opts.Control,
		waiter:    opts.Waiter,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		settle:    opts.Settle,
		drain:     opts.Drain,
	}, nil
}

// Run measures sc at every packet size. Plans for all switches are built and
// validated before the first controller call. A failed packet size is
// cleaned up and recorded, and the run moves on to the next size; the
// returned error joins every failure. Cancellation stops the run after a
// cleanup.
func (e *Engine) Run(ctx context.Context, sc *Scenario) error {
	plans, err := Plans(sc)
	if err != nil {
		return err
	}
	sc.Reset()
	e.transition(sc, Idle, 0, nil)

	var errs []error
	for sc.HasNextPacketSize() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		size := sc.NextPacketSize()
		tm := sc.Current()
		tm.Start = e.clock.Now()
		log.Infof("Starting scenario %s at packet size %d on %d switch(es)", sc.Name, size, len(plans))

		iterErr := e.iterate(ctx, sc, plans, tm)
		if tm.Stop.IsZero() {
			tm.Stop = e.clock.Now()
		}
		if iterErr != nil {
			tm.Err = iterErr.Error()
			errs = append(errs, fmt.Errorf("packet size %d: %w", size, iterErr))
			log.Warnf("Scenario %s failed at packet size %d: %v", sc.Name, size, iterErr)
		}
		e.cleanup(ctx, sc, iterErr)
		if iterErr != nil && ctx.Err() != nil {
			break
		}
	}

	e.cleanup(ctx, sc, nil)
	e.transition(sc, Done, 0, nil)
	return errors.Join(errs...)
}

// Plans builds and validates the plan of every switch of sc, in
// configuration order.
func Plans(sc *Scenario) ([]*Plan, error) {
	if sc.Feature == nil {
		return nil, model.Invalid("scenario", "scenario '%s' has no feature", sc.Name)
	}
	if sc.Env == nil || len(sc.Env.Switches()) == 0 {
		return nil, model.Invalid("scenario", "scenario '%s' has no switches", sc.Name)
	}
	if len(sc.PacketSizes) == 0 {
		return nil, model.Invalid("packet_sizes", "scenario '%s' has no packet sizes", sc.Name)
	}
	for _, size := range sc.PacketSizes {
		if size <= 0 {
			return nil, model.Invalid("packet_sizes", "invalid packet size %d", size)
		}
	}

	var plans []*Plan
	for _, sw := range sc.Env.Switches() {
		if err := sw.Validate(); err != nil {
			return nil, err
		}
		p, err := sc.Feature.Plan(sw, sc)
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s on switch %s: %w", sc.Name, topology.FormatDPID(sw.DPID), err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid plan for %s on switch %s: %w", sc.Name, topology.FormatDPID(sw.DPID), err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// iterate runs one packet size: every switch goes through baseline,
// saturation and feature install in order, then the window is collected.
func (e *Engine) iterate(ctx context.Context, sc *Scenario, plans []*Plan, tm *model.TimeMetrics) error {
	for _, p := range plans {
		if err := e.installBaseline(ctx, sc, p, tm); err != nil {
			return err
		}
		if err := e.saturate(ctx, sc, p, tm); err != nil {
			return err
		}
		if err := e.installFeature(ctx, sc, p, tm); err != nil {
			return err
		}
	}

	e.transition(sc, Collect, 0, nil)
	if err := e.clock.Sleep(ctx, e.drain); err != nil {
		return err
	}
	if err := e.clock.Sleep(ctx, sc.CollectionInterval); err != nil {
		return err
	}
	tm.Stop = e.clock.Now()
	return nil
}

func (e *Engine) installBaseline(ctx context.Context, sc *Scenario, p *Plan, tm *model.TimeMetrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.transition(sc, InstallBaseline, p.DPID, nil)
	if err := e.addFlows(ctx, p.Baseline); err != nil {
		return err
	}
	tm.Mark(MarkerBaselineInstalled, p.DPID, e.clock.Now())
	return nil
}

func (e *Engine) saturate(ctx context.Context, sc *Scenario, p *Plan, tm *model.TimeMetrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.transition(sc, SaturateTraffic, p.DPID, nil)

	traffic := p.Traffic
	traffic.Port = p.InjectPort
	traffic.PktSize = sc.CurrentPacketSize()
	traffic.Count = 1
	inject := func(ctx context.Context) error {
		return e.control.PacketOut(ctx, p.DPID, traffic)
	}
	res, err := e.waiter.Wait(ctx, p.DPID, inject)
	if err != nil {
		return fmt.Errorf("switch %s: %w", topology.FormatDPID(p.DPID), err)
	}
	log.Infof("Switch %s saturated after %d polls (growth %.4f%%)", topology.FormatDPID(p.DPID), res.Polls, res.Verdict.GrowthRate)

	if err := e.clock.Sleep(ctx, e.settle); err != nil {
		return err
	}
	tm.Mark(MarkerTrafficSaturated, p.DPID, e.clock.Now())
	return nil
}

func (e *Engine) installFeature(ctx context.Context, sc *Scenario, p *Plan, tm *model.TimeMetrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.transition(sc, InstallFeatureFlows, p.DPID, nil)
	for _, g := range p.Groups {
		if err := e.control.AddGroup(ctx, g); err != nil {
			return err
		}
	}
	for _, step := range p.Steps {
		if err := e.addFlows(ctx, step.Flows); err != nil {
			return err
		}
		if step.Marker != "" {
			tm.Mark(step.Marker, p.DPID, e.clock.Now())
		}
		if step.Hold > 0 {
			if err := e.clock.Sleep(ctx, step.Hold); err != nil {
				return err
			}
		}
	}
	tm.Mark(MarkerFeatureInstalled, p.DPID, e.clock.Now())
	return nil
}

func (e *Engine) addFlows(ctx context.Context, flows []openflow.Flow) error {
	for _, f := range flows {
		if err := e.control.AddFlow(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// cleanup clears flows and the feature group on every switch. It ignores
// cancellation and only logs failures. cause is the iteration error, if any.
func (e *Engine) cleanup(ctx context.Context, sc *Scenario, cause error) {
	ctx = context.WithoutCancel(ctx)
	e.transition(sc, Cleanup, 0, cause)
	for _, sw := range sc.Env.Switches() {
		if err := e.control.ClearFlows(ctx, sw.DPID); err != nil {
			log.Warnf("Failed to clear flows on switch %s: %v", topology.FormatDPID(sw.DPID), err)
		}
		ref := openflow.GroupRef{DPID: sw.DPID, GroupID: openflow.GroupID}
		if err := e.control.DeleteGroup(ctx, ref); err != nil {
			log.Debugf("Failed to delete group %d on switch %s: %v", ref.GroupID, topology.FormatDPID(sw.DPID), err)
		}
	}
}

func (e *Engine) transition(sc *Scenario, state State, dpid uint64, err error) {
	entry := log.WithFields(log.Fields{"scenario": sc.Name, "state": state.String()})
	if dpid != 0 {
		entry = entry.WithField("dpid", topology.FormatDPID(dpid))
	}
	entry.Debug("State transition")

	if e.publisher == nil {
		return
	}
	ev := model.Event{
		RunID:      sc.RunID,
		Scenario:   sc.Name,
		State:      state.String(),
		PacketSize: sc.CurrentPacketSize(),
		DPID:       dpid,
		At:         e.clock.Now(),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	if pubErr := e.publisher.Publish(ev); pubErr != nil {
		log.Warnf("Failed to publish %s event: %v", state, pubErr)
	}
}
