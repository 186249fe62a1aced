package scenario

import (
	"context"
	"fmt"
	"testing"
	"time"

	"OFTester/internal/config"
	"OFTester/internal/detector"
	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/internal/topology"
	"OFTester/pkg/packet"
)

type fakeControl struct {
	calls      []string
	flows      []openflow.Flow
	groups     []openflow.Group
	packetOuts []packet.Params
	// fail returns an error for a call name, or nil.
	fail func(call string) error
}

func (f *fakeControl) record(call string) error {
	f.calls = append(f.calls, call)
	if f.fail != nil {
		return f.fail(call)
	}
	return nil
}

func (f *fakeControl) AddFlow(ctx context.Context, flow openflow.Flow) error {
	if err := f.record("add-flow"); err != nil {
		return err
	}
	f.flows = append(f.flows, flow)
	return nil
}

func (f *fakeControl) ClearFlows(ctx context.Context, dpid uint64) error {
	return f.record(fmt.Sprintf("clear-flows %d", dpid))
}

func (f *fakeControl) AddGroup(ctx context.Context, group openflow.Group) error {
	if err := f.record("add-group"); err != nil {
		return err
	}
	f.groups = append(f.groups, group)
	return nil
}

func (f *fakeControl) DeleteGroup(ctx context.Context, ref openflow.GroupRef) error {
	return f.record(fmt.Sprintf("delete-group %d", ref.DPID))
}

func (f *fakeControl) PacketOut(ctx context.Context, dpid uint64, p packet.Params) error {
	if err := f.record("packet-out"); err != nil {
		return err
	}
	f.packetOuts = append(f.packetOuts, p)
	return nil
}

func (f *fakeControl) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// fakeWaiter injects once and reports steady state, unless wait is set.
type fakeWaiter struct {
	dpids []uint64
	wait  func(ctx context.Context) error
}

func (w *fakeWaiter) Wait(ctx context.Context, dpid uint64, inject func(ctx context.Context) error) (detector.Result, error) {
	w.dpids = append(w.dpids, dpid)
	if err := inject(ctx); err != nil {
		return detector.Result{}, err
	}
	if w.wait != nil {
		if err := w.wait(ctx); err != nil {
			return detector.Result{Polls: 1}, err
		}
	}
	return detector.Result{Polls: 1, Verdict: detector.Verdict{Steady: true}}, nil
}

// fakeClock advances a millisecond on every read and by d on every sleep.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

type fakePublisher struct {
	events []model.Event
}

func (p *fakePublisher) Publish(ev model.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() {}

func testEnv(t *testing.T, dpids ...string) *topology.Environment {
	t.Helper()
	if len(dpids) == 0 {
		dpids = []string{"1"}
	}
	cfg := config.EnvironmentConfig{ControllerHost: "127.0.0.1", ControllerPort: 8080, OtsdbPrefix: "tpn"}
	for _, d := range dpids {
		cfg.Switches = append(cfg.Switches, config.SwitchDef{
			DPID: d, SnakeStartPort: 5, SnakeEndPort: 28, IngressPort: 1, EgressPort: 2, TraffGenPorts: []uint32{3},
		})
	}
	env, err := topology.NewEnvironment(cfg)
	if err != nil {
		t.Fatalf("Failed to build environment: %v", err)
	}
	return env
}

func testEngine(t *testing.T, control *fakeControl, waiter *fakeWaiter, clock *fakeClock, pub model.Publisher) *Engine {
	t.Helper()
	e, err := NewEngine(EngineOptions{
		Control:   control,
		Waiter:    waiter,
		Publisher: pub,
		Clock:     clock,
		Settle:    30 * time.Second,
		Drain:     10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}
