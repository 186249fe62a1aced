package scenario

import (
	"time"

	"OFTester/internal/openflow"
	"OFTester/internal/topology"
	"OFTester/pkg/packet"
)

// FloodPort asks the packet-out endpoint to flood the injected packet.
const FloodPort = -1

// Options tune how features render their flows.
type Options struct {
	Order openflow.ActionOrder
	// VxlanExperimenter renders VXLAN push/pop as opaque experimenter actions.
	VxlanExperimenter bool
}

// Step is a batch of feature flows. A non-zero Hold keeps the step installed
// for that long before the next one, under Marker.
type Step struct {
	Flows  []openflow.Flow
	Hold   time.Duration
	Marker string
}

// Plan is everything one switch needs for one feature.
type Plan struct {
	DPID       uint64
	Baseline   []openflow.Flow
	Groups     []openflow.Group
	Steps      []Step
	Traffic    packet.Params
	InjectPort int
}

// Validate checks every flow of the plan.
func (p *Plan) Validate() error {
	for _, f := range p.Baseline {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	for _, s := range p.Steps {
		for _, f := range s.Flows {
			if err := f.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Feature builds the plan of one switch.
type Feature interface {
	Plan(sw *topology.Switch, sc *Scenario) (*Plan, error)
}

// FeatureFunc adapts a function to Feature.
type FeatureFunc func(sw *topology.Switch, sc *Scenario) (*Plan, error)

// Plan calls f.
func (f FeatureFunc) Plan(sw *topology.Switch, sc *Scenario) (*Plan, error) {
	return f(sw, sc)
}
