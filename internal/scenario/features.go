package scenario

import (
	"fmt"

	"OFTester/internal/openflow"
	"OFTester/internal/topology"
	"OFTester/pkg/packet"
)

// Customer tags used by the edge scenarios and the transit tag.
const (
	outerVID   = 46
	innerVID   = 47
	transitVID = 48
	vlanVID    = 42
	// Transit overlays sit between the baseline snake and the feature flows.
	priorityTransit = 1500
	// Goto-table measures up to five table hops.
	gotoDepth = 5
)

// snakePlan starts a plan with the snake baseline and flooded injection.
func snakePlan(sw *topology.Switch, traffic packet.Params) (*Plan, error) {
	flows, err := openflow.Snake(sw.DPID, sw.SnakeStartPort, sw.SnakeEndPort, openflow.TableInput)
	if err != nil {
		return nil, err
	}
	return &Plan{DPID: sw.DPID, Baseline: flows, Traffic: traffic, InjectPort: FloodPort}, nil
}

// overlay builds a snake plan whose single step comes from build.
func overlay(traffic packet.Params, build func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error)) FeatureFunc {
	return func(sw *topology.Switch, sc *Scenario) (*Plan, error) {
		p, err := snakePlan(sw, traffic)
		if err != nil {
			return nil, err
		}
		flows, err := build(sw, sc)
		if err != nil {
			return nil, err
		}
		if len(flows) > 0 {
			p.Steps = []Step{{Flows: flows}}
		}
		return p, nil
	}
}

func concat(parts ...[]openflow.Flow) []openflow.Flow {
	var out []openflow.Flow
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func pps() Feature {
	return overlay(packet.Params{}, func(*topology.Switch, *Scenario) ([]openflow.Flow, error) {
		return nil, nil
	})
}

func ppsLoop() Feature {
	return FeatureFunc(func(sw *topology.Switch, sc *Scenario) (*Plan, error) {
		return &Plan{
			DPID:       sw.DPID,
			Baseline:   []openflow.Flow{openflow.LoopAllPorts(sw.DPID, openflow.TableInput, 100)},
			InjectPort: FloodPort,
		}, nil
	})
}

// gotoTable loops in tables 0 and 5, chains 1→5, then redirects table 0 one
// table deeper per step so each hold measures one more hop.
func gotoTable() Feature {
	return FeatureFunc(func(sw *topology.Switch, sc *Scenario) (*Plan, error) {
		chain, err := openflow.GotoChain(sw.DPID, 1, gotoDepth, 100)
		if err != nil {
			return nil, err
		}
		p := &Plan{
			DPID: sw.DPID,
			Baseline: concat(
				[]openflow.Flow{
					openflow.LoopAllPorts(sw.DPID, openflow.TableInput, 100),
					openflow.LoopAllPorts(sw.DPID, gotoDepth, 100),
				},
				chain,
			),
			InjectPort: FloodPort,
		}
		for table := uint8(gotoDepth); table > 0; table-- {
			p.Steps = append(p.Steps, Step{
				Flows:  []openflow.Flow{openflow.GotoTableFlow(sw.DPID, openflow.TableInput, table, 200)},
				Hold:   sc.CollectionInterval,
				Marker: fmt.Sprintf("tables=%d", gotoDepth-int(table)+1),
			})
		}
		return p, nil
	})
}

func vlan(vid int) Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		pop, err := openflow.VlanPushPop(openflow.VlanSpec{
			DPID: sw.DPID, InPort: sw.SnakeEndPort, OutPort: openflow.PortInPort, Op: openflow.VlanPop, Order: sc.Options.Order,
		})
		if err != nil {
			return nil, err
		}
		push, err := openflow.VlanPushPop(openflow.VlanSpec{
			DPID: sw.DPID, InPort: sw.SnakeStartPort, OutPort: openflow.PortInPort, Op: openflow.VlanPush,
			OuterVID: vid, Order: sc.Options.Order,
		})
		if err != nil {
			return nil, err
		}
		return []openflow.Flow{pop, push}, nil
	})
}

func vxlanPush(spec openflow.VxlanSpec, sc *Scenario) (openflow.Flow, error) {
	if sc.Options.VxlanExperimenter {
		return openflow.VxlanPushLegacy(spec)
	}
	return openflow.VxlanPush(spec)
}

func vxlanPop(sw *topology.Switch, sc *Scenario) openflow.Flow {
	f := openflow.VxlanPop(sw.DPID, sw.SnakeEndPort, openflow.PortInPort, openflow.TableInput, openflow.PriorityFeature)
	if sc.Options.VxlanExperimenter {
		f.Actions = []openflow.Action{openflow.VxlanPopExperimenter(), openflow.Output{Port: openflow.PortInPort}}
	}
	return f
}

func vxlan(flags int) Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		spec := openflow.DefaultVxlanSpec(sw.DPID, sw.SnakeStartPort, openflow.PortInPort)
		spec.Flags = flags
		push, err := vxlanPush(spec, sc)
		if err != nil {
			return nil, err
		}
		return []openflow.Flow{vxlanPop(sw, sc), push}, nil
	})
}

func fieldMove(copyField bool, move openflow.FieldMove) Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		spec := openflow.FieldMoveSpec{DPID: sw.DPID, InPort: sw.SnakeStartPort, OutPort: openflow.PortInPort, Move: move}
		var f openflow.Flow
		var err error
		if copyField {
			f, err = openflow.CopyFields(spec)
		} else {
			f, err = openflow.SwapFields(spec)
		}
		if err != nil {
			return nil, err
		}
		return []openflow.Flow{openflow.PassThrough(sw.DPID, sw.SnakeEndPort, openflow.PortInPort), f}, nil
	})
}

func timestampMove(src string) openflow.FieldMove {
	return openflow.FieldMove{NBits: 64, Src: src, Dst: openflow.FieldNoviPktOffset}
}

func metadata() Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		return concat(
			[]openflow.Flow{openflow.PassThrough(sw.DPID, sw.SnakeEndPort, openflow.PortInPort)},
			openflow.MetadataChain(sw.DPID, sw.SnakeStartPort, openflow.PortInPort, openflow.PriorityFeature),
		), nil
	})
}

// multicastGroup replicates everything entering the snake start port to the
// port it came from and to every traffic generator port.
func multicastGroup() Feature {
	return FeatureFunc(func(sw *topology.Switch, sc *Scenario) (*Plan, error) {
		p, err := snakePlan(sw, packet.Params{})
		if err != nil {
			return nil, err
		}
		ports := append([]uint32{openflow.PortInPort}, sw.TraffGenPorts...)
		if len(sw.TraffGenPorts) == 0 {
			ports = append(ports, sw.EgressPort)
		}
		p.Groups = []openflow.Group{openflow.OutputToPorts(sw.DPID, openflow.GroupID, ports...)}
		p.Steps = []Step{{Flows: []openflow.Flow{
			openflow.ToGroup(sw.DPID, sw.SnakeStartPort, openflow.GroupID, openflow.TableInput, openflow.PriorityFeature),
		}}}
		return p, nil
	})
}

type edgeBuilder func(openflow.EdgeSpec) ([]openflow.Flow, error)

// ingressEgress installs egress on the snake start port and ingress on the
// snake end port, with traffic carrying the customer tags.
func ingressEgress(inner int, egress, ingress edgeBuilder) Feature {
	traffic := packet.Params{OuterVlan: outerVID, InnerVlan: inner}
	return overlay(traffic, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		eSpec := openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeStartPort, openflow.PortInPort)
		eSpec.InnerVID = inner
		e, err := egress(eSpec)
		if err != nil {
			return nil, err
		}
		iSpec := openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeEndPort, openflow.PortInPort)
		iSpec.InnerVID = inner
		i, err := ingress(iSpec)
		if err != nil {
			return nil, err
		}
		return concat(e, i), nil
	})
}

func transitVlan() Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		end, err := openflow.TransitVlan(openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeEndPort, openflow.PortInPort))
		if err != nil {
			return nil, err
		}
		start, err := openflow.TransitVlan(openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeStartPort, openflow.PortInPort))
		if err != nil {
			return nil, err
		}
		push, err := openflow.VlanPushPop(openflow.VlanSpec{
			DPID: sw.DPID, InPort: sw.SnakeStartPort, OutPort: openflow.PortInPort, Op: openflow.VlanPush,
			OuterVID: transitVID, Priority: priorityTransit, Order: sc.Options.Order,
		})
		if err != nil {
			return nil, err
		}
		return concat(end, start, []openflow.Flow{push}), nil
	})
}

func transitVxlan() Feature {
	return overlay(packet.Params{}, func(sw *topology.Switch, sc *Scenario) ([]openflow.Flow, error) {
		end, err := openflow.TransitVxlan(openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeEndPort, openflow.PortInPort))
		if err != nil {
			return nil, err
		}
		start, err := openflow.TransitVxlan(openflow.DefaultEdgeSpec(sw.DPID, sw.SnakeStartPort, openflow.PortInPort))
		if err != nil {
			return nil, err
		}
		spec := openflow.DefaultVxlanSpec(sw.DPID, sw.SnakeStartPort, openflow.PortInPort)
		spec.Priority = priorityTransit
		push, err := vxlanPush(spec, sc)
		if err != nil {
			return nil, err
		}
		return concat(end, start, []openflow.Flow{push}), nil
	})
}
