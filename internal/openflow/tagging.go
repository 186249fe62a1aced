package openflow

import (
	"net"

	"OFTester/internal/model"
)

// ActionOrder decides where the terminal Output sits relative to header
// mutations in single-table tagging flows.
type ActionOrder int

const (
	// MutationsFirst applies every push/pop/set before the Output.
	MutationsFirst ActionOrder = iota
	// OutputFirst puts Output ahead of the mutations, the order some legacy
	// firmware was provisioned with.
	OutputFirst
)

// VlanOp selects push or pop.
type VlanOp int

const (
	VlanPush VlanOp = iota
	VlanPop
)

// MaxVlanID is the largest 12-bit VLAN id.
const MaxVlanID = 4095

// VlanSpec parameterizes VlanPushPop. A zero VID means "not set".
type VlanSpec struct {
	DPID     uint64
	InPort   uint32
	OutPort  uint32
	Op       VlanOp
	OuterVID int
	InnerVID int
	TableID  uint8
	Priority uint16
	Order    ActionOrder
}

func checkVID(field string, vid int) error {
	if vid < 0 || vid > MaxVlanID {
		return model.Invalid(field, "vlan id %d outside [0, %d]", vid, MaxVlanID)
	}
	return nil
}

// VlanPushPop builds a flow that pushes one or two 802.1Q tags, or pops one.
//
// Push adds a tag and sets the inner vid when given. When an outer vid is also
// given a second tag is pushed on top of the first, so the outer vid ends up
// outermost on the wire. With only an outer vid a single tag carries it.
func VlanPushPop(s VlanSpec) (Flow, error) {
	if err := checkVID("outer_vid", s.OuterVID); err != nil {
		return Flow{}, err
	}
	if err := checkVID("inner_vid", s.InnerVID); err != nil {
		return Flow{}, err
	}

	var mutations []Action
	switch s.Op {
	case VlanPush:
		mutations = append(mutations, PushVlan{EtherType: EtherTypeVlan})
		if s.InnerVID != 0 {
			mutations = append(mutations, SetField{Field: FieldVlanVID, Value: s.InnerVID})
		}
		if s.OuterVID != 0 {
			if s.InnerVID != 0 {
				mutations = append(mutations, PushVlan{EtherType: EtherTypeVlan})
			}
			mutations = append(mutations, SetField{Field: FieldVlanVID, Value: s.OuterVID})
		}
	case VlanPop:
		mutations = append(mutations, PopVlan{})
	default:
		return Flow{}, model.Invalid("op", "unknown vlan operation %d", s.Op)
	}

	priority := s.Priority
	if priority == 0 {
		priority = PriorityFeature
	}
	return Flow{
		DPID:     s.DPID,
		Cookie:   CookieVlan,
		TableID:  s.TableID,
		Priority: priority,
		Match:    InPort(s.InPort),
		Actions:  order(s.Order, mutations, Output{Port: s.OutPort}),
	}, nil
}

func order(o ActionOrder, mutations []Action, out Output) []Action {
	actions := make([]Action, 0, len(mutations)+1)
	if o == OutputFirst {
		actions = append(actions, out)
		return append(actions, mutations...)
	}
	actions = append(actions, mutations...)
	return append(actions, out)
}

// VxlanSpec parameterizes VxlanPush. UDPPort and VNI are wide so that
// out-of-range input is reported rather than silently truncated.
type VxlanSpec struct {
	DPID     uint64
	InPort   uint32
	OutPort  uint32
	TableID  uint8
	Priority uint16
	SrcIP    string
	DstIP    string
	SrcMAC   string
	DstMAC   string
	UDPPort  int64
	VNI      int64
	// Flags 1 carries the headers inside the push action; 0 pushes an empty
	// header and fills it with explicit SET_FIELDs.
	Flags int
}

// DefaultVxlanSpec returns the tunnel endpoints used by the stock scenarios.
func DefaultVxlanSpec(dpid uint64, inPort, outPort uint32) VxlanSpec {
	return VxlanSpec{
		DPID:     dpid,
		InPort:   inPort,
		OutPort:  outPort,
		Priority: PriorityFeature,
		SrcIP:    "192.168.0.1",
		DstIP:    "192.168.0.2",
		SrcMAC:   "11:22:33:44:55:66",
		DstMAC:   "aa:bb:cc:dd:ee:ff",
		UDPPort:  5000,
		VNI:      4242,
		Flags:    1,
	}
}

// Header validates the tunnel parameters and returns the outer header.
func (s VxlanSpec) Header() (*VxlanHeader, error) {
	if s.UDPPort < 0 || s.UDPPort >= 1<<16 {
		return nil, model.Invalid("udp_port", "%d outside [0, 65536)", s.UDPPort)
	}
	if s.VNI < 0 || s.VNI >= 1<<32 {
		return nil, model.Invalid("vni", "%d outside [0, 4294967296)", s.VNI)
	}
	if s.Flags != 0 && s.Flags != 1 {
		return nil, model.Invalid("flags", "must be 0 or 1, got %d", s.Flags)
	}
	for _, f := range [][2]string{{"src_mac", s.SrcMAC}, {"dst_mac", s.DstMAC}} {
		if _, err := net.ParseMAC(f[1]); err != nil {
			return nil, model.Invalid(f[0], "malformed mac %q", f[1])
		}
	}
	for _, f := range [][2]string{{"src_ip", s.SrcIP}, {"dst_ip", s.DstIP}} {
		if parsed := net.ParseIP(f[1]); parsed == nil || parsed.To4() == nil {
			return nil, model.Invalid(f[0], "malformed ipv4 address %q", f[1])
		}
	}
	return &VxlanHeader{
		EthSrc:  s.SrcMAC,
		EthDst:  s.DstMAC,
		IPv4Src: s.SrcIP,
		IPv4Dst: s.DstIP,
		UDPSrc:  uint16(s.UDPPort),
		VNI:     uint32(s.VNI),
	}, nil
}

// pushActions returns the encapsulation actions for the spec's flag mode.
func (s VxlanSpec) pushActions() ([]Action, error) {
	h, err := s.Header()
	if err != nil {
		return nil, err
	}
	if s.Flags == 1 {
		return []Action{PushVxlan{Header: h}}, nil
	}
	return []Action{
		PushVxlan{},
		SetField{Field: FieldEthSrc, Value: h.EthSrc},
		SetField{Field: FieldEthDst, Value: h.EthDst},
		SetField{Field: FieldIPv4Src, Value: h.IPv4Src},
		SetField{Field: FieldIPv4Dst, Value: h.IPv4Dst},
		SetField{Field: FieldUDPSrc, Value: int(h.UDPSrc)},
		SetField{Field: FieldTunnelID, Value: int(h.VNI)},
	}, nil
}

// VxlanPush encapsulates everything arriving on InPort and forwards it.
func VxlanPush(s VxlanSpec) (Flow, error) {
	actions, err := s.pushActions()
	if err != nil {
		return Flow{}, err
	}
	priority := s.Priority
	if priority == 0 {
		priority = PriorityFeature
	}
	return Flow{
		DPID:     s.DPID,
		Cookie:   CookieVxlan,
		TableID:  s.TableID,
		Priority: priority,
		Match:    InPort(s.InPort),
		Actions:  append(actions, Output{Port: s.OutPort}),
	}, nil
}

// VxlanPop decapsulates everything arriving on inPort and forwards it.
func VxlanPop(dpid uint64, inPort, outPort uint32, tableID uint8, priority uint16) Flow {
	return Flow{
		DPID:     dpid,
		Cookie:   CookieVxlan,
		TableID:  tableID,
		Priority: priority,
		Match:    InPort(inPort),
		Actions:  []Action{PopVxlan{}, Output{Port: outPort}},
	}
}
