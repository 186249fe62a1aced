package openflow

// Provider-edge pipeline spread over six tables:
//
//	input(0) → pre-ingress(1) → ingress(2) → post-ingress(3)
//	input(0) → egress(4) → transit(5)
//
// Ingress strips the customer's outer tag, marks metadata bit 1 and either
// re-tags into the transit VLAN or encapsulates into VXLAN. Egress undoes it.
// Every builder returns the deepest table first so that a redirect is never
// installed ahead of the table it points to.

const (
	ethTypeIPv4 = 0x0800
	ipProtoUDP  = 17
)

// EdgeSpec parameterizes the pipeline builders. Zero VIDs mean "not set".
type EdgeSpec struct {
	DPID       uint64
	InPort     uint32
	OutPort    uint32
	OuterVID   int
	InnerVID   int
	TransitVID int
	Priority   uint16
	// Tunnel endpoints for the VXLAN variants; its DPID and ports are ignored.
	Vxlan VxlanSpec
}

// DefaultEdgeSpec returns the VLAN ids and tunnel used by the stock scenarios.
func DefaultEdgeSpec(dpid uint64, inPort, outPort uint32) EdgeSpec {
	return EdgeSpec{
		DPID:       dpid,
		InPort:     inPort,
		OutPort:    outPort,
		OuterVID:   46,
		TransitVID: 48,
		Priority:   PriorityFeature,
		Vxlan:      DefaultVxlanSpec(dpid, inPort, outPort),
	}
}

func (s EdgeSpec) validate() error {
	if err := checkVID("outer_vid", s.OuterVID); err != nil {
		return err
	}
	if err := checkVID("inner_vid", s.InnerVID); err != nil {
		return err
	}
	return checkVID("transit_vid", s.TransitVID)
}

func (s EdgeSpec) flow(cookie uint64, table uint8, match Match, actions ...Action) Flow {
	return Flow{
		DPID:     s.DPID,
		Cookie:   cookie,
		TableID:  table,
		Priority: s.Priority,
		Match:    match,
		Actions:  actions,
	}
}

func (s EdgeSpec) redirect(cookie uint64, from, to uint8) Flow {
	return s.flow(cookie, from, InPort(s.InPort), GotoTable{TableID: to})
}

// popOuterTag is the pre-ingress step shared by both ingress variants.
func (s EdgeSpec) popOuterTag(cookie uint64) Flow {
	return s.flow(cookie, TablePreIngress,
		Match{FieldInPort: s.InPort, FieldVlanVID: s.OuterVID},
		PopVlan{},
		WriteMetadata{Metadata: 1, Mask: 1},
		GotoTable{TableID: TableIngress},
	)
}

func (s EdgeSpec) ingressMatch() Match {
	m := Match{FieldMetadata: uint64(1), FieldInPort: s.InPort}
	if s.InnerVID != 0 {
		m[FieldVlanVID] = s.InnerVID
	}
	return m
}

func (s EdgeSpec) vxlanMatch() Match {
	return Match{
		FieldInPort:   s.InPort,
		FieldEthType:  ethTypeIPv4,
		FieldIPProto:  ipProtoUDP,
		FieldUDPDst:   VxlanUDPPort,
		FieldTunnelID: uint32(s.Vxlan.VNI),
	}
}

// IngressVlan pops the customer's outer tag and re-tags into the transit VLAN.
// Without an inner vid the packet is untagged after the pop and a new tag is pushed.
func IngressVlan(s EdgeSpec) ([]Flow, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	var actions []Action
	if s.InnerVID == 0 {
		actions = append(actions, PushVlan{EtherType: EtherTypeVlan})
	}
	actions = append(actions,
		SetField{Field: FieldVlanVID, Value: s.TransitVID},
		Output{Port: s.OutPort},
	)
	return []Flow{
		s.flow(CookieIngressVlan, TableIngress, s.ingressMatch(), actions...),
		s.popOuterTag(CookieIngressVlan),
		s.redirect(CookieIngressVlan, TableInput, TablePreIngress),
	}, nil
}

// EgressVlan rewrites the transit tag back to the customer tags.
func EgressVlan(s EdgeSpec) ([]Flow, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	var actions []Action
	if s.InnerVID != 0 {
		actions = append(actions,
			SetField{Field: FieldVlanVID, Value: s.InnerVID},
			PushVlan{EtherType: EtherTypeVlan},
		)
	}
	actions = append(actions,
		SetField{Field: FieldVlanVID, Value: s.OuterVID},
		Output{Port: s.OutPort},
	)
	return []Flow{
		s.flow(CookieEgressVlan, TableEgress,
			Match{FieldInPort: s.InPort, FieldVlanVID: s.TransitVID}, actions...),
		s.redirect(CookieEgressVlan, TableInput, TableEgress),
	}, nil
}

// IngressVxlan pops the customer tags and encapsulates into VXLAN.
func IngressVxlan(s EdgeSpec) ([]Flow, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	h, err := s.Vxlan.Header()
	if err != nil {
		return nil, err
	}
	var actions []Action
	if s.InnerVID != 0 {
		actions = append(actions, PopVlan{})
	}
	actions = append(actions, PushVxlan{Header: h}, Output{Port: s.OutPort})
	return []Flow{
		s.flow(CookieIngressVxlan, TableIngress, s.ingressMatch(), actions...),
		s.popOuterTag(CookieIngressVxlan),
		s.redirect(CookieIngressVxlan, TableInput, TablePreIngress),
	}, nil
}

// EgressVxlan decapsulates and restores the customer tags, inner tag first.
func EgressVxlan(s EdgeSpec) ([]Flow, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if _, err := s.Vxlan.Header(); err != nil {
		return nil, err
	}
	actions := []Action{PopVxlan{}}
	if s.InnerVID != 0 {
		actions = append(actions,
			PushVlan{EtherType: EtherTypeVlan},
			SetField{Field: FieldVlanVID, Value: s.InnerVID},
		)
	}
	actions = append(actions,
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: s.OuterVID},
		Output{Port: s.OutPort},
	)
	return []Flow{
		s.flow(CookieEgressVxlan, TableEgress, s.vxlanMatch(), actions...),
		s.redirect(CookieEgressVxlan, TableInput, TableEgress),
	}, nil
}

// TransitVlan carries transit-tagged traffic through egress into the transit table.
func TransitVlan(s EdgeSpec) ([]Flow, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return []Flow{
		s.flow(CookieTransitVlan, TableTransit,
			Match{FieldInPort: s.InPort, FieldVlanVID: s.TransitVID}, Output{Port: s.OutPort}),
		s.redirect(CookieTransitVlan, TableEgress, TableTransit),
		s.redirect(CookieTransitVlan, TableInput, TableEgress),
	}, nil
}

// TransitVxlan forwards tunnelled traffic with the expected VNI.
func TransitVxlan(s EdgeSpec) ([]Flow, error) {
	if _, err := s.Vxlan.Header(); err != nil {
		return nil, err
	}
	return []Flow{
		s.flow(CookieTransitVxlan, TableTransit, s.vxlanMatch(), Output{Port: s.OutPort}),
		s.redirect(CookieTransitVxlan, TableInput, TableTransit),
	}, nil
}
