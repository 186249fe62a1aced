package openflow

import (
	"testing"

	"OFTester/internal/model"

	"github.com/google/go-cmp/cmp"
)

func tables(flows []Flow) []uint8 {
	ids := make([]uint8, len(flows))
	for i, f := range flows {
		ids[i] = f.TableID
	}
	return ids
}

func TestPipelines_DeepestTableFirst(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, PortInPort)
	testCases := []struct {
		name  string
		build func(EdgeSpec) ([]Flow, error)
		want  []uint8
	}{
		{"ingress vlan", IngressVlan, []uint8{2, 1, 0}},
		{"egress vlan", EgressVlan, []uint8{4, 0}},
		{"ingress vxlan", IngressVxlan, []uint8{2, 1, 0}},
		{"egress vxlan", EgressVxlan, []uint8{4, 0}},
		{"transit vlan", TransitVlan, []uint8{5, 4, 0}},
		{"transit vxlan", TransitVxlan, []uint8{5, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flows, err := tc.build(spec)
			if err != nil {
				t.Fatalf("Builder failed: %v", err)
			}
			if diff := cmp.Diff(tc.want, tables(flows)); diff != "" {
				t.Errorf("Unexpected table order (-want +got):\n%s", diff)
			}
			for _, f := range flows {
				if err := f.Validate(); err != nil {
					t.Errorf("Flow %s failed validation: %v", f, err)
				}
			}
		})
	}
}

func TestIngressVlan_PreIngress(t *testing.T) {
	flows, err := IngressVlan(DefaultEdgeSpec(1, 28, PortInPort))
	if err != nil {
		t.Fatalf("IngressVlan failed: %v", err)
	}

	pre := flows[1]
	if diff := cmp.Diff(Match{FieldInPort: uint32(28), FieldVlanVID: 46}, pre.Match); diff != "" {
		t.Errorf("Unexpected pre-ingress match (-want +got):\n%s", diff)
	}
	wantPre := []Action{PopVlan{}, WriteMetadata{Metadata: 1, Mask: 1}, GotoTable{TableID: TableIngress}}
	if diff := cmp.Diff(wantPre, pre.Actions); diff != "" {
		t.Errorf("Unexpected pre-ingress actions (-want +got):\n%s", diff)
	}

	// No inner vid: the packet is untagged after the pop.
	wantIngress := []Action{
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 48},
		Output{Port: PortInPort},
	}
	if diff := cmp.Diff(wantIngress, flows[0].Actions); diff != "" {
		t.Errorf("Unexpected ingress actions (-want +got):\n%s", diff)
	}
	if flows[0].Match[FieldMetadata] != uint64(1) {
		t.Errorf("Ingress should match metadata bit 1, got %v", flows[0].Match)
	}
}

func TestEgressVlan_QinQ(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, 5)
	spec.InnerVID = 47
	flows, err := EgressVlan(spec)
	if err != nil {
		t.Fatalf("EgressVlan failed: %v", err)
	}
	want := []Action{
		SetField{Field: FieldVlanVID, Value: 47},
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 46},
		Output{Port: 5},
	}
	if diff := cmp.Diff(want, flows[0].Actions); diff != "" {
		t.Errorf("Unexpected egress actions (-want +got):\n%s", diff)
	}
	if flows[0].Match[FieldVlanVID] != 48 {
		t.Errorf("Egress should match the transit vid, got %v", flows[0].Match)
	}
}

func TestEgressVxlan_InnerBeforeOuter(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, PortInPort)
	spec.InnerVID = 47
	flows, err := EgressVxlan(spec)
	if err != nil {
		t.Fatalf("EgressVxlan failed: %v", err)
	}
	want := []Action{
		PopVxlan{},
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 47},
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 46},
		Output{Port: PortInPort},
	}
	if diff := cmp.Diff(want, flows[0].Actions); diff != "" {
		t.Errorf("Unexpected egress actions (-want +got):\n%s", diff)
	}
	wantMatch := Match{
		FieldInPort:   uint32(28),
		FieldEthType:  ethTypeIPv4,
		FieldIPProto:  ipProtoUDP,
		FieldUDPDst:   VxlanUDPPort,
		FieldTunnelID: uint32(4242),
	}
	if diff := cmp.Diff(wantMatch, flows[0].Match); diff != "" {
		t.Errorf("Unexpected egress match (-want +got):\n%s", diff)
	}
}

func TestIngressVxlan_PopsInnerTag(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, PortInPort)
	spec.InnerVID = 47
	flows, err := IngressVxlan(spec)
	if err != nil {
		t.Fatalf("IngressVxlan failed: %v", err)
	}
	got := flows[0].Actions
	if len(got) != 3 || got[0].Type() != TypePopVlan || got[1].Type() != TypePushVxlan {
		t.Errorf("Unexpected ingress actions: %v", got)
	}
	if flows[0].Match[FieldVlanVID] != 47 {
		t.Errorf("Ingress should match the inner vid, got %v", flows[0].Match)
	}
}

func TestTransitVxlan_RejectsBadTunnel(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, PortInPort)
	spec.Vxlan.VNI = -1
	if _, err := TransitVxlan(spec); !model.IsValidation(err) {
		t.Errorf("Expected a ValidationError, got %v", err)
	}
}

func TestPipelines_RejectBadVID(t *testing.T) {
	spec := DefaultEdgeSpec(1, 28, PortInPort)
	spec.TransitVID = 5000
	if _, err := IngressVlan(spec); !model.IsValidation(err) {
		t.Errorf("Expected a ValidationError, got %v", err)
	}
}
