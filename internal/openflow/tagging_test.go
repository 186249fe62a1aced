package openflow

import (
	"encoding/base64"
	"testing"

	"OFTester/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestVlanPushPop_QinQ(t *testing.T) {
	flow, err := VlanPushPop(VlanSpec{DPID: 1, InPort: 5, OutPort: 6, Op: VlanPush, OuterVID: 100, InnerVID: 200})
	if err != nil {
		t.Fatalf("VlanPushPop failed: %v", err)
	}

	want := []Action{
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 200},
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 100},
		Output{Port: 6},
	}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
	if flow.Cookie != CookieVlan || flow.Priority != PriorityFeature {
		t.Errorf("Unexpected flow header: %s", flow)
	}
}

func TestVlanPushPop_OutputFirst(t *testing.T) {
	flow, err := VlanPushPop(VlanSpec{DPID: 1, InPort: 5, OutPort: 6, Op: VlanPush, OuterVID: 100, Order: OutputFirst})
	if err != nil {
		t.Fatalf("VlanPushPop failed: %v", err)
	}
	want := []Action{
		Output{Port: 6},
		PushVlan{EtherType: EtherTypeVlan},
		SetField{Field: FieldVlanVID, Value: 100},
	}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
}

func TestVlanPushPop_Pop(t *testing.T) {
	flow, err := VlanPushPop(VlanSpec{DPID: 1, InPort: 5, OutPort: 6, Op: VlanPop})
	if err != nil {
		t.Fatalf("VlanPushPop failed: %v", err)
	}
	want := []Action{PopVlan{}, Output{Port: 6}}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
}

func TestVlanPushPop_RejectsBadVID(t *testing.T) {
	for _, vid := range []int{-1, 4096} {
		_, err := VlanPushPop(VlanSpec{DPID: 1, InPort: 5, OutPort: 6, Op: VlanPush, OuterVID: vid})
		if !model.IsValidation(err) {
			t.Errorf("vid %d: expected a ValidationError, got %v", vid, err)
		}
	}
}

func TestVxlanPush_Headered(t *testing.T) {
	flow, err := VxlanPush(DefaultVxlanSpec(1, 5, PortInPort))
	if err != nil {
		t.Fatalf("VxlanPush failed: %v", err)
	}
	want := []Action{
		PushVxlan{Header: &VxlanHeader{
			EthSrc:  "11:22:33:44:55:66",
			EthDst:  "aa:bb:cc:dd:ee:ff",
			IPv4Src: "192.168.0.1",
			IPv4Dst: "192.168.0.2",
			UDPSrc:  5000,
			VNI:     4242,
		}},
		Output{Port: PortInPort},
	}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
}

func TestVxlanPush_FlagsZero(t *testing.T) {
	spec := DefaultVxlanSpec(1, 5, 6)
	spec.Flags = 0
	flow, err := VxlanPush(spec)
	if err != nil {
		t.Fatalf("VxlanPush failed: %v", err)
	}
	want := []Action{
		PushVxlan{},
		SetField{Field: FieldEthSrc, Value: "11:22:33:44:55:66"},
		SetField{Field: FieldEthDst, Value: "aa:bb:cc:dd:ee:ff"},
		SetField{Field: FieldIPv4Src, Value: "192.168.0.1"},
		SetField{Field: FieldIPv4Dst, Value: "192.168.0.2"},
		SetField{Field: FieldUDPSrc, Value: 5000},
		SetField{Field: FieldTunnelID, Value: 4242},
		Output{Port: 6},
	}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
}

func TestVxlanPush_RejectsOutOfRange(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*VxlanSpec)
	}{
		{"udp port too large", func(s *VxlanSpec) { s.UDPPort = 70000 }},
		{"negative vni", func(s *VxlanSpec) { s.VNI = -1 }},
		{"vni too large", func(s *VxlanSpec) { s.VNI = 1 << 32 }},
		{"bad flags", func(s *VxlanSpec) { s.Flags = 2 }},
		{"bad mac", func(s *VxlanSpec) { s.SrcMAC = "not-a-mac" }},
		{"ipv6 address", func(s *VxlanSpec) { s.DstIP = "fe80::1" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := DefaultVxlanSpec(1, 5, 6)
			tc.mutate(&spec)
			if _, err := VxlanPush(spec); !model.IsValidation(err) {
				t.Errorf("Expected a ValidationError, got %v", err)
			}
		})
	}
}

func TestVxlanPush_AcceptsBoundaries(t *testing.T) {
	spec := DefaultVxlanSpec(1, 5, 6)
	spec.UDPPort = 65535
	spec.VNI = 1<<32 - 1
	if _, err := VxlanPush(spec); err != nil {
		t.Errorf("Expected boundary values to be accepted, got %v", err)
	}
}

func TestVxlanPushExperimenter(t *testing.T) {
	action, err := VxlanPushExperimenter(DefaultVxlanSpec(1, 5, 6))
	if err != nil {
		t.Fatalf("VxlanPushExperimenter failed: %v", err)
	}
	if action.Experimenter != NoviflowExperimenter || action.DataType != "base64" {
		t.Errorf("Unexpected experimenter header: %+v", action)
	}

	payload, err := base64.StdEncoding.DecodeString(action.Data)
	if err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if len(payload) != 38 {
		t.Fatalf("Expected 38 payload bytes, got %d", len(payload))
	}
	want := []byte{
		0xff, 0x00, 0x00, 0x02, 0x00, 0x01,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
		192, 168, 0, 1,
		192, 168, 0, 2,
		0x00, 0x00, 0x13, 0x88,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x92,
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("Unexpected payload (-want +got):\n%s", diff)
	}
}

func TestVxlanExperimenter_Fixed(t *testing.T) {
	if got := VxlanPopExperimenter().Data; got != "/wAAAwAAAAA=" {
		t.Errorf("Unexpected pop payload %q", got)
	}

	spec := DefaultVxlanSpec(1, 5, 6)
	spec.Flags = 0
	push, err := VxlanPushExperimenter(spec)
	if err != nil {
		t.Fatalf("VxlanPushExperimenter failed: %v", err)
	}
	if push.Data != "/wAAAgAAAAAA" {
		t.Errorf("Unexpected flags-0 push payload %q", push.Data)
	}
}

func TestVxlanPushLegacy(t *testing.T) {
	flow, err := VxlanPushLegacy(DefaultVxlanSpec(1, 5, 6))
	if err != nil {
		t.Fatalf("VxlanPushLegacy failed: %v", err)
	}
	if len(flow.Actions) != 2 || flow.Actions[0].Type() != TypeExperimenter {
		t.Errorf("Unexpected legacy actions: %v", flow.Actions)
	}
}

func TestVxlanPop(t *testing.T) {
	flow := VxlanPop(1, 5, 6, 0, PriorityFeature)
	want := []Action{PopVxlan{}, Output{Port: 6}}
	if diff := cmp.Diff(want, flow.Actions); diff != "" {
		t.Errorf("Unexpected actions (-want +got):\n%s", diff)
	}
}

func TestOutputToPorts(t *testing.T) {
	group := OutputToPorts(1, GroupID, 5, 6, 7)
	if group.Type != GroupAll || len(group.Buckets) != 3 {
		t.Fatalf("Unexpected group: %+v", group)
	}
	for i, b := range group.Buckets {
		if diff := cmp.Diff([]Action{Output{Port: uint32(5 + i)}}, b.Actions); diff != "" {
			t.Errorf("Bucket %d (-want +got):\n%s", i, diff)
		}
	}
	if ref := group.Ref(); ref.DPID != 1 || ref.GroupID != GroupID {
		t.Errorf("Unexpected group ref: %+v", ref)
	}

	flow := ToGroup(1, 5, GroupID, 0, PriorityFeature)
	if diff := cmp.Diff([]Action{GroupAction{GroupID: GroupID}}, flow.Actions); diff != "" {
		t.Errorf("Unexpected to-group actions (-want +got):\n%s", diff)
	}
}
