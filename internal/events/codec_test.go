package events

import (
	"testing"
	"time"

	"OFTester/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecode(t *testing.T) {
	ev := model.Event{
		RunID:      "3f1c",
		Scenario:   "vxlan",
		State:      "saturate-traffic",
		PacketSize: 9000,
		DPID:       0xffffffffffffff01,
		At:         time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC),
		Err:        "switch 1: steady state not reached",
	}
	data, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("Event changed in transit (-want +got):\n%s", diff)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("Expected an error for a malformed payload")
	}
}

func TestEncodeDecode_ZeroEvent(t *testing.T) {
	data, err := Encode(model.Event{State: "idle", At: time.Unix(0, 0)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.DPID != 0 || got.State != "idle" {
		t.Errorf("Unexpected event: %+v", got)
	}
}
