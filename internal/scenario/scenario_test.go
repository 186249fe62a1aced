package scenario

import (
	"testing"
	"time"
)

func TestScenario_PacketSizeIteration(t *testing.T) {
	sc := New("pps", nil, pps(), []int{64, 1500}, 0)
	if sc.CollectionInterval != DefaultCollectionInterval {
		t.Errorf("Expected default interval, got %v", sc.CollectionInterval)
	}
	if sc.CurrentPacketSize() != 64 || sc.Current() != nil {
		t.Errorf("Unexpected state before the first size")
	}

	var sizes []int
	for sc.HasNextPacketSize() {
		sizes = append(sizes, sc.NextPacketSize())
	}
	if len(sizes) != 2 || sizes[1] != 1500 || sc.CurrentPacketSize() != 1500 {
		t.Errorf("Unexpected iteration: %v", sizes)
	}
	if len(sc.TimeMetrics) != 2 || sc.Current().PacketSize != 1500 {
		t.Errorf("Expected one TimeMetrics per size, got %d", len(sc.TimeMetrics))
	}

	sc.Reset()
	if !sc.HasNextPacketSize() || len(sc.TimeMetrics) != 0 {
		t.Error("Reset should rewind the iteration")
	}
}

func TestScenario_DefaultPacketSize(t *testing.T) {
	sc := New("pps", nil, pps(), nil, time.Minute)
	if sc.NextPacketSize() != DefaultPacketSize || sc.HasNextPacketSize() {
		t.Errorf("Expected a single default size of %d", DefaultPacketSize)
	}
}

func TestState_String(t *testing.T) {
	if InstallFeatureFlows.String() != "install-feature-flows" || State(42).String() != "unknown" {
		t.Error("Unexpected state names")
	}
}
