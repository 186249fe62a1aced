package scenario

import (
	"time"

	"OFTester/internal/model"
	"OFTester/internal/topology"
)

// Default iteration parameters.
const (
	DefaultPacketSize         = 9000
	DefaultCollectionInterval = 120 * time.Second
)

// Scenario is one named feature measured across a list of packet sizes. It owns
// its TimeMetrics; only the engine running it may mutate them.
type Scenario struct {
	Name               string
	RunID              string
	Env                *topology.Environment
	PacketSizes        []int
	CollectionInterval time.Duration
	Feature            Feature
	Options            Options
	TimeMetrics        []*model.TimeMetrics

	idx int
}

// New creates a scenario, applying the default packet size and collection interval.
func New(name string, env *topology.Environment, feature Feature, packetSizes []int, interval time.Duration) *Scenario {
	if len(packetSizes) == 0 {
		packetSizes = []int{DefaultPacketSize}
	}
	if interval <= 0 {
		interval = DefaultCollectionInterval
	}
	return &Scenario{
		Name:               name,
		Env:                env,
		PacketSizes:        append([]int(nil), packetSizes...),
		CollectionInterval: interval,
		Feature:            feature,
		idx:                -1,
	}
}

// HasNextPacketSize reports whether another packet size remains.
func (s *Scenario) HasNextPacketSize() bool {
	return s.idx < len(s.PacketSizes)-1
}

// NextPacketSize advances to the next size and opens its TimeMetrics record.
func (s *Scenario) NextPacketSize() int {
	s.idx++
	size := s.PacketSizes[s.idx]
	s.TimeMetrics = append(s.TimeMetrics, &model.TimeMetrics{PacketSize: size})
	return size
}

// CurrentPacketSize returns the size being measured, or the first size before
// the first call to NextPacketSize.
func (s *Scenario) CurrentPacketSize() int {
	if s.idx < 0 {
		return s.PacketSizes[0]
	}
	return s.PacketSizes[s.idx]
}

// Current returns the open TimeMetrics record, nil before the first size.
func (s *Scenario) Current() *model.TimeMetrics {
	if len(s.TimeMetrics) == 0 {
		return nil
	}
	return s.TimeMetrics[len(s.TimeMetrics)-1]
}

// Reset rewinds to before the first packet size and drops recorded metrics.
func (s *Scenario) Reset() {
	s.idx = -1
	s.TimeMetrics = nil
}
