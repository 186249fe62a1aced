package agent

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"OFTester/internal/control"
	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/pkg/packet"
	"OFTester/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

// Packet-out limits. Frames larger than a jumbo frame are never emitted.
const (
	MaxPktSize = 9216
	MaxCount   = 10000
)

// ErrGroupExists is returned when a group id is added twice.
var ErrGroupExists = errors.New("group already exists")

type flowKey struct {
	table    uint8
	priority uint16
	match    string
}

// Stats counts packet-out activity on one switch.
type Stats struct {
	Flows      int    `json:"flows"`
	Groups     int    `json:"groups"`
	PacketsOut uint64 `json:"packets_out"`
	BytesOut   uint64 `json:"bytes_out"`
}

type switchState struct {
	flows  map[flowKey]openflow.Flow
	groups map[uint32]openflow.Group
	ports  map[uint32]uint32
	stats  Stats
}

func newSwitchState() *switchState {
	return &switchState{
		flows:  make(map[flowKey]openflow.Flow),
		groups: make(map[uint32]openflow.Group),
		ports:  make(map[uint32]uint32),
	}
}

// Agent keeps in-memory flow, group and port tables per switch and synthesizes
// packet-out frames. Flows are keyed by table, priority and match, so adding
// an identical key replaces the earlier entry.
type Agent struct {
	mu       sync.Mutex
	switches map[uint64]*switchState
	capture  *pcap.Writer
	now      func() time.Time
}

// New creates an agent. A non-nil capture writer receives every emitted frame.
func New(capture *pcap.Writer) *Agent {
	return &Agent{
		switches: make(map[uint64]*switchState),
		capture:  capture,
		now:      time.Now,
	}
}

func (a *Agent) state(dpid uint64) *switchState {
	sw, ok := a.switches[dpid]
	if !ok {
		sw = newSwitchState()
		a.switches[dpid] = sw
	}
	return sw
}

// AddFlow installs or replaces a flow.
func (a *Agent) AddFlow(f openflow.Flow) error {
	if err := f.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	key := flowKey{table: f.TableID, priority: f.Priority, match: f.Match.Key()}
	sw := a.state(f.DPID)
	if _, exists := sw.flows[key]; exists {
		log.Debugf("Replacing flow %s", f)
	}
	sw.flows[key] = f
	return nil
}

// ClearFlows removes every flow of a switch.
func (a *Agent) ClearFlows(dpid uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state(dpid).flows = make(map[flowKey]openflow.Flow)
}

// Flows returns the flows of a switch ordered by table, descending priority
// and match.
func (a *Agent) Flows(dpid uint64) []openflow.Flow {
	a.mu.Lock()
	defer a.mu.Unlock()
	sw := a.state(dpid)
	keys := make([]flowKey, 0, len(sw.flows))
	for k := range sw.flows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].table != keys[j].table {
			return keys[i].table < keys[j].table
		}
		if keys[i].priority != keys[j].priority {
			return keys[i].priority > keys[j].priority
		}
		return keys[i].match < keys[j].match
	})
	flows := make([]openflow.Flow, len(keys))
	for i, k := range keys {
		flows[i] = sw.flows[k]
	}
	return flows
}

// AddGroup installs a group.
func (a *Agent) AddGroup(g openflow.Group) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sw := a.state(g.DPID)
	if _, exists := sw.groups[g.GroupID]; exists {
		return fmt.Errorf("group %d on switch %d: %w", g.GroupID, g.DPID, ErrGroupExists)
	}
	sw.groups[g.GroupID] = g
	return nil
}

// DeleteGroup removes a group. Deleting a missing group is not an error.
func (a *Agent) DeleteGroup(ref openflow.GroupRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.state(ref.DPID).groups, ref.GroupID)
}

// Groups returns the groups of a switch ordered by id.
func (a *Agent) Groups(dpid uint64) []openflow.Group {
	a.mu.Lock()
	defer a.mu.Unlock()
	sw := a.state(dpid)
	groups := make([]openflow.Group, 0, len(sw.groups))
	for _, g := range sw.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })
	return groups
}

// ModifyPort applies the masked config bits to a port.
func (a *Agent) ModifyPort(mod control.PortMod) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ports := a.state(mod.DPID).ports
	ports[mod.PortNo] = ports[mod.PortNo]&^mod.Mask | mod.Config&mod.Mask
}

// PortConfig returns the config bits of a port.
func (a *Agent) PortConfig(dpid uint64, port uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state(dpid).ports[port]
}

// PacketOut builds the requested frame and emits it Count times. It returns
// the frame length.
func (a *Agent) PacketOut(dpid uint64, p packet.Params) (int, error) {
	p = p.WithDefaults()
	if p.PktSize > MaxPktSize {
		return 0, model.Invalid("pkt_size", "%d exceeds the %d-byte limit", p.PktSize, MaxPktSize)
	}
	if p.Count > MaxCount {
		return 0, model.Invalid("count", "%d exceeds the limit of %d frames per request", p.Count, MaxCount)
	}
	frame, err := packet.Build(p)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	sw := a.state(dpid)
	sw.stats.PacketsOut += uint64(p.Count)
	sw.stats.BytesOut += uint64(p.Count * len(frame))
	a.mu.Unlock()

	if a.capture != nil {
		ts := a.now()
		for i := 0; i < p.Count; i++ {
			if err := a.capture.WriteFrame(ts, frame); err != nil {
				return 0, fmt.Errorf("failed to capture frame: %w", err)
			}
		}
	}
	log.Debugf("Emitted %d frame(s) of %d bytes on switch %d port %d", p.Count, len(frame), dpid, p.Port)
	return len(frame), nil
}

// Stats returns the table sizes and packet-out counters of a switch.
func (a *Agent) Stats(dpid uint64) Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	sw := a.state(dpid)
	st := sw.stats
	st.Flows = len(sw.flows)
	st.Groups = len(sw.groups)
	return st
}
