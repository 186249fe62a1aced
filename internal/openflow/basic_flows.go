package openflow

import (
	"sort"

	"OFTester/internal/model"
)

// LoopAllPorts matches everything and sends the packet back out of the port it
// arrived on.
func LoopAllPorts(dpid uint64, tableID uint8, priority uint16) Flow {
	return Flow{
		DPID:     dpid,
		Cookie:   CookieLoop,
		TableID:  tableID,
		Priority: priority,
		Match:    Match{},
		Actions:  []Action{Output{Port: PortInPort}},
	}
}

// GotoTableFlow matches everything and continues in dstTable.
func GotoTableFlow(dpid uint64, tableID, dstTable uint8, priority uint16) Flow {
	return Flow{
		DPID:     dpid,
		Cookie:   CookieGotoTable,
		TableID:  tableID,
		Priority: priority,
		Match:    Match{},
		Actions:  []Action{GotoTable{TableID: dstTable}},
	}
}

// GotoChain links every table in [from, to) to its successor.
func GotoChain(dpid uint64, from, to uint8, priority uint16) ([]Flow, error) {
	if to <= from {
		return nil, model.Invalid("goto_chain", "last table %d must follow first table %d", to, from)
	}
	flows := make([]Flow, 0, int(to-from))
	for t := from; t < to; t++ {
		flows = append(flows, GotoTableFlow(dpid, t, t+1, priority))
	}
	return flows, nil
}

// PassThrough forwards everything arriving on inPort to outPort.
func PassThrough(dpid uint64, inPort, outPort uint32) Flow {
	return Flow{
		DPID:     dpid,
		Cookie:   CookiePassThrough,
		TableID:  TableInput,
		Priority: PriorityBaseline,
		Match:    InPort(inPort),
		Actions:  []Action{Output{Port: outPort}},
	}
}

// Snake chains every port between start and end into one loop. Ports are
// assumed to be cabled in pairs (start+1 to start+2, start+3 to start+4, ...).
// The forward pass walks the pairs upwards and closes end→start, the reverse
// pass walks them downwards and closes start→end.
//
// For some start/end parities both passes match the same interior in_port with
// different outputs; the order returned here is the install order.
func Snake(dpid uint64, startPort, endPort uint32, tableID uint8) ([]Flow, error) {
	if endPort < startPort {
		return nil, model.Invalid("snake", "end port %d is lower than start port %d", endPort, startPort)
	}
	start, end := int64(startPort), int64(endPort)
	cookie := CookieSnake + uint64(tableID)

	hop := func(in, out int64) Flow {
		return Flow{
			DPID:     dpid,
			Cookie:   cookie,
			TableID:  tableID,
			Priority: PriorityBaseline,
			Match:    InPort(uint32(in)),
			Actions:  []Action{Output{Port: uint32(out)}},
		}
	}

	var flows []Flow
	for x := start; x < end-2; x += 2 {
		flows = append(flows, hop(x+1, x+2))
	}
	flows = append(flows, hop(end, start))

	for x := end; x > start+2; x -= 2 {
		flows = append(flows, hop(x-1, x-2))
	}
	flows = append(flows, hop(start, end))
	return flows, nil
}

// MetadataChain writes metadata bit 1 in table 0 and emits from table 1, which
// measures metadata propagation across a table hop.
func MetadataChain(dpid uint64, inPort, outPort uint32, priority uint16) []Flow {
	return []Flow{
		{
			DPID:     dpid,
			Cookie:   CookieMetadata,
			TableID:  TableInput,
			Priority: priority,
			Match:    InPort(inPort),
			Actions: []Action{
				WriteMetadata{Metadata: 1, Mask: 1},
				GotoTable{TableID: 1},
			},
		},
		{
			DPID:     dpid,
			Cookie:   CookieMetadataOut,
			TableID:  1,
			Priority: priority,
			Match:    Match{},
			Actions:  []Action{Output{Port: outPort}},
		},
	}
}

// SetFields rewrites each field in values and forwards to outPort. Fields are
// emitted in name order.
func SetFields(dpid uint64, inPort, outPort uint32, tableID uint8, priority uint16, values map[string]interface{}) Flow {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	actions := make([]Action, 0, len(values)+1)
	for _, name := range names {
		actions = append(actions, SetField{Field: name, Value: values[name]})
	}
	actions = append(actions, Output{Port: outPort})
	return Flow{
		DPID:     dpid,
		Cookie:   CookieSetFields,
		TableID:  tableID,
		Priority: priority,
		Match:    InPort(inPort),
		Actions:  actions,
	}
}

// FieldMoveSpec parameterizes SwapFields and CopyFields.
type FieldMoveSpec struct {
	DPID     uint64
	InPort   uint32
	OutPort  uint32
	TableID  uint8
	Priority uint16
	Move     FieldMove
}

// DefaultFieldMove moves the whole 48-bit source MAC into the destination MAC.
func DefaultFieldMove() FieldMove {
	return FieldMove{NBits: 48, Src: FieldEthSrc, Dst: FieldEthDst}
}

func (s FieldMoveSpec) validate() error {
	m := s.Move
	if m.Src == "" || m.Dst == "" {
		return model.Invalid("field_move", "source and destination fields are required")
	}
	if m.NBits <= 0 {
		return model.Invalid("n_bits", "must be positive, got %d", m.NBits)
	}
	if m.SrcOffset < 0 || m.DstOffset < 0 {
		return model.Invalid("offset", "offsets must not be negative (src=%d dst=%d)", m.SrcOffset, m.DstOffset)
	}
	return nil
}

func (s FieldMoveSpec) flow(cookie uint64, move Action) Flow {
	priority := s.Priority
	if priority == 0 {
		priority = PriorityFeature
	}
	return Flow{
		DPID:     s.DPID,
		Cookie:   cookie,
		TableID:  s.TableID,
		Priority: priority,
		Match:    InPort(s.InPort),
		Actions:  []Action{move, Output{Port: s.OutPort}},
	}
}

// SwapFields exchanges n_bits between two header locations before forwarding.
func SwapFields(s FieldMoveSpec) (Flow, error) {
	if err := s.validate(); err != nil {
		return Flow{}, err
	}
	return s.flow(CookieSwapFields, SwapField{s.Move}), nil
}

// CopyFields copies n_bits from one header location to another before forwarding.
func CopyFields(s FieldMoveSpec) (Flow, error) {
	if err := s.validate(); err != nil {
		return Flow{}, err
	}
	return s.flow(CookieCopyFields, CopyField{s.Move}), nil
}
