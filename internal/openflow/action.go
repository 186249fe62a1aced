package openflow

import (
	"encoding/json"
	"fmt"
)

// Action is one entry of a flow's ordered action list. The set of variants is
// closed; each variant serializes itself into the controller's wire JSON.
type Action interface {
	json.Marshaler
	// Type returns the wire "type" tag.
	Type() string
	isAction()
}

// Output forwards the packet to a port.
type Output struct {
	Port uint32
}

// GotoTable continues processing in another table. It must be the last action.
type GotoTable struct {
	TableID uint8
}

// PushVlan pushes a new outermost 802.1Q tag.
type PushVlan struct {
	EtherType uint16
}

// PopVlan removes the outermost tag.
type PopVlan struct{}

// SetField rewrites one header field.
type SetField struct {
	Field string
	Value interface{}
}

// WriteMetadata sets the masked bits of the pipeline metadata register.
type WriteMetadata struct {
	Metadata uint64
	Mask     uint64
}

// VxlanHeader carries the outer headers of a VXLAN encapsulation.
type VxlanHeader struct {
	EthSrc  string
	EthDst  string
	IPv4Src string
	IPv4Dst string
	UDPSrc  uint16
	VNI     uint32
}

// PushVxlan encapsulates into VXLAN. A nil Header emits the bare form whose
// header fields are supplied by subsequent SetField actions.
type PushVxlan struct {
	Header *VxlanHeader
}

// PopVxlan strips the VXLAN encapsulation.
type PopVxlan struct{}

// FieldMove describes n_bits moved between two header locations.
type FieldMove struct {
	NBits     int
	SrcOffset int
	DstOffset int
	Src       string
	Dst       string
}

// SwapField exchanges bits between two fields.
type SwapField struct {
	FieldMove
}

// CopyField copies bits from one field into another.
type CopyField struct {
	FieldMove
}

// Experimenter is a vendor action carrying an opaque payload.
type Experimenter struct {
	Experimenter uint32
	Data         string
	DataType     string
}

// GroupAction sends the packet to a group.
type GroupAction struct {
	GroupID uint32
}

// Wire type tags.
const (
	TypeOutput        = "OUTPUT"
	TypeGotoTable     = "GOTO_TABLE"
	TypePushVlan      = "PUSH_VLAN"
	TypePopVlan       = "POP_VLAN"
	TypeSetField      = "SET_FIELD"
	TypeWriteMetadata = "WRITE_METADATA"
	TypePushVxlan     = "NOVI_PUSH_VXLAN"
	TypePopVxlan      = "NOVI_POP_VXLAN"
	TypeSwapField     = "NOVI_SWAP_FIELD"
	TypeCopyField     = "NOVI_COPY_FIELD"
	TypeExperimenter  = "EXPERIMENTER"
	TypeGroup         = "GROUP"
)

func (Output) Type() string        { return TypeOutput }
func (GotoTable) Type() string     { return TypeGotoTable }
func (PushVlan) Type() string      { return TypePushVlan }
func (PopVlan) Type() string       { return TypePopVlan }
func (SetField) Type() string      { return TypeSetField }
func (WriteMetadata) Type() string { return TypeWriteMetadata }
func (PushVxlan) Type() string     { return TypePushVxlan }
func (PopVxlan) Type() string      { return TypePopVxlan }
func (SwapField) Type() string     { return TypeSwapField }
func (CopyField) Type() string     { return TypeCopyField }
func (Experimenter) Type() string  { return TypeExperimenter }
func (GroupAction) Type() string   { return TypeGroup }

func (Output) isAction()        {}
func (GotoTable) isAction()     {}
func (PushVlan) isAction()      {}
func (PopVlan) isAction()       {}
func (SetField) isAction()      {}
func (WriteMetadata) isAction() {}
func (PushVxlan) isAction()     {}
func (PopVxlan) isAction()      {}
func (SwapField) isAction()     {}
func (CopyField) isAction()     {}
func (Experimenter) isAction()  {}
func (GroupAction) isAction()   {}

type typeOnly struct {
	Type string `json:"type"`
}

func (a Output) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Port uint32 `json:"port"`
	}{TypeOutput, a.Port})
}

func (a GotoTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		TableID uint8  `json:"table_id"`
	}{TypeGotoTable, a.TableID})
}

func (a PushVlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		EtherType uint16 `json:"ethertype"`
	}{TypePushVlan, a.EtherType})
}

func (PopVlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeOnly{TypePopVlan})
}

func (a SetField) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string      `json:"type"`
		Field string      `json:"field"`
		Value interface{} `json:"value"`
	}{TypeSetField, a.Field, a.Value})
}

func (a WriteMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Metadata uint64 `json:"metadata"`
		Mask     uint64 `json:"metadata_mask"`
	}{TypeWriteMetadata, a.Metadata, a.Mask})
}

func (a PushVxlan) MarshalJSON() ([]byte, error) {
	if a.Header == nil {
		return json.Marshal(typeOnly{TypePushVxlan})
	}
	h := a.Header
	return json.Marshal(struct {
		Type    string `json:"type"`
		EthSrc  string `json:"eth_src"`
		EthDst  string `json:"eth_dst"`
		IPv4Src string `json:"ipv4_src"`
		IPv4Dst string `json:"ipv4_dst"`
		UDPSrc  uint16 `json:"udp_src"`
		VNI     uint32 `json:"vni"`
	}{TypePushVxlan, h.EthSrc, h.EthDst, h.IPv4Src, h.IPv4Dst, h.UDPSrc, h.VNI})
}

func (PopVxlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeOnly{TypePopVxlan})
}

type fieldMoveJSON struct {
	Type      string `json:"type"`
	NBits     int    `json:"n_bits"`
	SrcOffset int    `json:"src_offset"`
	DstOffset int    `json:"dst_offset"`
	Src       string `json:"src"`
	Dst       string `json:"dst"`
}

func (m FieldMove) wire(typ string) fieldMoveJSON {
	return fieldMoveJSON{typ, m.NBits, m.SrcOffset, m.DstOffset, m.Src, m.Dst}
}

func (a SwapField) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.wire(TypeSwapField))
}

func (a CopyField) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.wire(TypeCopyField))
}

func (a Experimenter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string `json:"type"`
		Experimenter uint32 `json:"experimenter"`
		Data         string `json:"data"`
		DataType     string `json:"data_type"`
	}{TypeExperimenter, a.Experimenter, a.Data, a.DataType})
}

func (a GroupAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		GroupID uint32 `json:"group_id"`
	}{TypeGroup, a.GroupID})
}

// actionJSON is the union of every variant's wire keys.
type actionJSON struct {
	Type         string          `json:"type"`
	Port         uint32          `json:"port"`
	TableID      uint8           `json:"table_id"`
	EtherType    uint16          `json:"ethertype"`
	Field        string          `json:"field"`
	Value        json.RawMessage `json:"value"`
	Metadata     uint64          `json:"metadata"`
	MetadataMask uint64          `json:"metadata_mask"`
	EthSrc       *string         `json:"eth_src"`
	EthDst       string          `json:"eth_dst"`
	IPv4Src      string          `json:"ipv4_src"`
	IPv4Dst      string          `json:"ipv4_dst"`
	UDPSrc       uint16          `json:"udp_src"`
	VNI          uint32          `json:"vni"`
	NBits        int             `json:"n_bits"`
	SrcOffset    int             `json:"src_offset"`
	DstOffset    int             `json:"dst_offset"`
	Src          string          `json:"src"`
	Dst          string          `json:"dst"`
	Experimenter uint32          `json:"experimenter"`
	Data         string          `json:"data"`
	DataType     string          `json:"data_type"`
	GroupID      uint32          `json:"group_id"`
}

// DecodeAction parses one wire action. Unknown types are rejected.
func DecodeAction(data []byte) (Action, error) {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	switch raw.Type {
	case TypeOutput:
		return Output{Port: raw.Port}, nil
	case TypeGotoTable:
		return GotoTable{TableID: raw.TableID}, nil
	case TypePushVlan:
		return PushVlan{EtherType: raw.EtherType}, nil
	case TypePopVlan:
		return PopVlan{}, nil
	case TypeSetField:
		var v interface{}
		if len(raw.Value) > 0 {
			if err := json.Unmarshal(raw.Value, &v); err != nil {
				return nil, fmt.Errorf("failed to decode SET_FIELD value: %w", err)
			}
		}
		// JSON numbers decode as float64; keep integral values integral.
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			v = int(f)
		}
		return SetField{Field: raw.Field, Value: v}, nil
	case TypeWriteMetadata:
		return WriteMetadata{Metadata: raw.Metadata, Mask: raw.MetadataMask}, nil
	case TypePushVxlan:
		if raw.EthSrc == nil {
			return PushVxlan{}, nil
		}
		return PushVxlan{Header: &VxlanHeader{
			EthSrc:  *raw.EthSrc,
			EthDst:  raw.EthDst,
			IPv4Src: raw.IPv4Src,
			IPv4Dst: raw.IPv4Dst,
			UDPSrc:  raw.UDPSrc,
			VNI:     raw.VNI,
		}}, nil
	case TypePopVxlan:
		return PopVxlan{}, nil
	case TypeSwapField, TypeCopyField:
		m := FieldMove{NBits: raw.NBits, SrcOffset: raw.SrcOffset, DstOffset: raw.DstOffset, Src: raw.Src, Dst: raw.Dst}
		if raw.Type == TypeSwapField {
			return SwapField{m}, nil
		}
		return CopyField{m}, nil
	case TypeExperimenter:
		return Experimenter{Experimenter: raw.Experimenter, Data: raw.Data, DataType: raw.DataType}, nil
	case TypeGroup:
		return GroupAction{GroupID: raw.GroupID}, nil
	default:
		return nil, fmt.Errorf("unknown action type: '%s'", raw.Type)
	}
}

// decodeActions decodes a wire action list, preserving order.
func decodeActions(raws []json.RawMessage) ([]Action, error) {
	actions := make([]Action, 0, len(raws))
	for i, r := range raws {
		a, err := DecodeAction(r)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// IsMutation reports whether the action rewrites packet headers.
func IsMutation(a Action) bool {
	switch a.(type) {
	case PushVlan, PopVlan, SetField, PushVxlan, PopVxlan, SwapField, CopyField, Experimenter:
		return true
	}
	return false
}
