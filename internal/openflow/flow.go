package openflow

import (
	"encoding/json"
	"fmt"

	"OFTester/internal/model"
)

// Match is a sparse field→value map; an absent field is a wildcard.
type Match map[string]interface{}

// MarshalJSON always emits an object so that match-all is "{}" rather than null.
func (m Match) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(m))
}

// Key returns a canonical string for the match, suitable for map keys.
func (m Match) Key() string {
	b, _ := m.MarshalJSON()
	return string(b)
}

// InPort is shorthand for the most common match.
func InPort(port uint32) Match {
	return Match{FieldInPort: port}
}

// Flow is one flow-table entry addressed to a datapath.
type Flow struct {
	DPID     uint64   `json:"dpid"`
	Cookie   uint64   `json:"cookie"`
	TableID  uint8    `json:"table_id"`
	Priority uint16   `json:"priority"`
	Match    Match    `json:"match"`
	Actions  []Action `json:"actions"`
}

type flowJSON struct {
	DPID     uint64            `json:"dpid"`
	Cookie   uint64            `json:"cookie"`
	TableID  uint8             `json:"table_id"`
	Priority uint16            `json:"priority"`
	Match    Match             `json:"match"`
	Actions  []json.RawMessage `json:"actions"`
}

// UnmarshalJSON decodes the wire form, resolving every action variant.
func (f *Flow) UnmarshalJSON(data []byte) error {
	var raw flowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	actions, err := decodeActions(raw.Actions)
	if err != nil {
		return err
	}
	*f = Flow{
		DPID:     raw.DPID,
		Cookie:   raw.Cookie,
		TableID:  raw.TableID,
		Priority: raw.Priority,
		Match:    raw.Match,
		Actions:  actions,
	}
	return nil
}

// Validate checks the action-list invariants of a flow.
func (f Flow) Validate() error {
	for i, a := range f.Actions {
		if _, ok := a.(GotoTable); ok && i != len(f.Actions)-1 {
			return model.Invalid("actions", "GOTO_TABLE must be the last action of flow in table %d", f.TableID)
		}
		if g, ok := a.(GotoTable); ok && g.TableID <= f.TableID {
			return model.Invalid("actions", "GOTO_TABLE from table %d to %d does not move forward", f.TableID, g.TableID)
		}
	}
	return nil
}

// String renders a short description for logs.
func (f Flow) String() string {
	return fmt.Sprintf("dpid=%d table=%d prio=%d cookie=%#x match=%s actions=%d",
		f.DPID, f.TableID, f.Priority, f.Cookie, f.Match.Key(), len(f.Actions))
}

// GroupType is the OpenFlow group type.
type GroupType string

// GroupAll executes every bucket.
const GroupAll GroupType = "ALL"

// Bucket is one action list of a group.
type Bucket struct {
	Actions []Action `json:"actions"`
}

// UnmarshalJSON decodes a bucket's action variants.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	actions, err := decodeActions(raw.Actions)
	if err != nil {
		return err
	}
	b.Actions = actions
	return nil
}

// Group is a group-table entry.
type Group struct {
	DPID    uint64    `json:"dpid"`
	GroupID uint32    `json:"group_id"`
	Type    GroupType `json:"type"`
	Buckets []Bucket  `json:"buckets"`
}

// GroupRef addresses a group for deletion.
type GroupRef struct {
	DPID    uint64 `json:"dpid"`
	GroupID uint32 `json:"group_id"`
}

// Ref returns the deletion reference of g.
func (g Group) Ref() GroupRef {
	return GroupRef{DPID: g.DPID, GroupID: g.GroupID}
}
