package openflow

// OutputToPorts builds an ALL group with one single-output bucket per port.
func OutputToPorts(dpid uint64, groupID uint32, ports ...uint32) Group {
	buckets := make([]Bucket, 0, len(ports))
	for _, p := range ports {
		buckets = append(buckets, Bucket{Actions: []Action{Output{Port: p}}})
	}
	return Group{
		DPID:    dpid,
		GroupID: groupID,
		Type:    GroupAll,
		Buckets: buckets,
	}
}

// ToGroup forwards everything arriving on inPort to a group.
func ToGroup(dpid uint64, inPort uint32, groupID uint32, tableID uint8, priority uint16) Flow {
	return Flow{
		DPID:     dpid,
		Cookie:   CookieMulticast,
		TableID:  tableID,
		Priority: priority,
		Match:    InPort(inPort),
		Actions:  []Action{GroupAction{GroupID: groupID}},
	}
}
