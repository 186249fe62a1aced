package model

import "time"

// Marker names a sub-phase instant inside a packet-size iteration.
type Marker struct {
	Name string    `json:"name"`
	DPID uint64    `json:"dpid,omitempty"`
	At   time.Time `json:"at"`
}

// TimeMetrics records the timing of one packet-size iteration. It is opened
// before the baseline install and closed after the collection window.
type TimeMetrics struct {
	PacketSize int       `json:"packet_size"`
	Start      time.Time `json:"start"`
	Stop       time.Time `json:"stop"`
	Markers    []Marker  `json:"markers"`
	Err        string    `json:"error,omitempty"`
}

// Mark appends a named marker.
func (t *TimeMetrics) Mark(name string, dpid uint64, at time.Time) {
	t.Markers = append(t.Markers, Marker{Name: name, DPID: dpid, At: at})
}

// Marker returns the first marker with the given name and dpid.
func (t *TimeMetrics) Marker(name string, dpid uint64) (Marker, bool) {
	for _, m := range t.Markers {
		if m.Name == name && m.DPID == dpid {
			return m, true
		}
	}
	return Marker{}, false
}

// Duration is the length of the iteration, zero while it is still open.
func (t *TimeMetrics) Duration() time.Duration {
	if t.Stop.IsZero() {
		return 0
	}
	return t.Stop.Sub(t.Start)
}

// Series is a named rate series collected for one iteration window.
type Series struct {
	Metric  string   `json:"metric"`
	Samples []Sample `json:"samples"`
}

// RunRecord is everything persisted about one scenario run.
type RunRecord struct {
	RunID       string            `json:"run_id"`
	Scenario    string            `json:"scenario"`
	DPIDs       []uint64          `json:"dpids"`
	PacketSizes []int             `json:"packet_sizes"`
	TimeMetrics []*TimeMetrics    `json:"time_metrics"`
	Series      map[int][]Series  `json:"series,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}
