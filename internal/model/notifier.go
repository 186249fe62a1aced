package model

import "time"

// Event is a scenario lifecycle notification.
type Event struct {
	RunID      string
	Scenario   string
	State      string
	PacketSize int
	DPID       uint64
	At         time.Time
	Err        string
}

// Publisher defines a generic interface for broadcasting lifecycle events.
type Publisher interface {
	Publish(ev Event) error
	Close()
}
