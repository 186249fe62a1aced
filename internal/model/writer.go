package model

// Writer defines a generic interface for persisting scenario run records.
type Writer interface {
	// Write takes a completed run record and persists it.
	Write(record *RunRecord) error

	// Name identifies the writer in logs.
	Name() string
}
