package model

import (
	"context"
	"time"
)

// Sample is one point of a rate series.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Query describes a time-range aggregate query over a rate-of-counter series.
// When Start is zero the range is the trailing Window ending now.
type Query struct {
	Metric     string
	Start      time.Time
	End        time.Time
	Window     time.Duration
	Aggregator string
	Downsample string
	Rate       bool
	Tags       map[string]string
}

// MetricsClient defines the time-series backend consumed by the detector and
// by result collection.
type MetricsClient interface {
	// QueryRate returns the aggregated series sorted by time.
	QueryRate(ctx context.Context, q Query) ([]Sample, error)
}
