package detector

import (
	"fmt"
	"math"
)

// epsilon replaces a zero current rate as the growth denominator.
const epsilon = 1e-9

// Thresholds tune the steady-state verdict.
type Thresholds struct {
	// MinRate is the activity floor; a series below it is idle, not steady.
	MinRate float64
	// GrowthThreshold is the largest growth rate, in percent, still counted as steady.
	GrowthThreshold float64
}

// DefaultThresholds returns a floor of 1000 and a growth threshold of 0.05%.
func DefaultThresholds() Thresholds {
	return Thresholds{MinRate: 1000, GrowthThreshold: 0.05}
}

// Verdict is the outcome of comparing the two latest samples.
type Verdict struct {
	Steady     bool
	GrowthRate float64
	Reason     string
}

// GrowthRate returns |curr-prev| / curr in percent.
func GrowthRate(prev, curr float64) float64 {
	denom := curr
	if denom == 0 {
		denom = epsilon
	}
	return math.Abs(curr-prev) / math.Abs(denom) * 100
}

// Evaluate decides whether the series has plateaued. The activity floor is
// checked first, so an idle series is never steady. An exact-zero growth is
// rejected because it means the backend has not refreshed since the last poll.
func Evaluate(prev, curr float64, th Thresholds) Verdict {
	growth := GrowthRate(prev, curr)
	switch {
	case curr < th.MinRate:
		return Verdict{GrowthRate: growth, Reason: fmt.Sprintf("rate %.0f below activity floor %.0f", curr, th.MinRate)}
	case growth == 0:
		return Verdict{GrowthRate: growth, Reason: "no change between samples"}
	case growth < th.GrowthThreshold:
		return Verdict{Steady: true, GrowthRate: growth, Reason: "steady"}
	default:
		return Verdict{GrowthRate: growth, Reason: fmt.Sprintf("growth %.4f%% above %.4f%%", growth, th.GrowthThreshold)}
	}
}
