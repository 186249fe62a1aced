package scenario

// State is a phase of the per-packet-size state machine.
type State int

const (
	Idle State = iota
	InstallBaseline
	SaturateTraffic
	InstallFeatureFlows
	Collect
	Cleanup
	Done
)

var stateNames = [...]string{
	Idle:                "idle",
	InstallBaseline:     "install-baseline",
	SaturateTraffic:     "saturate-traffic",
	InstallFeatureFlows: "install-feature-flows",
	Collect:             "collect",
	Cleanup:             "cleanup",
	Done:                "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
