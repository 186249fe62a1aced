package topology

import (
	"fmt"
	"net"
	"strconv"

	"OFTester/internal/config"
	"OFTester/internal/model"
)

// Switch is one switch under test. Snake ports are cabled in pairs
// (start+1 to start+2, start+3 to start+4, ...) so one injected stream can
// visit every port.
type Switch struct {
	DPID           uint64
	SnakeStartPort uint32
	SnakeEndPort   uint32
	IngressPort    uint32
	EgressPort     uint32
	TraffGenPorts  []uint32
}

// Validate checks the port wiring.
func (s Switch) Validate() error {
	if s.SnakeStartPort == 0 || s.SnakeEndPort == 0 {
		return model.Invalid("snake", "switch %d: snake ports must be positive", s.DPID)
	}
	if s.SnakeEndPort < s.SnakeStartPort {
		return model.Invalid("snake", "switch %d: end port %d is lower than start port %d", s.DPID, s.SnakeEndPort, s.SnakeStartPort)
	}
	if (s.SnakeEndPort-s.SnakeStartPort+1)%2 != 0 {
		return model.Invalid("snake", "switch %d: ports %d-%d do not form cabled pairs", s.DPID, s.SnakeStartPort, s.SnakeEndPort)
	}
	if s.IngressPort == 0 || s.EgressPort == 0 {
		return model.Invalid("ports", "switch %d: ingress and egress ports must be positive", s.DPID)
	}
	for _, p := range s.TraffGenPorts {
		if p == 0 {
			return model.Invalid("traffgen_ports", "switch %d: traffic generator ports must be positive", s.DPID)
		}
	}
	return nil
}

// Environment holds the control-plane and metrics endpoints and the switches
// under test in configuration order.
type Environment struct {
	OtsdbHost      string
	OtsdbPort      int
	OtsdbPrefix    string
	ControllerHost string
	ControllerPort int
	Reports        string

	switches []*Switch
	byDPID   map[uint64]*Switch
}

// NewEnvironment builds an Environment from its configuration block. Every
// switch is parsed and validated; duplicate dpids are rejected.
func NewEnvironment(cfg config.EnvironmentConfig) (*Environment, error) {
	env := &Environment{
		OtsdbHost:      cfg.OtsdbHost,
		OtsdbPort:      cfg.OtsdbPort,
		OtsdbPrefix:    cfg.OtsdbPrefix,
		ControllerHost: cfg.ControllerHost,
		ControllerPort: cfg.ControllerPort,
		Reports:        cfg.Reports,
		byDPID:         make(map[uint64]*Switch),
	}
	for _, def := range cfg.Switches {
		dpid, err := ParseDPID(def.DPID)
		if err != nil {
			return nil, err
		}
		sw := &Switch{
			DPID:           dpid,
			SnakeStartPort: def.SnakeStartPort,
			SnakeEndPort:   def.SnakeEndPort,
			IngressPort:    def.IngressPort,
			EgressPort:     def.EgressPort,
			TraffGenPorts:  append([]uint32(nil), def.TraffGenPorts...),
		}
		if err := env.Add(sw); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Add validates and appends a switch.
func (e *Environment) Add(sw *Switch) error {
	if err := sw.Validate(); err != nil {
		return err
	}
	if e.byDPID == nil {
		e.byDPID = make(map[uint64]*Switch)
	}
	if _, exists := e.byDPID[sw.DPID]; exists {
		return model.Invalid("dpid", "switch %s configured twice", FormatDPID(sw.DPID))
	}
	e.byDPID[sw.DPID] = sw
	e.switches = append(e.switches, sw)
	return nil
}

// Switch returns the switch with the given dpid.
func (e *Environment) Switch(dpid uint64) (*Switch, error) {
	sw, ok := e.byDPID[dpid]
	if !ok {
		return nil, model.Invalid("dpid", "unknown switch %d", dpid)
	}
	return sw, nil
}

// Switches returns every switch in configuration order.
func (e *Environment) Switches() []*Switch {
	out := make([]*Switch, len(e.switches))
	copy(out, e.switches)
	return out
}

// DPIDs returns every dpid in configuration order.
func (e *Environment) DPIDs() []uint64 {
	ids := make([]uint64, 0, len(e.switches))
	for _, sw := range e.switches {
		ids = append(ids, sw.DPID)
	}
	return ids
}

// ControllerURL is the base URL of the controller's REST surface.
func (e *Environment) ControllerURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(e.ControllerHost, strconv.Itoa(e.ControllerPort)))
}

// MetricsURL is the base URL of the OpenTSDB HTTP API.
func (e *Environment) MetricsURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(e.OtsdbHost, strconv.Itoa(e.OtsdbPort)))
}

// Metric returns a metric name under the environment prefix.
func (e *Environment) Metric(name string) string {
	if e.OtsdbPrefix == "" {
		return name
	}
	return e.OtsdbPrefix + "." + name
}
