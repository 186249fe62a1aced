package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SwitchDef describes one switch under test and its port wiring.
type SwitchDef struct {
	DPID           string   `yaml:"dpid"`
	SnakeStartPort uint32   `yaml:"snake_start_port"`
	SnakeEndPort   uint32   `yaml:"snake_end_port"`
	IngressPort    uint32   `yaml:"ingress_port"`
	EgressPort     uint32   `yaml:"egress_port"`
	TraffGenPorts  []uint32 `yaml:"traffgen_ports"`
}

// EnvironmentConfig holds the control-plane and metrics endpoints and the switches.
type EnvironmentConfig struct {
	OtsdbHost      string      `yaml:"otsdb_host"`
	OtsdbPort      int         `yaml:"otsdb_port"`
	OtsdbPrefix    string      `yaml:"otsdb_prefix"`
	ControllerHost string      `yaml:"ryu_host"`
	ControllerPort int         `yaml:"ryu_port"`
	Reports        string      `yaml:"reports"`
	Switches       []SwitchDef `yaml:"switches"`
}

// DetectorConfig bounds the steady-state wait.
type DetectorConfig struct {
	PollInterval    string  `yaml:"poll_interval"`
	Window          string  `yaml:"window"`
	Downsample      string  `yaml:"downsample"`
	MaxPolls        int     `yaml:"max_polls"`
	Timeout         string  `yaml:"timeout"`
	MinRate         float64 `yaml:"min_rate"`
	GrowthThreshold float64 `yaml:"growth_threshold"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// MetricsConfig selects the time-series backend.
type MetricsConfig struct {
	Backend    string           `yaml:"backend"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// ResultsConfig selects where run records go.
type ResultsConfig struct {
	Writers         []string         `yaml:"writers"`
	StorageRootPath string           `yaml:"storage_root_path"`
	ClickHouse      ClickHouseConfig `yaml:"clickhouse"`
}

// EventsConfig holds the NATS settings for lifecycle events.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// AgentConfig holds the settings of the reference controller agent.
type AgentConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	HealthAddr string `yaml:"health_addr"`
	CaptureDir string `yaml:"capture_dir"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Scenarios          []string          `yaml:"scenarios"`
	PacketSizes        []int             `yaml:"packet_sizes"`
	CollectionInterval string            `yaml:"collection_interval"`
	SettleTime         string            `yaml:"settle_time"`
	DrainTime          string            `yaml:"drain_time"`
	ActionOrder        string            `yaml:"action_order"`
	VxlanExperimenter  bool              `yaml:"vxlan_experimenter"`
	Environment        EnvironmentConfig `yaml:"environment"`
	Detector           DetectorConfig    `yaml:"detector"`
	Metrics            MetricsConfig     `yaml:"metrics"`
	Results            ResultsConfig     `yaml:"results"`
	Events             EventsConfig      `yaml:"events"`
	Agent              AgentConfig       `yaml:"agent"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML, fills in defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.PacketSizes) == 0 {
		c.PacketSizes = []int{9000}
	}
	if c.CollectionInterval == "" {
		c.CollectionInterval = "120s"
	}
	if c.SettleTime == "" {
		c.SettleTime = "30s"
	}
	if c.DrainTime == "" {
		c.DrainTime = "10s"
	}
	if c.ActionOrder == "" {
		c.ActionOrder = "mutations-first"
	}
	if c.Environment.OtsdbPrefix == "" {
		c.Environment.OtsdbPrefix = "tpn"
	}
	if c.Environment.OtsdbPort == 0 {
		c.Environment.OtsdbPort = 4242
	}
	if c.Environment.ControllerPort == 0 {
		c.Environment.ControllerPort = 8080
	}

	d := &c.Detector
	if d.PollInterval == "" {
		d.PollInterval = "1s"
	}
	if d.Window == "" {
		d.Window = "30s"
	}
	if d.Downsample == "" {
		d.Downsample = "10s-avg"
	}
	if d.MaxPolls == 0 && d.Timeout == "" {
		d.MaxPolls = 600
	}
	if d.MinRate == 0 {
		d.MinRate = 1000
	}
	if d.GrowthThreshold == 0 {
		d.GrowthThreshold = 0.05
	}

	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "opentsdb"
	}
	if len(c.Results.Writers) == 0 {
		c.Results.Writers = []string{"file"}
	}
	if c.Results.StorageRootPath == "" {
		c.Results.StorageRootPath = "./results"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "oftester.events"
	}
	if c.Agent.ListenAddr == "" {
		c.Agent.ListenAddr = ":8080"
	}
	if c.Agent.HealthAddr == "" {
		c.Agent.HealthAddr = ":50051"
	}
}

// Validate checks the structural constraints that do not need the topology model.
func (c *Config) Validate() error {
	for _, size := range c.PacketSizes {
		if size <= 0 {
			return fmt.Errorf("invalid packet size: %d", size)
		}
	}
	durations := []struct {
		name, value string
	}{
		{"collection_interval", c.CollectionInterval},
		{"settle_time", c.SettleTime},
		{"drain_time", c.DrainTime},
		{"detector.poll_interval", c.Detector.PollInterval},
		{"detector.window", c.Detector.Window},
	}
	if c.Detector.Timeout != "" {
		durations = append(durations, struct{ name, value string }{"detector.timeout", c.Detector.Timeout})
	}
	for _, d := range durations {
		if _, err := parseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.name, d.value, err)
		}
	}
	if c.Detector.MaxPolls < 0 {
		return fmt.Errorf("invalid detector.max_polls: %d", c.Detector.MaxPolls)
	}
	switch c.ActionOrder {
	case "mutations-first", "output-first":
	default:
		return fmt.Errorf("unknown action_order: '%s'", c.ActionOrder)
	}
	switch c.Metrics.Backend {
	case "opentsdb", "clickhouse":
	default:
		return fmt.Errorf("unknown metrics backend: '%s'", c.Metrics.Backend)
	}
	for _, w := range c.Results.Writers {
		switch w {
		case "file", "clickhouse":
		default:
			return fmt.Errorf("unknown results writer: '%s'", w)
		}
	}
	return nil
}

// Duration parses a duration field that Validate has already checked.
func Duration(value string) time.Duration {
	d, _ := parseDuration(value)
	return d
}

// parseDuration accepts Go durations ("90s", "2m") and bare integers as seconds.
func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}
