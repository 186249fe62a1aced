package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sampleYAML = `
scenarios: [pps, vlan]
packet_sizes: [100, 9000]
collection_interval: 60s
environment:
  otsdb_host: 10.0.0.2
  otsdb_prefix: lab
  ryu_host: 10.0.0.3
  switches:
    - dpid: "00:00:00:00:00:00:00:01"
      snake_start_port: 5
      snake_end_port: 28
      ingress_port: 1
      egress_port: 2
detector:
  max_polls: 120
metrics:
  backend: clickhouse
  clickhouse:
    host: 10.0.0.4
    port: 9000
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if diff := cmp.Diff([]string{"pps", "vlan"}, cfg.Scenarios); diff != "" {
		t.Errorf("Unexpected scenarios (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{100, 9000}, cfg.PacketSizes); diff != "" {
		t.Errorf("Unexpected packet sizes (-want +got):\n%s", diff)
	}
	if got := Duration(cfg.CollectionInterval); got != time.Minute {
		t.Errorf("Expected collection interval 1m, got %v", got)
	}
	if len(cfg.Environment.Switches) != 1 || cfg.Environment.Switches[0].SnakeEndPort != 28 {
		t.Errorf("Unexpected switches: %+v", cfg.Environment.Switches)
	}
	if cfg.Environment.OtsdbPort != 4242 || cfg.Environment.ControllerPort != 8080 {
		t.Errorf("Expected default ports, got otsdb=%d ryu=%d", cfg.Environment.OtsdbPort, cfg.Environment.ControllerPort)
	}
	if cfg.Metrics.Backend != "clickhouse" || cfg.Metrics.ClickHouse.Port != 9000 {
		t.Errorf("Unexpected metrics config: %+v", cfg.Metrics)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("scenarios: [pps]\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff([]int{9000}, cfg.PacketSizes); diff != "" {
		t.Errorf("Unexpected default packet sizes (-want +got):\n%s", diff)
	}
	if Duration(cfg.CollectionInterval) != 120*time.Second {
		t.Errorf("Expected default collection interval 120s, got %s", cfg.CollectionInterval)
	}
	if cfg.Detector.MaxPolls == 0 {
		t.Error("Expected a default poll bound")
	}
	if cfg.Detector.GrowthThreshold != 0.05 {
		t.Errorf("Expected default growth threshold 0.05, got %v", cfg.Detector.GrowthThreshold)
	}
	if diff := cmp.Diff([]string{"file"}, cfg.Results.Writers); diff != "" {
		t.Errorf("Unexpected default writers (-want +got):\n%s", diff)
	}
}

func TestParse_BareSecondsDurations(t *testing.T) {
	cfg, err := Parse([]byte("collection_interval: 120\nsettle_time: 45\ndetector:\n  timeout: 300\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"collection_interval", cfg.CollectionInterval, 120 * time.Second},
		{"settle_time", cfg.SettleTime, 45 * time.Second},
		{"detector.timeout", cfg.Detector.Timeout, 5 * time.Minute},
	}
	for _, tc := range testCases {
		if got := Duration(tc.value); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestParse_TimeoutOnlyKeepsPollsUnbounded(t *testing.T) {
	cfg, err := Parse([]byte("detector:\n  timeout: 5m\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Detector.MaxPolls != 0 {
		t.Errorf("Expected max_polls to stay 0 when a timeout is set, got %d", cfg.Detector.MaxPolls)
	}
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"negative packet size", "packet_sizes: [-1]\n"},
		{"bad duration", "collection_interval: soon\n"},
		{"bad timeout", "detector:\n  timeout: never\n"},
		{"negative seconds", "drain_time: -5\n"},
		{"unknown backend", "metrics:\n  backend: graphite\n"},
		{"unknown writer", "results:\n  writers: [s3]\n"},
		{"unknown order", "action_order: random\n"},
		{"malformed yaml", "scenarios: [pps\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
