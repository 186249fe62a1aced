package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"OFTester/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScenariosCmd(t *testing.T) {
	out, err := execute(t, "scenarios")
	if err != nil {
		t.Fatalf("scenarios failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 19 || lines[0] != "copy" {
		t.Errorf("Unexpected scenario list: %v", lines)
	}
}

const validateYAML = `
scenarios: [pps, transit-vxlan]
environment:
  switches:
    - dpid: "00:00:00:00:00:00:00:01"
      snake_start_port: 5
      snake_end_port: 8
      ingress_port: 1
      egress_port: 2
`

func TestValidateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validateYAML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "pps") || !strings.Contains(out, "transit-vxlan") {
		t.Errorf("Unexpected output: %s", out)
	}

	if _, err := execute(t, "validate", "--config", path, "rtl"); err == nil {
		t.Error("Expected an error for an unknown scenario")
	}
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	if _, err := execute(t, "scenarios", "--log-level", "loud"); err == nil {
		t.Error("Expected an error for an unknown log level")
	}
}

func TestFormatEvent(t *testing.T) {
	line := formatEvent(model.Event{
		Scenario:   "vlan",
		State:      "collect",
		PacketSize: 9000,
		DPID:       1,
		At:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Err:        "boom",
	})
	for _, part := range []string{"2024-01-01T00:00:00Z", "vlan", "size=9000", "dpid=00:00:00:00:00:00:00:01", "error=boom"} {
		if !strings.Contains(line, part) {
			t.Errorf("Expected %q in %q", part, line)
		}
	}
}
