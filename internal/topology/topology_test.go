package topology

import (
	"testing"

	"OFTester/internal/config"
	"OFTester/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestParseDPID(t *testing.T) {
	testCases := []struct {
		in   string
		want uint64
	}{
		{"1", 1},
		{"123456", 123456},
		{"00:00:00:00:00:00:00:01", 1},
		{"00:00:00:00:00:00:01:0a", 266},
		{"0a", 10},
		{"ff:ff", 65535},
		{"0x01", 1},
		{"0XDEADBEEF", 0xdeadbeef},
	}
	for _, tc := range testCases {
		got, err := ParseDPID(tc.in)
		if err != nil {
			t.Errorf("ParseDPID(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDPID(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDPID_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "zz:01", ":::", "11:22:33:44:55:66:77:88:99", "0x"} {
		if _, err := ParseDPID(in); !model.IsValidation(err) {
			t.Errorf("ParseDPID(%q): expected a ValidationError, got %v", in, err)
		}
	}
}

func TestFormatDPID(t *testing.T) {
	if got := FormatDPID(266); got != "00:00:00:00:00:00:01:0a" {
		t.Errorf("Unexpected format %q", got)
	}
	back, err := ParseDPID(FormatDPID(0xdeadbeef))
	if err != nil || back != 0xdeadbeef {
		t.Errorf("Round trip failed: %d, %v", back, err)
	}
}

func switchDef(dpid string) config.SwitchDef {
	return config.SwitchDef{DPID: dpid, SnakeStartPort: 5, SnakeEndPort: 28, IngressPort: 1, EgressPort: 2}
}

func TestNewEnvironment_KeepsOrder(t *testing.T) {
	env, err := NewEnvironment(config.EnvironmentConfig{
		ControllerHost: "10.0.0.1",
		ControllerPort: 8080,
		OtsdbHost:      "10.0.0.2",
		OtsdbPort:      4242,
		OtsdbPrefix:    "lab",
		Switches:       []config.SwitchDef{switchDef("9"), switchDef("00:00:00:00:00:00:00:02"), switchDef("5")},
	})
	if err != nil {
		t.Fatalf("NewEnvironment failed: %v", err)
	}

	if diff := cmp.Diff([]uint64{9, 2, 5}, env.DPIDs()); diff != "" {
		t.Errorf("Unexpected switch order (-want +got):\n%s", diff)
	}
	sw, err := env.Switch(2)
	if err != nil || sw.SnakeEndPort != 28 {
		t.Errorf("Switch(2) = %+v, %v", sw, err)
	}
	if _, err := env.Switch(3); !model.IsValidation(err) {
		t.Errorf("Expected a ValidationError for an unknown switch, got %v", err)
	}
	if got := env.ControllerURL(); got != "http://10.0.0.1:8080" {
		t.Errorf("Unexpected controller URL %q", got)
	}
	if got := env.MetricsURL(); got != "http://10.0.0.2:4242" {
		t.Errorf("Unexpected metrics URL %q", got)
	}
	if got := env.Metric("port.bits"); got != "lab.port.bits" {
		t.Errorf("Unexpected metric name %q", got)
	}
}

func TestNewEnvironment_Rejects(t *testing.T) {
	testCases := []struct {
		name     string
		switches []config.SwitchDef
	}{
		{"duplicate dpid", []config.SwitchDef{switchDef("1"), switchDef("00:00:00:00:00:00:00:01")}},
		{"empty dpid", []config.SwitchDef{switchDef("")}},
		{"inverted snake", []config.SwitchDef{{DPID: "1", SnakeStartPort: 10, SnakeEndPort: 4, IngressPort: 1, EgressPort: 2}}},
		{"odd port count", []config.SwitchDef{{DPID: "1", SnakeStartPort: 4, SnakeEndPort: 10, IngressPort: 1, EgressPort: 2}}},
		{"missing ingress", []config.SwitchDef{{DPID: "1", SnakeStartPort: 1, SnakeEndPort: 4, EgressPort: 2}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEnvironment(config.EnvironmentConfig{Switches: tc.switches})
			if !model.IsValidation(err) {
				t.Errorf("Expected a ValidationError, got %v", err)
			}
		})
	}
}

func TestSwitches_ReturnsCopy(t *testing.T) {
	env, err := NewEnvironment(config.EnvironmentConfig{Switches: []config.SwitchDef{switchDef("1")}})
	if err != nil {
		t.Fatalf("NewEnvironment failed: %v", err)
	}
	list := env.Switches()
	list[0] = nil
	if env.Switches()[0] == nil {
		t.Error("Switches should return a copy of the ordered list")
	}
}
