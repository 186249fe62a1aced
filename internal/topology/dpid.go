package topology

import (
	"fmt"
	"strconv"
	"strings"

	"OFTester/internal/model"
)

// ParseDPID converts a datapath id given as decimal digits, 0x-prefixed hex or
// colon-separated hex ("00:00:00:00:00:00:00:01") into its canonical integer form.
func ParseDPID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, model.Invalid("dpid", "must not be empty")
	}
	if isDigits(s) {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, model.Invalid("dpid", "decimal dpid %q out of range", s)
		}
		return v, nil
	}
	hex := s
	if strings.HasPrefix(hex, "0x") || strings.HasPrefix(hex, "0X") {
		hex = hex[2:]
	}
	hex = strings.ReplaceAll(hex, ":", "")
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil || hex == "" {
		return 0, model.Invalid("dpid", "unknown dpid format of %q", s)
	}
	return v, nil
}

// FormatDPID renders a dpid in the 16-digit colon-hex form used by switches.
func FormatDPID(dpid uint64) string {
	raw := fmt.Sprintf("%016x", dpid)
	parts := make([]string, 0, 8)
	for i := 0; i < len(raw); i += 2 {
		parts = append(parts, raw[i:i+2])
	}
	return strings.Join(parts, ":")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
