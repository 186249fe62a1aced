package packet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Summary is what Decode extracts from a synthesized frame.
type Summary struct {
	Length   int
	VLANs    []uint16 // outermost first
	SrcIP    net.IP
	DstIP    net.IP
	Protocol uint8
	SrcPort  uint16
	DstPort  uint16
	VNI      uint32
	HasVXLAN bool
}

// Decode parses a raw frame and extracts its tag stack and IPv4/UDP headers.
func Decode(data []byte) (*Summary, error) {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	s := &Summary{Length: len(data)}

	for _, l := range pkt.Layers() {
		if tag, ok := l.(*layers.Dot1Q); ok {
			s.VLANs = append(s.VLANs, tag.VLANIdentifier)
		}
	}

	l := pkt.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return nil, fmt.Errorf("not an IPv4 packet")
	}
	ip := l.(*layers.IPv4)
	s.SrcIP, s.DstIP, s.Protocol = ip.SrcIP, ip.DstIP, uint8(ip.Protocol)

	l = pkt.Layer(layers.LayerTypeUDP)
	if l == nil {
		return nil, fmt.Errorf("not a UDP packet")
	}
	udp := l.(*layers.UDP)
	s.SrcPort, s.DstPort = uint16(udp.SrcPort), uint16(udp.DstPort)

	if l := pkt.Layer(layers.LayerTypeVXLAN); l != nil {
		s.HasVXLAN = true
		s.VNI = l.(*layers.VXLAN).VNI
	}
	return s, nil
}
