package packet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Defaults applied to unset Params fields.
const (
	DefaultEthSrc  = "66:55:44:33:22:11"
	DefaultEthDst  = "11:22:33:44:55:66"
	DefaultIPSrc   = "1.1.1.1"
	DefaultIPDst   = "2.2.2.2"
	DefaultUDPSrc  = 5000
	DefaultUDPDst  = 10000
	VxlanPort      = 4789
	DefaultTTL     = 1
	headerLenEth   = 14
	headerLenDot1Q = 4
	headerLenIPv4  = 20
	headerLenUDP   = 8
	headerLenVXLAN = 8
)

// Params is the packet-out request body. Zero fields take the defaults above;
// a negative Port floods.
type Params struct {
	Port       int    `json:"port"`
	PktSize    int    `json:"pkt_size"`
	Count      int    `json:"count,omitempty"`
	OuterVlan  int    `json:"outer_vlan"`
	InnerVlan  int    `json:"inner_vlan"`
	VNI        int    `json:"vni"`
	EthSrc     string `json:"eth_src,omitempty"`
	EthDst     string `json:"eth_dst,omitempty"`
	UDPSrcPort int    `json:"udp_src_port,omitempty"`
	UDPDstPort int    `json:"udp_dst_port,omitempty"`
	EthType    int    `json:"eth_type,omitempty"`
	IPSrc      string `json:"ip_src,omitempty"`
	IPDst      string `json:"ip_dst,omitempty"`
	IPProto    int    `json:"ip_proto,omitempty"`
}

// WithDefaults returns a copy with every unset field filled in.
func (p Params) WithDefaults() Params {
	if p.Count <= 0 {
		p.Count = 1
	}
	if p.EthSrc == "" {
		p.EthSrc = DefaultEthSrc
	}
	if p.EthDst == "" {
		p.EthDst = DefaultEthDst
	}
	if p.IPSrc == "" {
		p.IPSrc = DefaultIPSrc
	}
	if p.IPDst == "" {
		p.IPDst = DefaultIPDst
	}
	if p.IPProto == 0 {
		p.IPProto = int(layers.IPProtocolUDP)
	}
	if p.EthType == 0 {
		p.EthType = int(layers.EthernetTypeIPv4)
	}
	if p.UDPSrcPort == 0 {
		p.UDPSrcPort = DefaultUDPSrc
	}
	if p.UDPDstPort == 0 {
		p.UDPDstPort = DefaultUDPDst
	}
	if p.VNI != 0 {
		p.UDPDstPort = VxlanPort
	}
	return p
}

// HeaderLen is the number of bytes taken by the headers Build emits.
func (p Params) HeaderLen() int {
	n := headerLenEth + headerLenIPv4 + headerLenUDP
	if p.OuterVlan != 0 {
		n += headerLenDot1Q
	}
	if p.InnerVlan != 0 {
		n += headerLenDot1Q
	}
	if p.VNI != 0 {
		n += headerLenVXLAN
	}
	return n
}

// Build synthesizes an Ethernet/(802.1Q)x{0,1,2}/IPv4/UDP/(VXLAN) frame padded
// with zero bytes to exactly PktSize. Sizes below the header length (or the
// 60-byte Ethernet minimum) yield the shortest frame possible.
func Build(p Params) ([]byte, error) {
	p = p.WithDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}

	srcMAC, _ := net.ParseMAC(p.EthSrc)
	dstMAC, _ := net.ParseMAC(p.EthDst)

	var stack []gopacket.SerializableLayer
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetType(p.EthType)}
	stack = append(stack, eth)

	// Tags are listed outermost first; each one names what follows it.
	var tags []int
	for _, vid := range []int{p.OuterVlan, p.InnerVlan} {
		if vid != 0 {
			tags = append(tags, vid)
		}
	}
	if len(tags) > 0 {
		eth.EthernetType = layers.EthernetTypeDot1Q
	}
	for i, vid := range tags {
		next := layers.EthernetType(p.EthType)
		if i < len(tags)-1 {
			next = layers.EthernetTypeDot1Q
		}
		stack = append(stack, &layers.Dot1Q{VLANIdentifier: uint16(vid), DropEligible: true, Type: next})
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      DefaultTTL,
		Protocol: layers.IPProtocol(p.IPProto),
		SrcIP:    net.ParseIP(p.IPSrc).To4(),
		DstIP:    net.ParseIP(p.IPDst).To4(),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(p.UDPSrcPort), DstPort: layers.UDPPort(p.UDPDstPort)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("failed to bind udp checksum: %w", err)
	}
	stack = append(stack, ip, udp)
	if p.VNI != 0 {
		stack = append(stack, &layers.VXLAN{ValidIDFlag: true, VNI: uint32(p.VNI)})
	}

	padding := p.PktSize - p.HeaderLen()
	if padding < 0 {
		padding = 0
	}
	stack = append(stack, gopacket.Payload(make([]byte, padding)))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %w", err)
	}
	return buf.Bytes(), nil
}

func (p Params) validate() error {
	if p.PktSize <= 0 {
		return fmt.Errorf("invalid pkt_size: %d", p.PktSize)
	}
	for _, vid := range []int{p.OuterVlan, p.InnerVlan} {
		if vid < 0 || vid > 4095 {
			return fmt.Errorf("invalid vlan id: %d", vid)
		}
	}
	if p.VNI < 0 || p.VNI >= 1<<24 {
		return fmt.Errorf("invalid vni: %d", p.VNI)
	}
	for _, port := range []int{p.UDPSrcPort, p.UDPDstPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid udp port: %d", port)
		}
	}
	if _, err := net.ParseMAC(p.EthSrc); err != nil {
		return fmt.Errorf("invalid eth_src '%s': %w", p.EthSrc, err)
	}
	if _, err := net.ParseMAC(p.EthDst); err != nil {
		return fmt.Errorf("invalid eth_dst '%s': %w", p.EthDst, err)
	}
	for _, ip := range []string{p.IPSrc, p.IPDst} {
		if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
			return fmt.Errorf("invalid ipv4 address '%s'", ip)
		}
	}
	return nil
}
