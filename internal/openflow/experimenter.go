package openflow

import (
	"encoding/base64"
	"encoding/binary"
	"net"
)

// NoviflowExperimenter is the experimenter id of the vendor action set.
const NoviflowExperimenter uint32 = 0xff000002

const (
	noviCustomer               = 0xff
	noviReserved               = 0x00
	noviActionPushVxlan uint16 = 0x0002
	noviActionPopVxlan  uint16 = 0x0003
	noviTunnelVxlan            = 0x00
)

func noviPrefix(actionType uint16) []byte {
	b := []byte{noviCustomer, noviReserved, 0, 0, noviTunnelVxlan}
	binary.BigEndian.PutUint16(b[2:4], actionType)
	return b
}

func experimenter(payload []byte) Experimenter {
	return Experimenter{
		Experimenter: NoviflowExperimenter,
		Data:         base64.StdEncoding.EncodeToString(payload),
		DataType:     "base64",
	}
}

// VxlanPushExperimenter encodes a VXLAN push as an opaque experimenter action.
//
// Layout: customer(1) reserved(1) action_type(2) tunnel_type(1) flags(1), then
// with flags=1 eth_src(6) eth_dst(6) ipv4_src(4) ipv4_dst(4) udp_src(4) vni(8);
// with flags=0 three pad bytes.
func VxlanPushExperimenter(s VxlanSpec) (Experimenter, error) {
	h, err := s.Header()
	if err != nil {
		return Experimenter{}, err
	}
	payload := noviPrefix(noviActionPushVxlan)
	if s.Flags == 0 {
		payload = append(payload, 0x00, 0, 0, 0)
		return experimenter(payload), nil
	}

	payload = append(payload, 0x01)
	src, _ := net.ParseMAC(h.EthSrc)
	dst, _ := net.ParseMAC(h.EthDst)
	payload = append(payload, src...)
	payload = append(payload, dst...)
	payload = append(payload, net.ParseIP(h.IPv4Src).To4()...)
	payload = append(payload, net.ParseIP(h.IPv4Dst).To4()...)
	payload = binary.BigEndian.AppendUint32(payload, uint32(h.UDPSrc))
	payload = binary.BigEndian.AppendUint64(payload, uint64(h.VNI))
	return experimenter(payload), nil
}

// VxlanPopExperimenter encodes a VXLAN pop as an opaque experimenter action.
func VxlanPopExperimenter() Experimenter {
	payload := append(noviPrefix(noviActionPopVxlan), 0, 0, 0)
	return experimenter(payload)
}

// VxlanPushLegacy is VxlanPush expressed with the experimenter encoding.
func VxlanPushLegacy(s VxlanSpec) (Flow, error) {
	action, err := VxlanPushExperimenter(s)
	if err != nil {
		return Flow{}, err
	}
	priority := s.Priority
	if priority == 0 {
		priority = PriorityFeature
	}
	return Flow{
		DPID:     s.DPID,
		Cookie:   CookieVxlan,
		TableID:  s.TableID,
		Priority: priority,
		Match:    InPort(s.InPort),
		Actions:  []Action{action, Output{Port: s.OutPort}},
	}, nil
}
