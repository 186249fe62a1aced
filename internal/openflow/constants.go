package openflow

// Reserved OpenFlow 1.3 port numbers.
const (
	PortInPort     uint32 = 0xfffffff8
	PortFlood      uint32 = 0xfffffffb
	PortAll        uint32 = 0xfffffffc
	PortController uint32 = 0xfffffffd
)

// EtherTypeVlan is the 802.1Q tag protocol identifier used for every pushed tag.
const EtherTypeVlan uint16 = 0x8100

// VxlanUDPPort is the IANA VXLAN destination port.
const VxlanUDPPort = 4789

// Table ids of the provider-edge pipeline.
const (
	TableInput       uint8 = 0
	TablePreIngress  uint8 = 1
	TableIngress     uint8 = 2
	TablePostIngress uint8 = 3
	TableEgress      uint8 = 4
	TableTransit     uint8 = 5
)

// Cookies tag every flow with the feature family that installed it.
const (
	CookieLoop         uint64 = 0x0100
	CookieGotoTable    uint64 = 0x0200
	CookieSnake        uint64 = 0x0300 // plus the table id
	CookiePassThrough  uint64 = 0x0400
	CookieVlan         uint64 = 0x0500
	CookieVxlan        uint64 = 0x0600
	CookieSwapFields   uint64 = 0x0700
	CookieCopyFields   uint64 = 0x0800
	CookieSetFields    uint64 = 0x0900
	CookieMetadata     uint64 = 0x0a00
	CookieMetadataOut  uint64 = 0x0a01
	CookieIngressVlan  uint64 = 0x0b00
	CookieEgressVlan   uint64 = 0x0c00
	CookieIngressVxlan uint64 = 0x0d00
	CookieEgressVxlan  uint64 = 0x0e00
	CookieTransitVlan  uint64 = 0x0f00
	CookieTransitVxlan uint64 = 0x1000
	CookieMulticast    uint64 = 0x1100
)

// GroupID is the group every feature installs its group under; cleanup deletes it by id.
const GroupID uint32 = 1

// Default priorities.
const (
	PriorityBaseline = 1000
	PriorityFeature  = 2000
)

// Match field names understood by the controller.
const (
	FieldInPort   = "in_port"
	FieldVlanVID  = "vlan_vid"
	FieldMetadata = "metadata"
	FieldEthType  = "eth_type"
	FieldIPProto  = "ip_proto"
	FieldUDPSrc   = "udp_src"
	FieldUDPDst   = "udp_dst"
	FieldTunnelID = "tunnel_id"
	FieldEthSrc   = "eth_src"
	FieldEthDst   = "eth_dst"
	FieldIPv4Src  = "ipv4_src"
	FieldIPv4Dst  = "ipv4_dst"
)

// Vendor fields usable as copy/swap endpoints.
const (
	FieldNoviRxTimestamp = "novi_rx_timestamp"
	FieldNoviTxTimestamp = "novi_tx_timestamp"
	FieldNoviPktOffset   = "novi_packet_offset"
)
