package main

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"OFTester/pkg/packet"
	"OFTester/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	sizes := flag.String("sizes", "64,1500,9000", "Comma-separated frame sizes")
	count := flag.Int("c", 1, "Frames per size")
	outer := flag.Int("outer-vlan", 0, "Outer 802.1Q vid, 0 for none")
	inner := flag.Int("inner-vlan", 0, "Inner 802.1Q vid, 0 for none")
	vni := flag.Int("vni", 0, "VXLAN network id, 0 for none")
	flag.Parse()

	w, err := pcap.NewWriter(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer w.Close()

	total := 0
	for _, field := range strings.Split(*sizes, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			log.Fatalf("Invalid size '%s': %v", field, err)
		}
		frame, err := packet.Build(packet.Params{PktSize: size, OuterVlan: *outer, InnerVlan: *inner, VNI: *vni})
		if err != nil {
			log.Fatalf("Failed to build %d-byte frame: %v", size, err)
		}
		for i := 0; i < *count; i++ {
			if err := w.WriteFrame(time.Now(), frame); err != nil {
				log.Fatalf("Failed to write packet: %v", err)
			}
			total++
		}
	}

	log.Infof("Successfully generated %d packets into %s.", total, *outputFile)
}
