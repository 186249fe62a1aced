package main

import (
	"fmt"
	"os"
	"sort"

	"OFTester/pkg/packet"
	"OFTester/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

// shape groups frames by encapsulation and size.
type shape struct {
	vlans  string
	vni    uint32
	length int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/pcap-analyzer/main.go <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := os.Args[1]

	pcapReader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer pcapReader.Close()
	log.Infof("Reading packets from '%s'...", pcapFilePath)

	frames := make(chan *packet.Summary, 1024)
	go pcapReader.ReadPackets(frames)

	counts := make(map[shape]int)
	for s := range frames {
		counts[shape{vlans: fmt.Sprint(s.VLANs), vni: s.VNI, length: s.Length}]++
	}
	log.Info("Finished reading all packets from pcap file.")

	shapes := make([]shape, 0, len(counts))
	for k := range counts {
		shapes = append(shapes, k)
	}
	sort.Slice(shapes, func(i, j int) bool {
		if shapes[i].length != shapes[j].length {
			return shapes[i].length < shapes[j].length
		}
		return shapes[i].vlans < shapes[j].vlans
	})
	fmt.Printf("%-8s %-12s %-10s %s\n", "LENGTH", "VLANS", "VNI", "FRAMES")
	for _, k := range shapes {
		fmt.Printf("%-8d %-12s %-10d %d\n", k.length, k.vlans, k.vni, counts[k])
	}
}
