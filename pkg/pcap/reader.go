package pcap

import (
	"fmt"
	"io"
	"os"

	"OFTester/pkg/packet"

	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"
)

// Reader reads frames from a pcap file.
type Reader struct {
	file *os.File
	r    *pcapgo.Reader
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &Reader{file: f, r: r}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// ReadPackets decodes every frame in the file and sends the summary to out.
// It closes the channel when done.
func (r *Reader) ReadPackets(out chan<- *packet.Summary) {
	defer close(out)
	for {
		data, _, err := r.r.ReadPacketData()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Warnf("Error reading packet: %v", err)
			return
		}
		s, err := packet.Decode(data)
		if err != nil {
			// Frames that are not IPv4/UDP are skipped.
			log.Debugf("Error parsing packet: %v", err)
			continue
		}
		out <- s
	}
}
