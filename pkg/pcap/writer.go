package pcap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// snapLen covers the largest jumbo frame the tester emits.
const snapLen = 65536

// Writer appends frames to a pcap file. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	w    *pcapgo.Writer
}

// NewWriter creates the file (and its directory) and writes the pcap header.
func NewWriter(filePath string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file '%s': %w", filePath, err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Writer{file: f, w: w}, nil
}

// WriteFrame appends one frame captured at ts.
func (w *Writer) WriteFrame(ts time.Time, data []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.WritePacket(ci, data)
}

// Close closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
