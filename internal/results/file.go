package results

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"OFTester/internal/model"

	log "github.com/sirupsen/logrus"
)

// Summary holds the metadata of one persisted run.
type Summary struct {
	RunID       string               `json:"run_id"`
	Scenario    string               `json:"scenario"`
	DPIDs       []uint64             `json:"dpids"`
	PacketSizes []int                `json:"packet_sizes"`
	TimeMetrics []*model.TimeMetrics `json:"time_metrics"`
	SeriesFiles []string             `json:"series_files"`
	Labels      map[string]string    `json:"labels,omitempty"`
	Timestamp   string               `json:"timestamp"`
}

// FileWriter stores each run under <root>/<scenario>/<run id>/ as one gob
// file of series per packet size plus a summary.json.
type FileWriter struct {
	rootPath string
	now      func() time.Time
}

// NewFileWriter creates a new file writer rooted at rootPath.
func NewFileWriter(rootPath string) *FileWriter {
	return &FileWriter{rootPath: rootPath, now: time.Now}
}

// Name identifies the writer in logs.
func (w *FileWriter) Name() string { return "file" }

// Dir returns the directory a record is written to.
func (w *FileWriter) Dir(record *model.RunRecord) string {
	return filepath.Join(w.rootPath, record.Scenario, record.RunID)
}

// Write serializes a run record to disk.
func (w *FileWriter) Write(record *model.RunRecord) error {
	runDir := w.Dir(record)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	summary := Summary{
		RunID:       record.RunID,
		Scenario:    record.Scenario,
		DPIDs:       record.DPIDs,
		PacketSizes: record.PacketSizes,
		TimeMetrics: record.TimeMetrics,
		Labels:      record.Labels,
		Timestamp:   w.now().UTC().Format(time.RFC3339),
	}

	for _, size := range record.PacketSizes {
		series := record.Series[size]
		if len(series) == 0 {
			continue
		}
		fileName := fmt.Sprintf("series_%d.dat", size)
		if err := writeGob(filepath.Join(runDir, fileName), series); err != nil {
			return err
		}
		summary.SeriesFiles = append(summary.SeriesFiles, fileName)
	}

	summaryFile, err := os.Create(filepath.Join(runDir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	log.Infof("Wrote results of %s run %s to %s", record.Scenario, record.RunID, runDir)
	return nil
}

func writeGob(path string, series []model.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create series file '%s': %w", path, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(series); err != nil {
		return fmt.Errorf("failed to encode series to gob for file '%s': %w", path, err)
	}
	return nil
}

// ReadSeries loads a series file written by FileWriter.
func ReadSeries(path string) ([]model.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open series file '%s': %w", path, err)
	}
	defer file.Close()

	var series []model.Series
	if err := gob.NewDecoder(file).Decode(&series); err != nil {
		return nil, fmt.Errorf("failed to decode series file '%s': %w", path, err)
	}
	return series, nil
}
