package results

import (
	"context"
	"fmt"
	"strings"

	"OFTester/internal/config"
	"OFTester/internal/metrics"
	"OFTester/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"
)

// DefaultRunTable receives one row per packet-size iteration.
const DefaultRunTable = "scenario_runs"

const createRunTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
    RunID      String,
    Scenario   String,
    PacketSize UInt32,
    Start      DateTime64(3),
    Stop       DateTime64(3),
    DurationMs Int64,
    Error      String
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Start)
ORDER BY (Scenario, RunID, PacketSize);
`

const createSeriesTable = `
CREATE TABLE IF NOT EXISTS %[1]s_series (
    RunID      String,
    Scenario   String,
    PacketSize UInt32,
    Metric     String,
    Timestamp  DateTime64(3),
    Value      Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Scenario, RunID, PacketSize, Metric, Timestamp);
`

// ClickHouseWriter implements model.Writer for ClickHouse.
type ClickHouseWriter struct {
	conn  driver.Conn
	table string
}

// NewClickHouseWriter connects and makes sure both result tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	table := tableName(cfg.Table)
	if table == "" {
		table = DefaultRunTable
	}
	conn, err := metrics.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	for _, stmt := range []string{createRunTable, createSeriesTable} {
		if err := conn.Exec(context.Background(), fmt.Sprintf(stmt, table)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Info("Successfully connected to ClickHouse and ensured result tables exist.")
	return &ClickHouseWriter{conn: conn, table: table}, nil
}

// Name identifies the writer in logs.
func (w *ClickHouseWriter) Name() string { return "clickhouse" }

// Write inserts the iteration rows and then the series rows of a record.
func (w *ClickHouseWriter) Write(record *model.RunRecord) error {
	ctx := context.Background()
	if err := w.send(ctx, w.table, runRows(record)); err != nil {
		return err
	}
	if err := w.send(ctx, w.table+"_series", seriesRows(record)); err != nil {
		return err
	}
	log.Infof("Wrote %s run %s to ClickHouse", record.Scenario, record.RunID)
	return nil
}

func (w *ClickHouseWriter) send(ctx context.Context, table string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("failed to append row to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Close closes the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

func runRows(record *model.RunRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(record.TimeMetrics))
	for _, tm := range record.TimeMetrics {
		rows = append(rows, []interface{}{
			record.RunID,
			record.Scenario,
			uint32(tm.PacketSize),
			tm.Start,
			tm.Stop,
			tm.Duration().Milliseconds(),
			tm.Err,
		})
	}
	return rows
}

func seriesRows(record *model.RunRecord) [][]interface{} {
	var rows [][]interface{}
	for _, size := range record.PacketSizes {
		for _, s := range record.Series[size] {
			for _, sample := range s.Samples {
				rows = append(rows, []interface{}{
					record.RunID,
					record.Scenario,
					uint32(size),
					s.Metric,
					sample.Time,
					sample.Value,
				})
			}
		}
	}
	return rows
}

// tableName keeps only characters ClickHouse accepts unquoted.
func tableName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, name)
}

var (
	_ model.Writer = (*ClickHouseWriter)(nil)
	_ model.Writer = (*FileWriter)(nil)
)
