package metrics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"OFTester/internal/config"
	"OFTester/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"
)

// DefaultCounterTable holds raw port counters, one row per reading.
const DefaultCounterTable = "port_counters"

const createCounterTable = `
CREATE TABLE IF NOT EXISTS %s (
    Timestamp DateTime64(3),
    Metric    String,
    DPID      UInt64,
    PortNo    UInt32,
    Value     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Metric, DPID, PortNo, Timestamp);
`

// Connect opens and pings a ClickHouse connection.
func Connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// ClickHouse answers rate queries from raw counters stored in ClickHouse.
type ClickHouse struct {
	conn  driver.Conn
	table string
	now   func() time.Time
}

// NewClickHouse connects and ensures the counter table exists.
func NewClickHouse(cfg config.ClickHouseConfig) (*ClickHouse, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = DefaultCounterTable
	}
	if err := conn.Exec(context.Background(), fmt.Sprintf(createCounterTable, table)); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Infof("Successfully connected to ClickHouse and ensured table %s exists.", table)
	return &ClickHouse{conn: conn, table: table, now: time.Now}, nil
}

// buildCounterQuery selects the raw readings a query needs. Only the dpid and
// port tags map to columns.
func buildCounterQuery(table string, q model.Query, start, end time.Time) (string, []interface{}, error) {
	var sb strings.Builder
	sb.WriteString("SELECT PortNo, Timestamp, Value FROM ")
	sb.WriteString(table)

	where := []string{"Metric = ?", "Timestamp >= ?", "Timestamp <= ?"}
	args := []interface{}{q.Metric, start, end}
	keys := make([]string, 0, len(q.Tags))
	for key := range q.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var column string
		switch key {
		case "dpid":
			column = "DPID"
		case "port":
			column = "PortNo"
		default:
			return "", nil, fmt.Errorf("unsupported tag: %s, only dpid and port are allowed", key)
		}
		value, err := strconv.ParseUint(q.Tags[key], 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid %s tag '%s': %w", key, q.Tags[key], err)
		}
		where = append(where, column+" = ?")
		args = append(args, value)
	}
	sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	sb.WriteString(" ORDER BY PortNo, Timestamp")
	return sb.String(), args, nil
}

// QueryRate fetches raw counters and aggregates them like OpenTSDB would.
func (c *ClickHouse) QueryRate(ctx context.Context, q model.Query) ([]model.Sample, error) {
	ds, err := ParseDownsample(q.Downsample)
	if err != nil {
		return nil, err
	}
	start, end := timeRange(q, c.now())
	stmt, args, err := buildCounterQuery(c.table, q, start, end)
	if err != nil {
		return nil, err
	}

	rows, err := c.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, &model.ControlPlaneError{Op: "QUERY", URL: c.table, Err: err}
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			port  uint32
			ts    time.Time
			value float64
		)
		if err := rows.Scan(&port, &ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan counter row: %w", err)
		}
		points = append(points, Point{Series: fmt.Sprint(port), Time: ts, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, &model.ControlPlaneError{Op: "QUERY", URL: c.table, Err: err}
	}
	return Aggregate(points, q.Rate, ds), nil
}

// Close closes the connection.
func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
