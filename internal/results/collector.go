package results

import (
	"context"
	"fmt"
	"strconv"

	"OFTester/internal/model"
	"OFTester/internal/scenario"
)

// Port counter metrics collected for every window, under the environment prefix.
const (
	MetricPackets = "port.packets"
	MetricBits    = "port.bits"
)

// MetricsCollector queries the packet and bit rate of every switch over a
// finished packet-size window.
type MetricsCollector struct {
	client     model.MetricsClient
	downsample string
	metrics    []string
}

// NewMetricsCollector creates a collector. An empty downsample defaults to "10s-avg".
func NewMetricsCollector(client model.MetricsClient, downsample string) *MetricsCollector {
	if downsample == "" {
		downsample = "10s-avg"
	}
	return &MetricsCollector{
		client:     client,
		downsample: downsample,
		metrics:    []string{MetricPackets, MetricBits},
	}
}

// Collect returns one series per metric and switch, named
// "<metric>{dpid=<n>}", over [tm.Start, tm.Stop].
func (c *MetricsCollector) Collect(ctx context.Context, sc *scenario.Scenario, tm *model.TimeMetrics) ([]model.Series, error) {
	if tm.Stop.IsZero() || !tm.Stop.After(tm.Start) {
		return nil, fmt.Errorf("window for packet size %d is not closed", tm.PacketSize)
	}

	var out []model.Series
	for _, dpid := range sc.Env.DPIDs() {
		for _, name := range c.metrics {
			metric := sc.Env.Metric(name)
			samples, err := c.client.QueryRate(ctx, model.Query{
				Metric:     metric,
				Start:      tm.Start,
				End:        tm.Stop,
				Aggregator: "sum",
				Downsample: c.downsample,
				Rate:       true,
				Tags:       map[string]string{"dpid": strconv.FormatUint(dpid, 10)},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to query %s for switch %d: %w", metric, dpid, err)
			}
			out = append(out, model.Series{
				Metric:  fmt.Sprintf("%s{dpid=%d}", metric, dpid),
				Samples: samples,
			})
		}
	}
	return out, nil
}

var _ scenario.Collector = (*MetricsCollector)(nil)
