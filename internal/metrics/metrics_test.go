package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"OFTester/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestParseDownsample(t *testing.T) {
	ds, err := ParseDownsample("10s-avg")
	if err != nil {
		t.Fatalf("ParseDownsample failed: %v", err)
	}
	if ds.Interval != 10*time.Second || ds.Fn != "avg" {
		t.Errorf("Unexpected downsample: %+v", ds)
	}
	for _, bad := range []string{"", "10s", "0s-avg", "10s-median", "soon-avg"} {
		if _, err := ParseDownsample(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestAggregate_RateDownsampleSum(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	at := func(s int) time.Time { return base.Add(time.Duration(s) * time.Second) }

	// Two ports, counters growing at 100/s and 50/s. The second port resets once.
	points := []Point{
		{"1", at(0), 0}, {"1", at(5), 500}, {"1", at(10), 1000}, {"1", at(15), 1500},
		{"2", at(0), 1000}, {"2", at(5), 1250}, {"2", at(10), 0}, {"2", at(15), 250},
	}
	ds, _ := ParseDownsample("10s-avg")
	got := Aggregate(points, true, ds)

	want := []model.Sample{
		{Time: at(0), Value: 150},  // port 1 @5s + port 2 @5s
		{Time: at(10), Value: 150}, // port 1 avg(100,100) + port 2 @15s, reset dropped
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected series (-want +got):\n%s", diff)
	}
}

func TestAggregate_NoRate(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	points := []Point{
		{"1", base, 10}, {"1", base.Add(time.Second), 30},
	}
	got := Aggregate(points, false, Downsample{Interval: 10 * time.Second, Fn: "max"})
	if len(got) != 1 || got[0].Value != 30 {
		t.Errorf("Unexpected series: %v", got)
	}
}

func TestBuildCounterQuery(t *testing.T) {
	start := time.Unix(100, 0)
	end := time.Unix(200, 0)
	stmt, args, err := buildCounterQuery("port_counters", model.Query{
		Metric: "lab.port.bits",
		Tags:   map[string]string{"port": "7", "dpid": "266"},
	}, start, end)
	if err != nil {
		t.Fatalf("buildCounterQuery failed: %v", err)
	}
	want := "SELECT PortNo, Timestamp, Value FROM port_counters WHERE Metric = ? AND Timestamp >= ? AND Timestamp <= ? AND DPID = ? AND PortNo = ? ORDER BY PortNo, Timestamp"
	if stmt != want {
		t.Errorf("Unexpected statement:\n got: %s\nwant: %s", stmt, want)
	}
	if diff := cmp.Diff([]interface{}{"lab.port.bits", start, end, uint64(266), uint64(7)}, args); diff != "" {
		t.Errorf("Unexpected args (-want +got):\n%s", diff)
	}

	if _, _, err := buildCounterQuery("t", model.Query{Tags: map[string]string{"host": "x"}}, start, end); err == nil {
		t.Error("Expected an error for an unsupported tag")
	}
}

func TestTimeRange(t *testing.T) {
	now := time.Unix(1000, 0)
	start, end := timeRange(model.Query{Window: 30 * time.Second}, now)
	if !end.Equal(now) || !start.Equal(now.Add(-30*time.Second)) {
		t.Errorf("Unexpected relative range %v - %v", start, end)
	}
	abs := model.Query{Start: time.Unix(10, 0), End: time.Unix(20, 0)}
	start, end = timeRange(abs, now)
	if !start.Equal(abs.Start) || !end.Equal(abs.End) {
		t.Errorf("Unexpected absolute range %v - %v", start, end)
	}
}

func TestOpenTSDB_QueryRate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/query" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[{"metric":"lab.port.bits","dps":{"1700000020":999999,"1700000000":5,"1700000030":1000000}}]`))
	}))
	defer srv.Close()

	c := NewOpenTSDB(srv.URL, 0)
	samples, err := c.QueryRate(context.Background(), model.Query{
		Metric:     "lab.port.bits",
		Window:     30 * time.Second,
		Aggregator: "sum",
		Downsample: "10s-avg",
		Rate:       true,
		Tags:       map[string]string{"dpid": "1"},
	})
	if err != nil {
		t.Fatalf("QueryRate failed: %v", err)
	}

	want := map[string]interface{}{
		"start": "30s-ago",
		"queries": []interface{}{map[string]interface{}{
			"aggregator": "sum",
			"metric":     "lab.port.bits",
			"rate":       true,
			"downsample": "10s-avg",
			"tags":       map[string]interface{}{"dpid": "1"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected request (-want +got):\n%s", diff)
	}

	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	if samples[0].Value != 5 || samples[2].Value != 1000000 {
		t.Errorf("Samples are not sorted by time: %v", samples)
	}
}

func TestOpenTSDB_AbsoluteRangeAndEmpty(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	samples, err := NewOpenTSDB(srv.URL, 0).QueryRate(context.Background(), model.Query{
		Metric: "m", Start: time.Unix(100, 0), End: time.Unix(200, 0),
	})
	if err != nil {
		t.Fatalf("QueryRate failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("Expected no samples, got %v", samples)
	}
	if got["start"] != "100" || got["end"] != "200" {
		t.Errorf("Unexpected range: start=%v end=%v", got["start"], got["end"])
	}
}

func TestOpenTSDB_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such metric", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewOpenTSDB(srv.URL, 0).QueryRate(context.Background(), model.Query{Metric: "m", Window: time.Second})
	if !model.IsControlPlane(err) {
		t.Errorf("Expected a ControlPlaneError, got %v", err)
	}
}
