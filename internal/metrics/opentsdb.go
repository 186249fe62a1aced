package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"OFTester/internal/model"
)

// OpenTSDB queries the /api/query endpoint of an OpenTSDB server.
type OpenTSDB struct {
	baseURL string
	http    *http.Client
}

// NewOpenTSDB creates a client for the server at baseURL.
func NewOpenTSDB(baseURL string, timeout time.Duration) *OpenTSDB {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenTSDB{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

type tsdbSubQuery struct {
	Aggregator string            `json:"aggregator"`
	Metric     string            `json:"metric"`
	Rate       bool              `json:"rate"`
	Downsample string            `json:"downsample,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type tsdbRequest struct {
	Start   string         `json:"start"`
	End     string         `json:"end,omitempty"`
	Queries []tsdbSubQuery `json:"queries"`
}

type tsdbResult struct {
	Metric string             `json:"metric"`
	DPS    map[string]float64 `json:"dps"`
}

func buildRequest(q model.Query) tsdbRequest {
	req := tsdbRequest{
		Queries: []tsdbSubQuery{{
			Aggregator: q.Aggregator,
			Metric:     q.Metric,
			Rate:       q.Rate,
			Downsample: q.Downsample,
			Tags:       q.Tags,
		}},
	}
	if req.Queries[0].Aggregator == "" {
		req.Queries[0].Aggregator = "sum"
	}
	if q.Start.IsZero() {
		req.Start = fmt.Sprintf("%ds-ago", int64(q.Window/time.Second))
	} else {
		req.Start = strconv.FormatInt(q.Start.Unix(), 10)
	}
	if !q.End.IsZero() {
		req.End = strconv.FormatInt(q.End.Unix(), 10)
	}
	return req
}

// QueryRate runs one aggregate query and returns its datapoints sorted by time.
func (c *OpenTSDB) QueryRate(ctx context.Context, q model.Query) ([]model.Sample, error) {
	url := c.baseURL + "/api/query"
	data, err := json.Marshal(buildRequest(q))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &model.ControlPlaneError{Op: http.MethodPost, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.ControlPlaneError{Op: http.MethodPost, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.ControlPlaneError{Op: http.MethodPost, URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.ControlPlaneError{Op: http.MethodPost, URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var results []tsdbResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	samples := make([]model.Sample, 0, len(results[0].DPS))
	for ts, v := range results[0].DPS {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid datapoint timestamp '%s': %w", ts, err)
		}
		samples = append(samples, model.Sample{Time: time.Unix(sec, 0).UTC(), Value: v})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
	return samples, nil
}
