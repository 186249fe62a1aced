package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"OFTester/internal/model"
)

// Point is one raw counter reading of one series.
type Point struct {
	Series string
	Time   time.Time
	Value  float64
}

// Downsample is a parsed "<interval>-<fn>" spec such as "10s-avg".
type Downsample struct {
	Interval time.Duration
	Fn       string
}

// ParseDownsample parses "<interval>-<fn>" where fn is avg, sum, min or max.
func ParseDownsample(spec string) (Downsample, error) {
	interval, fn, ok := strings.Cut(spec, "-")
	if !ok {
		return Downsample{}, fmt.Errorf("invalid downsample '%s'", spec)
	}
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return Downsample{}, fmt.Errorf("invalid downsample interval '%s'", interval)
	}
	switch fn {
	case "avg", "sum", "min", "max":
	default:
		return Downsample{}, fmt.Errorf("unsupported downsample function '%s'", fn)
	}
	return Downsample{Interval: d, Fn: fn}, nil
}

// Aggregate reproduces the time-series query semantics: optional per-series
// counter rate, per-series downsampling into fixed buckets, then a sum across
// series per bucket. Counter resets (negative deltas) are dropped.
func Aggregate(points []Point, rate bool, ds Downsample) []model.Sample {
	bySeries := make(map[string][]Point)
	for _, p := range points {
		bySeries[p.Series] = append(bySeries[p.Series], p)
	}

	sums := make(map[int64]float64)
	for _, series := range bySeries {
		sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
		if rate {
			series = toRate(series)
		}
		for bucket, v := range downsample(series, ds) {
			sums[bucket] += v
		}
	}

	buckets := make([]int64, 0, len(sums))
	for b := range sums {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	out := make([]model.Sample, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, model.Sample{Time: time.Unix(0, b).UTC(), Value: sums[b]})
	}
	return out
}

func toRate(series []Point) []Point {
	out := make([]Point, 0, len(series))
	for i := 1; i < len(series); i++ {
		dt := series[i].Time.Sub(series[i-1].Time).Seconds()
		dv := series[i].Value - series[i-1].Value
		if dt <= 0 || dv < 0 {
			continue
		}
		out = append(out, Point{Series: series[i].Series, Time: series[i].Time, Value: dv / dt})
	}
	return out
}

func downsample(series []Point, ds Downsample) map[int64]float64 {
	type acc struct {
		sum, min, max float64
		n             int
	}
	accs := make(map[int64]*acc)
	for _, p := range series {
		b := p.Time.Truncate(ds.Interval).UnixNano()
		a, ok := accs[b]
		if !ok {
			a = &acc{min: p.Value, max: p.Value}
			accs[b] = a
		}
		a.sum += p.Value
		a.n++
		if p.Value < a.min {
			a.min = p.Value
		}
		if p.Value > a.max {
			a.max = p.Value
		}
	}

	out := make(map[int64]float64, len(accs))
	for b, a := range accs {
		switch ds.Fn {
		case "sum":
			out[b] = a.sum
		case "min":
			out[b] = a.min
		case "max":
			out[b] = a.max
		default:
			out[b] = a.sum / float64(a.n)
		}
	}
	return out
}

// timeRange resolves a query to absolute bounds.
func timeRange(q model.Query, now time.Time) (time.Time, time.Time) {
	end := q.End
	if end.IsZero() {
		end = now
	}
	start := q.Start
	if start.IsZero() {
		start = end.Add(-q.Window)
	}
	return start, end
}
