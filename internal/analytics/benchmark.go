package analytics

import (
	"sort"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
)

// Benchmark holds reference KPI values for one year, such as national averages.
type Benchmark struct {
	Year    int                `json:"year"`
	Source  string             `json:"source,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
}

type Standing string

const (
	StandingAbove Standing = "above"
	StandingBelow Standing = "below"
	StandingEqual Standing = "at"
)

type MetricDelta struct {
	Metric      string   `json:"metric_name"`
	DisplayName string   `json:"display_name"`
	Value       float64  `json:"value"`
	Benchmark   float64  `json:"benchmark"`
	Delta       float64  `json:"delta"`
	Standing    Standing `json:"standing"`
}

type Comparison struct {
	Year          int           `json:"year"`
	BenchmarkYear int           `json:"benchmark_year"`
	Source        string        `json:"source,omitempty"`
	Deltas        []MetricDelta `json:"deltas"`
	Unmatched     []string      `json:"unmatched_metrics"`
}

// CompareBenchmarks compares a batch's KPI values with the benchmark of the
// same year, or the latest earlier one. Metrics without a value on either side
// are listed as unmatched. It reports false when no benchmark applies.
func CompareBenchmarks(p YearPoint, benchmarks []Benchmark, metrics []string) (Comparison, bool) {
	bm, ok := benchmarkFor(p.Year, benchmarks)
	if !ok {
		return Comparison{}, false
	}
	c := Comparison{Year: p.Year, BenchmarkYear: bm.Year, Source: bm.Source, Deltas: []MetricDelta{}, Unmatched: []string{}}
	for _, m := range metrics {
		v := p.Values[m]
		ref, hasRef := bm.Metrics[m]
		if v == nil || !hasRef {
			c.Unmatched = append(c.Unmatched, m)
			continue
		}
		d := MetricDelta{
			Metric:      m,
			DisplayName: ranking.MetricDisplayName(m),
			Value:       *v,
			Benchmark:   ref,
			Delta:       blocks.Round2(*v - ref),
			Standing:    StandingEqual,
		}
		switch {
		case d.Delta > 0:
			d.Standing = StandingAbove
		case d.Delta < 0:
			d.Standing = StandingBelow
		}
		c.Deltas = append(c.Deltas, d)
	}
	return c, true
}

func benchmarkFor(year int, benchmarks []Benchmark) (Benchmark, bool) {
	if year == 0 || len(benchmarks) == 0 {
		return Benchmark{}, false
	}
	sorted := append([]Benchmark(nil), benchmarks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })
	for _, b := range sorted {
		if b.Year <= year {
			return b, true
		}
	}
	return Benchmark{}, false
}
