// Package analytics aggregates KPI values of several batches by academic year,
// summarizes their trends and forecasts them with a least-squares line.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
)

type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// stableSlope is the per-year change below which a series counts as stable.
const stableSlope = 1.0

// PrimaryMetric decides the best and worst year.
const PrimaryMetric = kpi.KeyOverall

// Metrics are the KPI keys tracked across years.
var Metrics = ranking.Keys

var yearFields = []string{"academic_year", "year", "session", "academic_session", "approval_year", "last_updated_year"}

// YearPoint is one batch's contribution to the multi-year view.
type YearPoint struct {
	BatchID string              `json:"batch_id"`
	Year    int                 `json:"year"`
	Values  map[string]*float64 `json:"values"`
}

type Observation struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type MetricTrend struct {
	Metric      string        `json:"metric_name"`
	DisplayName string        `json:"display_name"`
	Values      []Observation `json:"values"`
	Average     float64       `json:"average"`
	Min         float64       `json:"min_value"`
	Max         float64       `json:"max_value"`
	Slope       float64       `json:"slope"`
	Direction   Direction     `json:"trend_direction"`
}

type Summary struct {
	Years     []int                    `json:"available_years"`
	Series    map[string][]Observation `json:"metrics"`
	Trends    map[string]MetricTrend   `json:"trends"`
	BestYear  *int                     `json:"best_year"`
	WorstYear *int                     `json:"worst_year"`
	Insights  []string                 `json:"insights"`
}

// ExtractYear finds the academic year of a batch in its aggregated data: the
// well-known year fields first, then any other field whose name mentions a
// year. Ranges resolve to their later year.
func ExtractYear(d blocks.Data) (int, bool) {
	for _, k := range yearFields {
		if y, ok := blocks.ParseYear(d[k]); ok {
			return y, true
		}
	}
	for _, k := range d.Keys() {
		if strings.Contains(k, "year") && !strings.HasSuffix(k, "_num") {
			if y, ok := blocks.ParseYear(d[k]); ok {
				return y, true
			}
		}
	}
	return 0, false
}

// Aggregate builds one ordered series per metric. Points sharing a year are
// averaged; only positive values take part.
func Aggregate(points []YearPoint, metrics []string) map[string][]Observation {
	type acc struct {
		sum float64
		n   int
	}
	byYear := map[string]map[int]*acc{}
	for _, p := range points {
		if p.Year == 0 {
			continue
		}
		for _, m := range metrics {
			v := p.Values[m]
			if v == nil || *v <= 0 || math.IsNaN(*v) {
				continue
			}
			if byYear[m] == nil {
				byYear[m] = map[int]*acc{}
			}
			a := byYear[m][p.Year]
			if a == nil {
				a = &acc{}
				byYear[m][p.Year] = a
			}
			a.sum += *v
			a.n++
		}
	}

	out := make(map[string][]Observation, len(metrics))
	for _, m := range metrics {
		series := []Observation{}
		for y, a := range byYear[m] {
			series = append(series, Observation{Year: y, Value: a.sum / float64(a.n)})
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
		out[m] = series
	}
	return out
}

// Summarize aggregates the points and derives per-metric statistics, the best
// and worst year by the primary metric and textual insights.
func Summarize(points []YearPoint, metrics []string) Summary {
	s := Summary{
		Years:    distinctYears(points),
		Series:   Aggregate(points, metrics),
		Trends:   map[string]MetricTrend{},
		Insights: []string{},
	}
	for _, m := range metrics {
		if series := s.Series[m]; len(series) > 0 {
			s.Trends[m] = trendOf(m, series)
		}
	}
	if series := s.Series[PrimaryMetric]; len(series) > 0 {
		best, worst := series[0], series[0]
		for _, o := range series[1:] {
			if o.Value > best.Value {
				best = o
			}
			if o.Value < worst.Value {
				worst = o
			}
		}
		s.BestYear, s.WorstYear = &best.Year, &worst.Year
	}
	s.Insights = Insights(metrics, s.Trends)
	return s
}

func distinctYears(points []YearPoint) []int {
	seen := map[int]bool{}
	years := []int{}
	for _, p := range points {
		if p.Year != 0 && !seen[p.Year] {
			seen[p.Year] = true
			years = append(years, p.Year)
		}
	}
	sort.Ints(years)
	return years
}

func trendOf(metric string, series []Observation) MetricTrend {
	t := MetricTrend{
		Metric:      metric,
		DisplayName: ranking.MetricDisplayName(metric),
		Values:      series,
		Min:         series[0].Value,
		Max:         series[0].Value,
	}
	sum := 0.0
	for _, o := range series {
		sum += o.Value
		t.Min = math.Min(t.Min, o.Value)
		t.Max = math.Max(t.Max, o.Value)
	}
	t.Average = blocks.Round2(sum / float64(len(series)))
	fit := fitLine(series)
	t.Slope = blocks.Round2(fit.slope)
	t.Direction = direction(fit.slope)
	return t
}

func direction(slope float64) Direction {
	switch {
	case slope > stableSlope:
		return DirectionUp
	case slope < -stableSlope:
		return DirectionDown
	}
	return DirectionStable
}

// Insights describes rising and falling metrics and grades the average of the
// primary metric.
func Insights(metrics []string, trends map[string]MetricTrend) []string {
	out := []string{}
	for _, m := range metrics {
		t, ok := trends[m]
		if !ok {
			continue
		}
		switch t.Direction {
		case DirectionUp:
			out = append(out, fmt.Sprintf("%s shows a positive growth trend", t.DisplayName))
		case DirectionDown:
			out = append(out, fmt.Sprintf("%s shows a declining trend and needs attention", t.DisplayName))
		}
	}
	if overall, ok := trends[PrimaryMetric]; ok {
		switch {
		case overall.Average >= kpi.StrengthFloor:
			out = append(out, "Overall performance is excellent across years")
		case overall.Average >= kpi.WeaknessFloor:
			out = append(out, "Overall performance is good with room for improvement")
		default:
			out = append(out, "Overall performance needs significant improvement")
		}
	}
	return out
}
