package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

func f(v float64) *float64 { return &v }

func point(id string, year int, overall float64) YearPoint {
	return YearPoint{BatchID: id, Year: year, Values: map[string]*float64{"overall_score": f(overall)}}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		data blocks.Data
		want int
		ok   bool
	}{
		{blocks.Data{"academic_year": "2023-24"}, 2024, true},
		{blocks.Data{"session": "AY 2022/23"}, 2023, true},
		{blocks.Data{"year": 2021.0}, 2021, true},
		{blocks.Data{"report_year_label": "FY 2019"}, 2019, true},
		{blocks.Data{"academic_year": "current", "faculty_count": 40}, 0, false},
	}
	for _, tc := range tests {
		got, ok := ExtractYear(tc.data)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ExtractYear(%v) = %d, %v; want %d, %v", tc.data, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAggregateAveragesSameYearAndDropsNonPositive(t *testing.T) {
	points := []YearPoint{
		point("a", 2023, 70),
		point("b", 2021, 60),
		point("c", 2023, 80),
		point("d", 2022, 0),
		{BatchID: "e", Year: 2022, Values: map[string]*float64{"overall_score": nil}},
		point("undated", 0, 99),
	}
	got := Aggregate(points, []string{"overall_score", "fsr_score"})
	want := map[string][]Observation{
		"overall_score": {{Year: 2021, Value: 60}, {Year: 2023, Value: 75}},
		"fsr_score":     {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	points := []YearPoint{point("a", 2021, 60), point("b", 2022, 70), point("c", 2023, 85), point("d", 2024, 80)}
	s := Summarize(points, []string{"overall_score"})

	assert.Equal(t, []int{2021, 2022, 2023, 2024}, s.Years)
	tr := s.Trends["overall_score"]
	assert.Equal(t, "Overall Score", tr.DisplayName)
	assert.InDelta(t, 73.75, tr.Average, 1e-9)
	assert.Equal(t, 60.0, tr.Min)
	assert.Equal(t, 85.0, tr.Max)
	assert.Equal(t, DirectionUp, tr.Direction)
	require.NotNil(t, s.BestYear)
	assert.Equal(t, 2023, *s.BestYear)
	assert.Equal(t, 2021, *s.WorstYear)
	assert.Contains(t, s.Insights, "Overall Score shows a positive growth trend")
	assert.Contains(t, s.Insights, "Overall performance is good with room for improvement")
}

func TestTrendDeadBand(t *testing.T) {
	series := []Observation{{2021, 70}, {2022, 70.5}, {2023, 71}}
	assert.Equal(t, DirectionStable, trendOf("overall_score", series).Direction)
	series = []Observation{{2021, 80}, {2022, 75}, {2023, 70}}
	assert.Equal(t, DirectionDown, trendOf("overall_score", series).Direction)
}

func TestPredictRequiresThreeYears(t *testing.T) {
	series := map[string][]Observation{
		"overall_score": {{2023, 70}, {2024, 75}},
		"fsr_score":     {{2024, 80}},
	}
	p := Predict(series, []string{"overall_score", "fsr_score", "placement_index"}, 5)
	assert.False(t, p.HasEnoughData)
	assert.Empty(t, p.Forecasts)
	assert.Len(t, p.Insufficient, 3)
}

func TestPredictLinearSeries(t *testing.T) {
	series := map[string][]Observation{
		"overall_score": {{2021, 60}, {2022, 65}, {2023, 70}, {2024, 75}},
		"fsr_score":     {{2023, 90}},
	}
	p := Predict(series, []string{"overall_score", "fsr_score"}, 6)
	require.True(t, p.HasEnoughData)
	assert.Contains(t, p.Insufficient, "fsr_score")

	fc := p.Forecasts["overall_score"]
	assert.Equal(t, 5.0, fc.Slope)
	assert.Equal(t, 1.0, fc.Confidence)
	assert.Equal(t, DirectionUp, fc.Direction)
	want := []Observation{{2025, 80}, {2026, 85}, {2027, 90}, {2028, 95}, {2029, 100}, {2030, 100}}
	if diff := cmp.Diff(want, fc.Predicted); diff != "" {
		t.Fatalf("forecast mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{2021, 2022, 2023, 2024}, p.Years)
	assert.Equal(t, []string{"Overall Score: strong positive trend"}, p.GrowthAreas)
	assert.Len(t, p.Recommendations, 1)
}

func TestPredictClipsAtZeroAndHandlesGaps(t *testing.T) {
	series := map[string][]Observation{
		"placement_index": {{2018, 40}, {2020, 20}, {2022, 10}},
	}
	p := Predict(series, []string{"placement_index"}, 3)
	fc := p.Forecasts["placement_index"]
	assert.Equal(t, DirectionDown, fc.Direction)
	assert.Less(t, fc.Confidence, 1.0)
	assert.Equal(t, 0.0, fc.Predicted[2].Value)
	assert.Contains(t, p.Recommendations, "Strengthen industry partnerships to lift placement rates")
}

func TestFitLineFlatSeries(t *testing.T) {
	l := fitLine([]Observation{{2020, 50}, {2021, 50}, {2022, 50}})
	assert.Zero(t, l.slope)
	assert.Equal(t, 1.0, l.r2)
	assert.Equal(t, 50.0, l.at(10))
}

func TestCompareBenchmarks(t *testing.T) {
	benchmarks := []Benchmark{
		{Year: 2022, Source: "national", Metrics: map[string]float64{"overall_score": 65, "fsr_score": 70}},
		{Year: 2020, Metrics: map[string]float64{"overall_score": 60}},
		{Year: 2026, Metrics: map[string]float64{"overall_score": 90}},
	}
	p := YearPoint{Year: 2024, Values: map[string]*float64{"overall_score": f(72.5), "fsr_score": f(70), "placement_index": f(88)}}

	c, ok := CompareBenchmarks(p, benchmarks, []string{"overall_score", "fsr_score", "placement_index"})
	require.True(t, ok)
	assert.Equal(t, 2022, c.BenchmarkYear)
	assert.Equal(t, "national", c.Source)
	require.Len(t, c.Deltas, 2)
	assert.Equal(t, 7.5, c.Deltas[0].Delta)
	assert.Equal(t, StandingAbove, c.Deltas[0].Standing)
	assert.Equal(t, StandingEqual, c.Deltas[1].Standing)
	assert.Equal(t, []string{"placement_index"}, c.Unmatched)

	_, ok = CompareBenchmarks(YearPoint{Year: 2019}, benchmarks, []string{"overall_score"})
	assert.False(t, ok)
}
