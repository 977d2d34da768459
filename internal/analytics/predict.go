package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
)

const (
	// MinHistoryYears is the number of distinct years a metric needs before
	// it is forecast.
	MinHistoryYears = 3
	flatVariance    = 1e-10
	kpiFloor        = 0.0
	kpiCeiling      = 100.0
	maxRecommended  = 5
	excellentKPI    = 90.0
	confidentFit    = 0.5
)

type Forecast struct {
	Metric      string        `json:"metric_name"`
	DisplayName string        `json:"display_name"`
	History     []Observation `json:"historical_values"`
	Predicted   []Observation `json:"predicted_values"`
	Slope       float64       `json:"slope"`
	Direction   Direction     `json:"trend_direction"`
	Confidence  float64       `json:"confidence"`
	Explanation string        `json:"explanation"`
}

type Prediction struct {
	HasEnoughData   bool                `json:"has_enough_data"`
	Years           []int               `json:"available_years"`
	Forecasts       map[string]Forecast `json:"forecasts"`
	Insufficient    map[string]string   `json:"insufficient_metrics"`
	GrowthAreas     []string            `json:"growth_areas"`
	DeclineWarnings []string            `json:"decline_warnings"`
	Recommendations []string            `json:"recommendations"`
}

type line struct {
	slope, intercept, r2 float64
}

func (l line) at(x float64) float64 { return l.slope*x + l.intercept }

// fitLine is an ordinary least-squares fit of value against years elapsed
// since the first observation. R² is clipped to [0, 1]; a flat series fits
// perfectly.
func fitLine(series []Observation) line {
	n := float64(len(series))
	if len(series) == 0 {
		return line{}
	}
	base := float64(series[0].Year)
	var sx, sy, sxy, sxx float64
	for _, o := range series {
		x := float64(o.Year) - base
		sx += x
		sy += o.Value
		sxy += x * o.Value
		sxx += x * x
	}
	l := line{intercept: sy / n}
	if denom := n*sxx - sx*sx; math.Abs(denom) > flatVariance {
		l.slope = (n*sxy - sx*sy) / denom
		l.intercept = (sy - l.slope*sx) / n
	}

	mean := sy / n
	var ssRes, ssTot float64
	for _, o := range series {
		x := float64(o.Year) - base
		ssRes += (o.Value - l.at(x)) * (o.Value - l.at(x))
		ssTot += (o.Value - mean) * (o.Value - mean)
	}
	if ssTot < flatVariance {
		l.r2 = 1
	} else {
		l.r2 = math.Max(0, math.Min(1, 1-ssRes/ssTot))
	}
	return l
}

// Predict forecasts each metric with at least MinHistoryYears distinct years
// of history for the horizon years following its last observation. Metrics with
// less history are listed as insufficient and get no forecast. Forecast values
// are clipped to the KPI range.
func Predict(series map[string][]Observation, metrics []string, horizon int) Prediction {
	p := Prediction{
		Forecasts:       map[string]Forecast{},
		Insufficient:    map[string]string{},
		Years:           []int{},
		GrowthAreas:     []string{},
		DeclineWarnings: []string{},
		Recommendations: []string{},
	}
	seen := map[int]bool{}
	for _, m := range metrics {
		for _, o := range series[m] {
			if !seen[o.Year] {
				seen[o.Year] = true
				p.Years = append(p.Years, o.Year)
			}
		}
	}
	sort.Ints(p.Years)

	for _, m := range metrics {
		hist := series[m]
		if len(hist) < MinHistoryYears {
			p.Insufficient[m] = fmt.Sprintf("%d of %d required years of history", len(hist), MinHistoryYears)
			continue
		}
		p.Forecasts[m] = forecast(m, hist, horizon)
	}
	p.HasEnoughData = len(p.Forecasts) > 0

	for _, m := range metrics {
		f, ok := p.Forecasts[m]
		if !ok {
			continue
		}
		switch {
		case f.Direction == DirectionUp && f.Confidence > confidentFit:
			p.GrowthAreas = append(p.GrowthAreas, f.DisplayName+": strong positive trend")
		case f.Direction == DirectionDown && f.Confidence > confidentFit:
			p.DeclineWarnings = append(p.DeclineWarnings, f.DisplayName+": declining trend, action needed")
		}
		if rec := recommendation(f); rec != "" && len(p.Recommendations) < maxRecommended {
			p.Recommendations = append(p.Recommendations, rec)
		}
	}
	return p
}

func forecast(metric string, hist []Observation, horizon int) Forecast {
	fit := fitLine(hist)
	base := hist[0].Year
	last := hist[len(hist)-1].Year
	f := Forecast{
		Metric:      metric,
		DisplayName: ranking.MetricDisplayName(metric),
		History:     hist,
		Predicted:   []Observation{},
		Slope:       blocks.Round2(fit.slope),
		Direction:   direction(fit.slope),
		Confidence:  blocks.Round2(fit.r2),
	}
	for i := 1; i <= horizon; i++ {
		year := last + i
		v := math.Max(kpiFloor, math.Min(kpiCeiling, fit.at(float64(year-base))))
		f.Predicted = append(f.Predicted, Observation{Year: year, Value: blocks.Round2(v)})
	}

	sum := 0.0
	for _, o := range hist {
		sum += o.Value
	}
	f.Explanation = explain(f.DisplayName, f.Direction, fit.slope, sum/float64(len(hist)))
	return f
}

func explain(name string, d Direction, slope, avg float64) string {
	switch d {
	case DirectionUp:
		return fmt.Sprintf("%s shows consistent improvement and is projected to keep growing from a historical average of %.1f.", name, avg)
	case DirectionDown:
		return fmt.Sprintf("%s is declining by %.1f points a year; intervention is recommended.", name, math.Abs(slope))
	}
	return fmt.Sprintf("%s remains stable around %.1f; no significant change is expected.", name, avg)
}

func recommendation(f Forecast) string {
	switch f.Direction {
	case DirectionDown:
		switch f.Metric {
		case kpi.KeyFSR:
			return "Hire additional faculty to improve the faculty-student ratio"
		case kpi.KeyInfrastructure:
			return "Plan infrastructure upgrades to meet growing demand"
		case kpi.KeyPlacement:
			return "Strengthen industry partnerships to lift placement rates"
		case kpi.KeyLabCompliance:
			return "Invest in lab equipment upgrades to stay compliant"
		}
	case DirectionUp:
		if n := len(f.Predicted); n > 0 && f.Predicted[n-1].Value >= excellentKPI {
			return "Maintain current " + f.DisplayName + " strategies; on track for excellence"
		}
	}
	return ""
}
