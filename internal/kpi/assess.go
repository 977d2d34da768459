package kpi

import "fmt"

const (
	StrengthFloor = 80.0
	WeaknessFloor = 60.0
)

type Assessment struct {
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Insufficient []string `json:"insufficient_data"`
}

// Assess labels each KPI as a strength (>= 80) or weakness (< 60). Null KPIs
// are listed as insufficient instead of being judged.
func Assess(r Result) Assessment {
	a := Assessment{Strengths: []string{}, Weaknesses: []string{}, Insufficient: []string{}}
	for _, s := range r.Scores {
		if s.Value == nil {
			a.Insufficient = append(a.Insufficient, fmt.Sprintf("%s: missing %v", s.Name, s.Missing))
			continue
		}
		v := *s.Value
		switch {
		case v >= StrengthFloor:
			a.Strengths = append(a.Strengths, fmt.Sprintf("%s: %.2f", s.Name, v))
		case v < WeaknessFloor:
			a.Weaknesses = append(a.Weaknesses, fmt.Sprintf("%s: %.2f", s.Name, v))
		}
	}
	return a
}
