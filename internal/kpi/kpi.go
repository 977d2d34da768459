// Package kpi computes the mode-specific performance indicators from the
// aggregated block data of a batch. A KPI whose inputs are missing is reported
// as null with the missing parameters listed; it is never scored as zero.
package kpi

import (
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

const (
	KeyFSR             = "fsr_score"
	KeyInfrastructure  = "infrastructure_score"
	KeyPlacement       = "placement_index"
	KeyLabCompliance   = "lab_compliance_index"
	KeyResearch        = "research_index"
	KeyGovernance      = "governance_score"
	KeyStudentOutcome  = "student_outcome_index"
	KeyOverall         = "overall_score"
	overallWeight      = 1.0
	ugcResearchShare   = 0.3
	ugcGovernanceShare = 0.3
	ugcOutcomeShare    = 0.4
)

// Score is one KPI with its drill-down.
type Score struct {
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	Value      *float64           `json:"value"`
	Weight     float64            `json:"weight"`
	Formula    string             `json:"formula,omitempty"`
	Parameters map[string]float64 `json:"parameters"`
	Components map[string]float64 `json:"components,omitempty"`
	Missing    []string           `json:"missing_parameters"`
}

func (s Score) Available() bool { return s.Value != nil }

type Result struct {
	Mode    blocks.Mode `json:"mode"`
	Scores  []Score     `json:"kpis"`
	Overall Score       `json:"overall"`
}

// Value returns a KPI value by key, including the overall score.
func (r Result) Value(key string) (float64, bool) {
	if key == KeyOverall {
		if r.Overall.Value == nil {
			return 0, false
		}
		return *r.Overall.Value, true
	}
	for _, s := range r.Scores {
		if s.Key == key && s.Value != nil {
			return *s.Value, true
		}
	}
	return 0, false
}

// Values flattens the result to key -> value with nulls preserved.
func (r Result) Values() map[string]*float64 {
	out := make(map[string]*float64, len(r.Scores)+1)
	for _, s := range r.Scores {
		out[s.Key] = s.Value
	}
	out[KeyOverall] = r.Overall.Value
	return out
}

// Calculate evaluates every KPI configured for mode. Mixed mode evaluates the
// AICTE and UGC sets together.
func Calculate(tables config.Tables, mode blocks.Mode, data blocks.Data) Result {
	data = blocks.WithNumeric(data)
	var specs []config.KPISpec
	switch mode {
	case blocks.ModeMixed:
		specs = append(specs, tables.KPIs[blocks.ModeAICTE]...)
		specs = append(specs, tables.KPIs[blocks.ModeUGC]...)
	default:
		specs = tables.KPIs[mode]
	}

	r := Result{Mode: mode, Scores: make([]Score, 0, len(specs))}
	for _, spec := range specs {
		s := Score{
			Key:        spec.Key,
			Name:       spec.Name,
			Weight:     spec.Weight,
			Formula:    spec.Formula,
			Parameters: map[string]float64{},
			Missing:    []string{},
		}
		if f, ok := formulas[spec.Formula]; ok {
			f(data, &s)
		} else {
			s.Missing = append(s.Missing, "formula:"+spec.Formula)
		}
		if s.Value != nil {
			v := blocks.Round2(*s.Value)
			s.Value = &v
		}
		r.Scores = append(r.Scores, s)
	}
	r.Overall = overall(mode, r)
	return r
}

func overall(mode blocks.Mode, r Result) Score {
	s := Score{Key: KeyOverall, Weight: overallWeight, Parameters: map[string]float64{}, Missing: []string{}}
	get := func(key string) *float64 {
		for _, sc := range r.Scores {
			if sc.Key == key {
				if sc.Value != nil {
					s.Parameters[key] = *sc.Value
				} else {
					s.Missing = append(s.Missing, key)
				}
				return sc.Value
			}
		}
		s.Missing = append(s.Missing, key)
		return nil
	}

	switch mode {
	case blocks.ModeAICTE:
		s.Name = "AICTE Overall Score"
		fsr := get(KeyFSR)
		var values []*float64
		if fsr != nil {
			s.Formula = "mean(fsr_score, placement_index, lab_compliance_index)"
			values = []*float64{fsr, get(KeyPlacement), get(KeyLabCompliance)}
		} else {
			s.Formula = "mean(infrastructure_score, placement_index, lab_compliance_index)"
			values = []*float64{get(KeyInfrastructure), get(KeyPlacement), get(KeyLabCompliance)}
		}
		s.Value = mean(values)
	case blocks.ModeUGC:
		s.Name = "UGC Overall Score"
		s.Formula = "0.3*research_index + 0.3*governance_score + 0.4*student_outcome_index"
		research, governance, outcome := get(KeyResearch), get(KeyGovernance), get(KeyStudentOutcome)
		if research != nil && governance != nil && outcome != nil {
			v := *research*ugcResearchShare + *governance*ugcGovernanceShare + *outcome*ugcOutcomeShare
			s.Value = &v
		}
	default:
		s.Name = "Overall Score"
		s.Formula = "weighted mean of available KPIs"
		var sum, weights float64
		for _, sc := range r.Scores {
			if sc.Value == nil {
				s.Missing = append(s.Missing, sc.Key)
				continue
			}
			s.Parameters[sc.Key] = *sc.Value
			sum += *sc.Value * sc.Weight
			weights += sc.Weight
		}
		if weights > 0 {
			v := sum / weights
			s.Value = &v
		}
	}
	if s.Value != nil {
		v := blocks.Round2(*s.Value)
		s.Value = &v
	}
	return s
}

func mean(values []*float64) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
