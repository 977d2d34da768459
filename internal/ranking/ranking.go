// Package ranking orders completed batches by a weighted sum of their KPI
// values. Batches that cannot be scored are excluded with a reason instead of
// being given a synthetic score.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
)

// Keys are the KPI keys a ranking weight may reference.
var Keys = []string{
	kpi.KeyFSR,
	kpi.KeyInfrastructure,
	kpi.KeyPlacement,
	kpi.KeyLabCompliance,
	kpi.KeyOverall,
}

const (
	ReasonNotFound     = "batch_not_found"
	ReasonInsufficient = "insufficient_kpi_data"
	statusCompleted    = "completed"
	minNameLength      = 4
	highlightCount     = 3
)

// Candidate is what ranking needs to know about one batch.
type Candidate struct {
	BatchID         string
	Status          string
	Mode            string
	InstitutionName string
	AcademicYear    string
	KPIs            map[string]*float64
}

// Source resolves batch ids to candidates; found is false for unknown ids.
type Source interface {
	Candidate(ctx context.Context, batchID string) (c Candidate, found bool, err error)
}

type Entry struct {
	Rank         int                 `json:"rank"`
	BatchID      string              `json:"batch_id"`
	Name         string              `json:"name"`
	ShortLabel   string              `json:"short_label"`
	Mode         string              `json:"mode,omitempty"`
	RankingScore float64             `json:"ranking_score"`
	KPIs         map[string]*float64 `json:"kpis"`
	Strengths    []string            `json:"strengths"`
	Weaknesses   []string            `json:"weaknesses"`
}

type Exclusion struct {
	BatchID string `json:"batch_id"`
	Reason  string `json:"reason"`
}

type Result struct {
	TopN         int                `json:"top_n"`
	Weights      map[string]float64 `json:"weights"`
	Institutions []Entry            `json:"institutions"`
	Excluded     []Exclusion        `json:"insufficient_batches"`
}

// NormalizeWeights keeps only the canonical keys and clamps negatives to zero.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(Keys))
	for _, k := range Keys {
		w := weights[k]
		if w < 0 {
			w = 0
		}
		out[k] = w
	}
	return out
}

// Rank scores each distinct batch id in input order and returns the top n
// entries by descending score. Equal scores keep input order.
func Rank(ctx context.Context, src Source, batchIDs []string, weights map[string]float64, topN int) (Result, error) {
	w := NormalizeWeights(weights)
	res := Result{TopN: topN, Weights: w, Institutions: []Entry{}, Excluded: []Exclusion{}}

	seen := map[string]bool{}
	for _, id := range batchIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		c, found, err := src.Candidate(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("load batch %s: %w", id, err)
		}
		if !found {
			res.Excluded = append(res.Excluded, Exclusion{BatchID: id, Reason: ReasonNotFound})
			continue
		}
		if c.Status != statusCompleted {
			res.Excluded = append(res.Excluded, Exclusion{BatchID: id, Reason: "status_" + c.Status})
			continue
		}
		score, ok := weightedScore(c.KPIs, w)
		if !ok {
			res.Excluded = append(res.Excluded, Exclusion{BatchID: id, Reason: ReasonInsufficient})
			continue
		}

		kpis := canonicalKPIs(c.KPIs)
		strengths, weaknesses := highlights(kpis)
		label := ShortLabel(c.InstitutionName, c.AcademicYear, id)
		name := strings.TrimSpace(c.InstitutionName)
		if len(name) < minNameLength {
			name = label
		}
		res.Institutions = append(res.Institutions, Entry{
			BatchID:      id,
			Name:         name,
			ShortLabel:   label,
			Mode:         c.Mode,
			RankingScore: score,
			KPIs:         kpis,
			Strengths:    strengths,
			Weaknesses:   weaknesses,
		})
	}

	sort.SliceStable(res.Institutions, func(i, j int) bool {
		return res.Institutions[i].RankingScore > res.Institutions[j].RankingScore
	})
	if topN >= 0 && len(res.Institutions) > topN {
		res.Institutions = res.Institutions[:topN]
	}
	for i := range res.Institutions {
		res.Institutions[i].Rank = i + 1
	}
	return res, nil
}

// weightedScore needs every nonzero-weighted KPI to be present and positive.
func weightedScore(values map[string]*float64, weights map[string]float64) (float64, bool) {
	total := 0.0
	used := 0
	for _, k := range Keys {
		wt := weights[k]
		if wt == 0 {
			continue
		}
		v := values[k]
		if v == nil || *v <= 0 {
			return 0, false
		}
		total += wt * *v
		used++
	}
	return total, used > 0
}

func canonicalKPIs(values map[string]*float64) map[string]*float64 {
	out := make(map[string]*float64, len(Keys))
	for _, k := range Keys {
		if v := values[k]; v != nil && *v > 0 {
			val := *v
			out[k] = &val
		} else {
			out[k] = nil
		}
	}
	return out
}

// highlights lists up to three leading KPIs scoring 60 or more as strengths and
// up to three trailing KPIs below 60 as weaknesses.
func highlights(kpis map[string]*float64) ([]string, []string) {
	type scored struct {
		key string
		v   float64
	}
	var list []scored
	for _, k := range Keys {
		if v := kpis[k]; v != nil {
			list = append(list, scored{k, *v})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].v > list[j].v })

	strengths, weaknesses := []string{}, []string{}
	for i := 0; i < len(list) && i < highlightCount; i++ {
		switch s := list[i]; {
		case s.v >= kpi.StrengthFloor:
			strengths = append(strengths, fmt.Sprintf("Excellent %s (%.1f)", MetricDisplayName(s.key), s.v))
		case s.v >= kpi.WeaknessFloor:
			strengths = append(strengths, fmt.Sprintf("Good %s (%.1f)", MetricDisplayName(s.key), s.v))
		}
	}
	for i := len(list) - 1; i >= 0 && len(weaknesses) < highlightCount; i-- {
		if s := list[i]; s.v < kpi.WeaknessFloor {
			weaknesses = append(weaknesses, fmt.Sprintf("%s needs improvement (%.1f)", MetricDisplayName(s.key), s.v))
		}
	}
	return strengths, weaknesses
}
