// Package approval classifies a batch as an AICTE/UGC new or renewal
// application and scores its readiness against the required-document
// checklist for that approval type.
package approval

import (
	"fmt"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

type Category string

const (
	CategoryAICTE   Category = "aicte"
	CategoryUGC     Category = "ugc"
	CategoryMixed   Category = "mixed"
	CategoryUnknown Category = "unknown"
)

type Subtype string

const (
	SubtypeNew     Subtype = "new"
	SubtypeRenewal Subtype = "renewal"
	SubtypeUnknown Subtype = "unknown"
)

type Classification struct {
	Category   Category `json:"category"`
	Subtype    Subtype  `json:"subtype"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

// Classify inspects only the evidence snippets of the blocks, never the full
// documents. A new-plan signal outranks a renewal signal when both appear.
func Classify(tables config.Tables, bs []blocks.Block) Classification {
	text := EvidenceText(bs)
	c := Classification{Category: CategoryUnknown, Subtype: SubtypeUnknown, Signals: []string{}}
	if strings.TrimSpace(text) == "" {
		c.Signals = append(c.Signals, "no evidence text")
		return c
	}

	aicte := hits(text, tables.Approval.AICTE)
	ugc := hits(text, tables.Approval.UGC)
	newPlan := hits(text, tables.Approval.New)
	renewal := hits(text, tables.Approval.Renewal)

	switch {
	case len(aicte) > 0 && len(ugc) > 0:
		c.Category = CategoryMixed
	case len(aicte) > 0:
		c.Category = CategoryAICTE
	case len(ugc) > 0:
		c.Category = CategoryUGC
	}
	switch {
	case len(newPlan) > 0:
		c.Subtype = SubtypeNew
	case len(renewal) > 0:
		c.Subtype = SubtypeRenewal
	}

	for _, group := range []struct {
		label string
		found []string
	}{
		{"aicte", aicte}, {"ugc", ugc}, {"new", newPlan}, {"renewal", renewal},
	} {
		if len(group.found) > 0 {
			c.Signals = append(c.Signals, fmt.Sprintf("%s: %s", group.label, strings.Join(group.found, ", ")))
		}
	}
	c.Confidence = confidence(len(aicte) + len(ugc) + len(newPlan) + len(renewal))
	return c
}

// EvidenceText joins the evidence snippets of all blocks in order.
func EvidenceText(bs []blocks.Block) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		if s := strings.TrimSpace(b.Evidence.Snippet); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func hits(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func confidence(signals int) float64 {
	switch {
	case signals >= 10:
		return 0.9
	case signals >= 5:
		return 0.75
	case signals >= 2:
		return 0.6
	case signals >= 1:
		return 0.4
	}
	return 0
}
