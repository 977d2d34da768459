package approval

import (
	"fmt"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

// MinEvidenceConfidence is the extraction confidence a block needs before its
// fields count as evidence for a checklist entry.
const MinEvidenceConfidence = 0.4

const fallbackKey = "aicte_renewal"

type Status string

const (
	StatusPresent Status = "present"
	StatusMissing Status = "missing"
	StatusUnknown Status = "unknown"
)

type DocumentEvidence struct {
	Field      string  `json:"field"`
	Value      any     `json:"value"`
	Snippet    string  `json:"snippet"`
	Page       int     `json:"page"`
	SourceDoc  string  `json:"source_doc,omitempty"`
	Confidence float64 `json:"confidence"`
}

type DocumentStatus struct {
	Key         string            `json:"key"`
	Description string            `json:"description"`
	Required    bool              `json:"required"`
	Status      Status            `json:"status"`
	Reason      string            `json:"reason,omitempty"`
	Evidence    *DocumentEvidence `json:"evidence,omitempty"`
}

type Readiness struct {
	ApprovalType   string           `json:"approval_type"`
	Classification Classification   `json:"classification"`
	Fallback       string           `json:"fallback,omitempty"`
	Documents      []DocumentStatus `json:"documents"`
	Present        []string         `json:"present_documents"`
	Missing        []string         `json:"missing_documents"`
	Unknown        []string         `json:"unknown_documents"`
	TotalRequired  int              `json:"total_required"`
	PresentCount   int              `json:"total_present"`
	Score          float64          `json:"readiness_score"`
}

// ApprovalType resolves the checklist key for a classification. An unknown
// category falls back to the batch mode, a mixed one to the AICTE checklist,
// and an unknown subtype to renewal. Every substitution is described in the
// returned fallback note.
func ApprovalType(tables config.Tables, c Classification, mode blocks.Mode) (string, string) {
	var notes []string
	category := c.Category
	if category == CategoryUnknown || category == "" {
		category = Category(mode)
		notes = append(notes, fmt.Sprintf("category unknown, using batch mode %q", mode))
	}
	if category == CategoryMixed {
		category = CategoryAICTE
		notes = append(notes, "mixed category checked against the aicte checklist")
	}
	subtype := c.Subtype
	if subtype != SubtypeNew && subtype != SubtypeRenewal {
		subtype = SubtypeRenewal
		notes = append(notes, "subtype unknown, using the renewal checklist")
	}
	key := string(category) + "_" + string(subtype)
	if _, ok := tables.RequiredDocuments[key]; !ok {
		notes = append(notes, fmt.Sprintf("no checklist for %q, using %q", key, fallbackKey))
		key = fallbackKey
	}
	return key, strings.Join(notes, "; ")
}

// Score checks every entry of the resolved checklist against the blocks.
// An entry is present when one of its alias fields holds a non-null value in a
// non-invalid block with enough extraction confidence. Otherwise it is missing
// when a block of one of its types was extracted and unknown when none was.
// The score counts required entries only.
func Score(tables config.Tables, c Classification, mode blocks.Mode, bs []blocks.Block) Readiness {
	key, fallback := ApprovalType(tables, c, mode)
	r := Readiness{
		ApprovalType:   key,
		Classification: c,
		Fallback:       fallback,
		Documents:      []DocumentStatus{},
		Present:        []string{},
		Missing:        []string{},
		Unknown:        []string{},
	}

	for _, doc := range tables.RequiredDocuments[key] {
		ds := DocumentStatus{Key: doc.Key, Description: doc.Description, Required: doc.Required}
		switch ev := bestEvidence(bs, doc.Aliases); {
		case ev != nil:
			ds.Status, ds.Evidence = StatusPresent, ev
			r.Present = append(r.Present, doc.Key)
		case examined(bs, doc.BlockTypes):
			ds.Status, ds.Reason = StatusMissing, "not found in extracted data"
			r.Missing = append(r.Missing, doc.Key)
		default:
			ds.Status, ds.Reason = StatusUnknown, "no relevant block was extracted"
			r.Unknown = append(r.Unknown, doc.Key)
		}
		if doc.Required {
			r.TotalRequired++
			if ds.Status == StatusPresent {
				r.PresentCount++
			}
		}
		r.Documents = append(r.Documents, ds)
	}
	if r.TotalRequired > 0 {
		r.Score = blocks.Round2(float64(r.PresentCount) / float64(r.TotalRequired) * 100)
	}
	return r
}

// bestEvidence returns the affirmative alias hit from the most confident
// qualifying block; ties keep the earliest block. Values such as false or
// "not available" are not evidence.
func bestEvidence(bs []blocks.Block, aliases []string) *DocumentEvidence {
	var best *DocumentEvidence
	for _, b := range bs {
		if b.Quality.IsInvalid || b.ExtractionConfidence < MinEvidenceConfidence {
			continue
		}
		for _, alias := range aliases {
			if !b.Data.Truthy(alias) {
				continue
			}
			v := b.Data[alias]
			if best == nil || b.ExtractionConfidence > best.Confidence {
				best = &DocumentEvidence{
					Field:      alias,
					Value:      v,
					Snippet:    b.Evidence.Snippet,
					Page:       b.Evidence.Page,
					SourceDoc:  b.SourceDoc,
					Confidence: b.ExtractionConfidence,
				}
			}
			break
		}
	}
	return best
}

// examined reports whether extraction produced any block of the given types.
// An entry not tied to a block type counts as examined once any block exists.
func examined(bs []blocks.Block, types []blocks.Type) bool {
	if len(types) == 0 {
		return len(bs) > 0
	}
	for _, b := range bs {
		for _, bt := range types {
			if b.Type == bt {
				return true
			}
		}
	}
	return false
}
