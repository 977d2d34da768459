package ranking

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

const abbrevLength = 3

var metricNames = map[string]string{
	"fsr":                   "FSR Score",
	"fsr_score":             "FSR Score",
	"infrastructure":        "Infrastructure Score",
	"infrastructure_score":  "Infrastructure Score",
	"placement":             "Placement Index",
	"placement_index":       "Placement Index",
	"lab_compliance":        "Lab Compliance",
	"lab_compliance_index":  "Lab Compliance Index",
	"research_index":        "Research Index",
	"governance_score":      "Governance Score",
	"student_outcome_index": "Student Outcome Index",
	"overall":               "Overall Score",
	"overall_score":         "Overall Score",
	"aicte_overall_score":   "AICTE Overall",
	"ugc_overall_score":     "UGC Overall",
	"sufficiency":           "Sufficiency %",
	"compliance_flags":      "Compliance Flags",
}

// MetricDisplayName turns a metric key into a label for reports. Unknown keys
// are title-cased with underscores as spaces.
func MetricDisplayName(key string) string {
	if name, ok := metricNames[strings.ToLower(key)]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ShortLabel builds a deterministic label such as "SIT-24-7F": up to three
// initials of the institution name, the two-digit academic year when one can be
// parsed, and the last two characters of the batch id.
func ShortLabel(institution, academicYear, batchID string) string {
	parts := []string{abbreviation(institution)}
	if y, ok := blocks.ParseYear(academicYear); ok {
		parts = append(parts, fmt.Sprintf("%02d", y%100))
	}
	suffix := batchID
	if r := []rune(batchID); len(r) > 2 {
		suffix = string(r[len(r)-2:])
	}
	if suffix != "" {
		parts = append(parts, strings.ToUpper(suffix))
	}
	return strings.Join(parts, "-")
}

func abbreviation(name string) string {
	var letters []rune
	for _, w := range strings.Fields(name) {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters = append(letters, unicode.ToUpper(r))
				break
			}
		}
		if len(letters) == abbrevLength {
			break
		}
	}
	switch {
	case len(letters) >= 2:
		for len(letters) < abbrevLength {
			letters = append(letters, letters[len(letters)-1])
		}
		return string(letters)
	case len(letters) == 1:
		clean := []rune(strings.ToUpper(strings.TrimSpace(name)))
		if len(clean) >= abbrevLength {
			return string(clean[:abbrevLength])
		}
	}
	return "INS"
}
