// Package quality flags extracted blocks as outdated, low-quality or invalid.
// The checks are independent: a block may carry several flags at once, and a
// flag already set by extraction is never cleared or rewritten.
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

type Thresholds struct {
	LowQuality            float64
	InvalidClassification float64
	OutdatedWindowYears   int
	MinEvidenceWords      int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LowQuality:            config.DefaultLowQualityThreshold,
		InvalidClassification: config.DefaultInvalidClassification,
		OutdatedWindowYears:   config.DefaultOutdatedWindowYears,
		MinEvidenceWords:      config.DefaultMinEvidenceWords,
	}
}

func ThresholdsFromSettings(s config.Settings) Thresholds {
	return Thresholds{
		LowQuality:            s.LowQualityThreshold,
		InvalidClassification: s.InvalidClassificationFloor,
		OutdatedWindowYears:   s.OutdatedWindowYears,
		MinEvidenceWords:      s.MinEvidenceWords,
	}
}

type Assessor struct {
	th  Thresholds
	now func() time.Time
}

func NewAssessor(th Thresholds) *Assessor {
	return &Assessor{th: th, now: time.Now}
}

// AssessAll returns a copy of bs with quality flags applied.
func (a *Assessor) AssessAll(bs []blocks.Block) []blocks.Block {
	out := make([]blocks.Block, len(bs))
	for i, b := range bs {
		out[i] = a.Assess(b)
	}
	return out
}

func (a *Assessor) Assess(b blocks.Block) blocks.Block {
	q := b.Quality
	if !q.IsOutdated {
		if reason, ok := a.outdated(b.Data); ok {
			q.IsOutdated = true
			q.OutdatedReason = reason
		}
	}
	if !q.IsLowQuality {
		if reasons := a.lowQuality(b); len(reasons) > 0 {
			q.IsLowQuality = true
			q.LowQualityReason = strings.Join(reasons, "; ")
		}
	}
	if !q.IsInvalid {
		if reasons := a.invalid(b); len(reasons) > 0 {
			q.IsInvalid = true
			q.InvalidReason = strings.Join(reasons, "; ")
		}
	}
	b.Quality = q
	return b
}

type datedField struct {
	key  string
	year int
}

// outdated uses the most recent year in the block. Year-named fields win over
// years found in free-text values; a block with no year is never outdated.
func (a *Assessor) outdated(d blocks.Data) (string, bool) {
	latest, ok := latestYear(d, true)
	if !ok {
		latest, ok = latestYear(d, false)
	}
	if !ok {
		return "", false
	}
	current := a.now().Year()
	if current-latest.year <= a.th.OutdatedWindowYears {
		return "", false
	}
	return fmt.Sprintf("%s dated %d is more than %d years old (current: %d)",
		latest.key, latest.year, a.th.OutdatedWindowYears, current), true
}

func latestYear(d blocks.Data, yearKeys bool) (datedField, bool) {
	var best datedField
	found := false
	for _, k := range d.Keys() {
		if strings.HasSuffix(k, "_num") {
			continue
		}
		named := isYearKey(k)
		if named != yearKeys {
			continue
		}
		if !named && isQuantityKey(k) {
			continue
		}
		y, ok := blocks.ParseYear(d[k])
		if !ok {
			continue
		}
		if !found || y > best.year {
			best = datedField{key: k, year: y}
			found = true
		}
	}
	return best, found
}

// isYearKey matches "year" as a whole key token: academic_year and
// year_of_establishment qualify, years_of_experience does not.
func isYearKey(k string) bool {
	for _, tok := range keyTokens(k) {
		if tok == "year" {
			return true
		}
	}
	return false
}

func (a *Assessor) lowQuality(b blocks.Block) []string {
	var reasons []string
	if b.ExtractionConfidence < a.th.LowQuality {
		reasons = append(reasons, fmt.Sprintf("extraction confidence %.2f below %.2f", b.ExtractionConfidence, a.th.LowQuality))
	}
	if words := len(strings.Fields(b.Evidence.Snippet)); words < a.th.MinEvidenceWords {
		reasons = append(reasons, fmt.Sprintf("supporting text has %d words, need %d", words, a.th.MinEvidenceWords))
	}
	if b.RetriesExhausted {
		reasons = append(reasons, fmt.Sprintf("extraction retries exhausted after %d attempts", b.Attempts))
	}
	return reasons
}

// Sub-total fields that may not exceed their declared total.
var subtotals = []struct {
	total string
	parts []string
}{
	{"total_faculty", []string{"phd_faculty", "permanent_faculty", "professors", "associate_professors", "assistant_professors"}},
	{"faculty_count", []string{"phd_faculty", "phd_count", "permanent_faculty"}},
	{"total_students", []string{"male_students", "female_students", "ug_enrollment", "pg_enrollment"}},
	{"students_eligible", []string{"students_placed"}},
	{"total_labs", []string{"computer_labs", "science_labs", "engineering_labs"}},
}

func (a *Assessor) invalid(b blocks.Block) []string {
	var reasons []string
	if b.ClassificationConfidence < a.th.InvalidClassification {
		reasons = append(reasons, fmt.Sprintf("classification confidence %.2f below %.2f", b.ClassificationConfidence, a.th.InvalidClassification))
	}
	d := blocks.WithNumeric(b.Data)
	var negatives, outOfRange []string
	for _, k := range b.Data.Keys() {
		if strings.HasSuffix(k, "_num") {
			continue
		}
		n, _, ok := d.Number(k)
		if !ok {
			continue
		}
		switch {
		case isPercentKey(k) && (n < 0 || n > 100):
			outOfRange = append(outOfRange, fmt.Sprintf("%s=%g", k, n))
		case n < 0:
			negatives = append(negatives, fmt.Sprintf("%s=%g", k, n))
		}
	}
	if len(negatives) > 0 {
		reasons = append(reasons, "negative values: "+strings.Join(negatives, ", "))
	}
	if len(outOfRange) > 0 {
		reasons = append(reasons, "percentages outside 0-100: "+strings.Join(outOfRange, ", "))
	}
	reasons = append(reasons, subtotalViolations(d)...)
	return reasons
}

func isPercentKey(k string) bool {
	return strings.Contains(k, "percent") || strings.HasSuffix(k, "_rate") || strings.HasSuffix(k, "_pct")
}

func subtotalViolations(d blocks.Data) []string {
	var out []string
	for _, rule := range subtotals {
		total, _, ok := d.Number(rule.total)
		if !ok {
			continue
		}
		for _, p := range rule.parts {
			n, _, ok := d.Number(p)
			if !ok {
				continue
			}
			if n > total {
				out = append(out, fmt.Sprintf("%s (%g) exceeds %s (%g)", p, n, rule.total, total))
			}
		}
		if rule.total == "total_students" {
			if gender := genderSum(d); gender > total {
				out = append(out, fmt.Sprintf("male+female students (%g) exceed total_students (%g)", gender, total))
			}
		}
	}
	sort.Strings(out)
	return out
}

func genderSum(d blocks.Data) float64 {
	male, _, okM := d.Number("male_students")
	female, _, okF := d.Number("female_students")
	if !okM || !okF {
		return 0
	}
	return male + female
}

// Counts and measures in the year range (2000 students, 1950 sqm) are not dates.
var quantityTokens = map[string]bool{
	"count": true, "total": true, "number": true, "students": true, "intake": true, "seats": true,
	"capacity": true, "area": true, "sqm": true, "sqft": true, "fee": true, "amount": true,
	"books": true, "volumes": true, "strength": true,
}

func isQuantityKey(k string) bool {
	for _, tok := range keyTokens(k) {
		if quantityTokens[tok] {
			return true
		}
	}
	return false
}

func keyTokens(k string) []string {
	return strings.FieldsFunc(strings.ToLower(k), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
