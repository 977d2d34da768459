// Package compliance evaluates the per-mode rule tables against a batch's
// blocks. Every check is a pure predicate over the blocks and their aggregate;
// flags come out in rule-table order.
package compliance

import (
	"fmt"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	fsrFloor          = 0.05
	weakPlacementRate = 50.0
	minPublications   = 10.0
)

type Flag struct {
	RuleID         string      `json:"rule_id"`
	Mode           blocks.Mode `json:"mode"`
	Severity       Severity    `json:"severity"`
	Title          string      `json:"title"`
	Reason         string      `json:"reason"`
	Evidence       string      `json:"evidence,omitempty"`
	Recommendation string      `json:"recommendation,omitempty"`
}

// finding is what a failing check reports; a nil finding means the rule passed.
type finding struct {
	reason   string
	evidence string
}

type input struct {
	blocks []blocks.Block
	data   blocks.Data
}

func (in input) has(bt blocks.Type) bool {
	for _, b := range in.blocks {
		if b.Type == bt && b.HasData() {
			return true
		}
	}
	return false
}

type check func(in input) *finding

var checks = map[string]check{
	"fire_noc":             checkFireNOC,
	"building_stability":   checkBuildingStability,
	"sanitary_expired":     checkSanitaryExpired,
	"aicte_committees":     checkAICTECommittees,
	"fsr_floor":            checkFSRFloor,
	"placement_data":       checkPlacementData,
	"governance_bodies":    checkGovernanceBodies,
	"iqac":                 checkIQAC,
	"ugc_regulations":      checkUGCRegulations,
	"annual_budget":        checkAnnualBudget,
	"statutory_committees": checkStatutoryCommittees,
	"research_output":      checkResearchOutput,
}

// Evaluate runs the mode's rules over the non-invalid blocks. Mixed mode runs
// the AICTE rules followed by the UGC rules. Rules naming an unknown check are
// skipped.
func Evaluate(tables config.Tables, mode blocks.Mode, bs []blocks.Block) []Flag {
	valid := make([]blocks.Block, 0, len(bs))
	for _, b := range bs {
		if !b.Quality.IsInvalid {
			valid = append(valid, b)
		}
	}
	in := input{blocks: valid, data: blocks.Aggregate(valid)}

	modes := []blocks.Mode{mode}
	if mode == blocks.ModeMixed {
		modes = []blocks.Mode{blocks.ModeAICTE, blocks.ModeUGC}
	}
	flags := []Flag{}
	for _, m := range modes {
		for _, rule := range tables.Compliance[m] {
			c, ok := checks[rule.Check]
			if !ok {
				continue
			}
			f := c(in)
			if f == nil {
				continue
			}
			flags = append(flags, Flag{
				RuleID:         rule.RuleID,
				Mode:           m,
				Severity:       Severity(rule.Severity),
				Title:          rule.Title,
				Reason:         f.reason,
				Evidence:       f.evidence,
				Recommendation: rule.Recommendation,
			})
		}
	}
	return flags
}

// CountBySeverity tallies flags for summaries.
func CountBySeverity(flags []Flag) map[Severity]int {
	out := map[Severity]int{SeverityLow: 0, SeverityMedium: 0, SeverityHigh: 0}
	for _, f := range flags {
		out[f.Severity]++
	}
	return out
}

func certificateCheck(in input, synonyms []string, name string) *finding {
	p := certificate(in.blocks, blocks.TypeSafetyCompliance, synonyms)
	if p.found {
		return nil
	}
	for _, k := range in.data.Keys() {
		if v, ok := in.data[k].(bool); ok && v && matches(k, synonyms) {
			return nil
		}
	}
	if p.lapsed {
		return &finding{reason: name + " is expired or not valid", evidence: p.evidence}
	}
	return &finding{reason: name + " is missing or not valid for the current year"}
}

func checkFireNOC(in input) *finding {
	return certificateCheck(in, fireNOCSynonyms, "Fire NOC certificate")
}

func checkBuildingStability(in input) *finding {
	return certificateCheck(in, buildingSynonyms, "Building Stability Certificate")
}

// Sanitary clearance is optional; only an explicitly expired one is flagged.
func checkSanitaryExpired(in input) *finding {
	for _, b := range in.blocks {
		if b.Type != blocks.TypeSafetyCompliance {
			continue
		}
		for _, k := range b.Data.Keys() {
			if matches(k, sanitarySynonyms) || strings.Contains(k, "sanitary") {
				if lapsed(b.Data[k]) {
					return &finding{
						reason:   fmt.Sprintf("Sanitary Certificate or Environmental Clearance is expired or invalid (%s: %v)", k, b.Data[k]),
						evidence: b.Evidence.Snippet,
					}
				}
			}
		}
		ev := strings.ToLower(b.Evidence.Snippet)
		if (strings.Contains(ev, "sanitary") || strings.Contains(ev, "environmental clearance")) && lapsed(ev) {
			return &finding{
				reason:   "Sanitary Certificate or Environmental Clearance is expired or invalid",
				evidence: b.Evidence.Snippet,
			}
		}
	}
	return nil
}

func committeePresent(b blocks.Block, synonyms []string) bool {
	for _, k := range b.Data.Keys() {
		if matches(k, synonyms) && b.Data.Truthy(k) {
			return true
		}
		if s, ok := b.Data[k].(string); ok && matches(s, synonyms) {
			return true
		}
		if list, ok := b.Data[k].([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok && matches(s, synonyms) {
					return true
				}
			}
		}
	}
	return b.Evidence.Snippet != "" && matches(b.Evidence.Snippet, synonyms)
}

// Committees are checked only when a committees block was extracted; absence
// of the block is a sufficiency concern, not a compliance one.
func checkAICTECommittees(in input) *finding {
	var committees []blocks.Block
	for _, b := range in.blocks {
		if b.Type == blocks.TypeCommittees {
			committees = append(committees, b)
		}
	}
	if len(committees) == 0 {
		return nil
	}
	required := []struct {
		label    string
		synonyms []string
	}{
		{"ICC (Internal Complaints Committee)", iccSynonyms},
		{"Anti-Ragging Committee", antiRaggingSynonyms},
	}
	var missing []string
	for _, r := range required {
		found := false
		for _, b := range committees {
			if committeePresent(b, r.synonyms) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, r.label)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &finding{reason: "Required committees not found: " + strings.Join(missing, ", ")}
}

func checkFSRFloor(in input) *finding {
	faculty, _, okF := in.data.Number("faculty_count", "total_faculty", "faculty")
	students, _, okS := in.data.Number("total_students", "student_count", "total_intake", "students", "admitted_students")
	if !okF || !okS || faculty <= 0 || students <= 0 {
		return nil
	}
	ratio := faculty / students
	if ratio >= fsrFloor {
		return nil
	}
	return &finding{reason: fmt.Sprintf("Faculty-student ratio is 1:%.1f (%.0f faculty for %.0f students), below 1:20", students/faculty, faculty, students)}
}

func checkPlacementData(in input) *finding {
	rate, _, ok := in.data.Number("placement_rate", "placement_percentage")
	if !ok {
		placed, _, okP := in.data.Number("students_placed", "total_placements", "placed_students")
		eligible, _, okE := in.data.Number("students_eligible", "eligible_students")
		if okP && okE && eligible > 0 {
			rate, ok = placed/eligible*100, true
		}
	}
	if !ok {
		return &finding{reason: "No placement rate or placed/eligible counts were found"}
	}
	if rate < weakPlacementRate {
		return &finding{reason: fmt.Sprintf("Placement rate %.2f%% is below %.0f%%", rate, weakPlacementRate)}
	}
	return nil
}

func checkGovernanceBodies(in input) *finding {
	if !in.has(blocks.TypeCommittees) {
		return nil
	}
	bodies := []struct{ key, label string }{
		{"board_of_governors", "Board of Governors (BoG)"},
		{"academic_council", "Academic Council (AC)"},
		{"finance_committee", "Finance Committee (FC)"},
	}
	var missing []string
	for _, body := range bodies {
		if !in.data.Truthy(body.key) {
			missing = append(missing, body.label)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &finding{reason: "Required governance bodies not found: " + strings.Join(missing, ", ")}
}

func checkIQAC(in input) *finding {
	if !in.has(blocks.TypeCommittees) {
		return nil
	}
	if in.data.Truthy("iqac_established") || in.data.Truthy("iqac") {
		return nil
	}
	return &finding{reason: "Internal Quality Assurance Cell (IQAC) is not established"}
}

func checkUGCRegulations(in input) *finding {
	if !in.has(blocks.TypeSafetyCompliance) {
		return nil
	}
	if in.data.Truthy("ugc_regulations_2018_compliance") {
		return nil
	}
	return &finding{reason: "UGC Regulations 2018 compliance not confirmed"}
}

func checkAnnualBudget(in input) *finding {
	if !in.has(blocks.TypeFeeStructure) {
		return nil
	}
	if _, _, ok := in.data.Number("annual_budget", "total_budget"); ok {
		return nil
	}
	return &finding{reason: "Annual budget information is missing"}
}

func checkStatutoryCommittees(in input) *finding {
	if !in.has(blocks.TypeCommittees) {
		return nil
	}
	if v, ok := in.data["statutory_committees"]; ok && !blocks.IsNull(v) {
		return nil
	}
	return &finding{reason: "Statutory committees information is missing"}
}

func checkResearchOutput(in input) *finding {
	pubs, _, ok := in.data.Number("publication_count", "publications", "research_publications")
	if !ok {
		return &finding{reason: "No publication count was found"}
	}
	if pubs < minPublications {
		return &finding{reason: fmt.Sprintf("%.0f publications reported, below %.0f", pubs, minPublications)}
	}
	return nil
}
