package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

func tables(t *testing.T) config.Tables {
	t.Helper()
	tb, err := config.DefaultTables()
	require.NoError(t, err)
	return tb
}

func ruleIDs(flags []Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.RuleID)
	}
	return out
}

func blk(bt blocks.Type, snippet string, data blocks.Data) blocks.Block {
	return blocks.Block{Type: bt, Data: data, Evidence: blocks.Evidence{Page: 1, Snippet: snippet}}
}

func compliantAICTE() []blocks.Block {
	return []blocks.Block{
		blk(blocks.TypeSafetyCompliance, "Fire Safety NOC issued by the fire department, valid till 2027",
			blocks.Data{"fire_noc": "Valid till 2027", "building_stability_certificate": true}),
		blk(blocks.TypeCommittees, "Anti-Ragging Committee and Internal Complaints Committee constituted",
			blocks.Data{"icc": "Yes", "anti_ragging_committee": "Yes"}),
		blk(blocks.TypeFaculty, "Total faculty 60", blocks.Data{"faculty_count": 60}),
		blk(blocks.TypeStudentEnrollment, "Total students 1000", blocks.Data{"total_students": 1000}),
		blk(blocks.TypePlacement, "Placement 85%", blocks.Data{"placement_rate": "85%"}),
	}
}

func TestCompliantAICTEBatchHasNoFlags(t *testing.T) {
	flags := Evaluate(tables(t), blocks.ModeAICTE, compliantAICTE())
	assert.Empty(t, flags)
}

func TestMissingCertificatesAreHighSeverity(t *testing.T) {
	bs := compliantAICTE()[1:]
	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"fire_noc", "building_stability"}, ruleIDs(flags))
	for _, f := range flags {
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.NotEmpty(t, f.Recommendation)
	}
}

func TestExpiredFireNOCIsFlaggedAsLapsed(t *testing.T) {
	bs := compliantAICTE()
	bs[0] = blk(blocks.TypeSafetyCompliance, "Building stability certificate on file",
		blocks.Data{"fire_noc": "Expired in 2021", "building_stability_certificate": true})

	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"fire_noc"}, ruleIDs(flags))
	assert.Contains(t, flags[0].Reason, "expired")
}

func TestExpiredCertificatesInSnippetAreFlagged(t *testing.T) {
	bs := compliantAICTE()
	bs[0] = blk(blocks.TypeSafetyCompliance, "Fire NOC expired in March 2019; Building stability certificate expired", blocks.Data{})

	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"fire_noc", "building_stability"}, ruleIDs(flags))
	for _, f := range flags {
		assert.Contains(t, f.Reason, "expired")
		assert.Contains(t, f.Evidence, "Fire NOC expired")
	}

	bs[0] = blk(blocks.TypeSafetyCompliance, "Fire NOC valid till 2027; Building stability certificate expired", blocks.Data{})
	flags = Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"building_stability"}, ruleIDs(flags))
}

func TestSanitaryOnlyFlaggedWhenExpired(t *testing.T) {
	bs := compliantAICTE()
	bs = append(bs, blk(blocks.TypeSafetyCompliance, "Sanitary certificate enclosed", blocks.Data{"sanitary_certificate": "Valid"}))
	assert.Empty(t, Evaluate(tables(t), blocks.ModeAICTE, bs))

	bs[len(bs)-1] = blk(blocks.TypeSafetyCompliance, "Sanitary certificate enclosed", blocks.Data{"sanitary_certificate": "Expired"})
	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"sanitary_certificate"}, ruleIDs(flags))
	assert.Equal(t, SeverityLow, flags[0].Severity)
}

func TestCommitteesCheckedOnlyWhenBlockExists(t *testing.T) {
	bs := compliantAICTE()
	bs[1] = blk(blocks.TypeCommittees, "Grievance cell functional", blocks.Data{"grievance_committee": "Yes"})
	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"mandatory_committees"}, ruleIDs(flags))
	assert.Contains(t, flags[0].Reason, "ICC (Internal Complaints Committee)")
	assert.Contains(t, flags[0].Reason, "Anti-Ragging Committee")

	without := append(compliantAICTE()[:1], compliantAICTE()[2:]...)
	assert.Empty(t, Evaluate(tables(t), blocks.ModeAICTE, without))
}

func TestFSRAndPlacementRules(t *testing.T) {
	bs := compliantAICTE()
	bs[2] = blk(blocks.TypeFaculty, "Total faculty 30", blocks.Data{"faculty_count": 30})
	bs[4] = blk(blocks.TypePlacement, "Placement 35%", blocks.Data{"placement_rate": "35%"})

	flags := Evaluate(tables(t), blocks.ModeAICTE, bs)
	require.Equal(t, []string{"low_fsr", "placement_issues"}, ruleIDs(flags))
	assert.Contains(t, flags[0].Reason, "1:33.3")
	assert.Equal(t, SeverityMedium, flags[1].Severity)
}

func TestInvalidBlocksAreIgnored(t *testing.T) {
	bs := compliantAICTE()
	bs[0].Quality.IsInvalid = true
	ids := ruleIDs(Evaluate(tables(t), blocks.ModeAICTE, bs))
	assert.Contains(t, ids, "fire_noc")
}

func TestUGCRules(t *testing.T) {
	bs := []blocks.Block{
		blk(blocks.TypeCommittees, "IQAC established in 2015, Board of Governors meets quarterly",
			blocks.Data{"iqac_established": "Yes", "board_of_governors": "Yes", "academic_council": "Yes"}),
		blk(blocks.TypeResearch, "Publications 42", blocks.Data{"publications": 42}),
	}
	flags := Evaluate(tables(t), blocks.ModeUGC, bs)
	require.Equal(t, []string{"governance_bodies", "statutory_committees"}, ruleIDs(flags))
	assert.Contains(t, flags[0].Reason, "Finance Committee (FC)")
	assert.NotContains(t, flags[0].Reason, "Academic Council")
}

func TestUGCResearchOutput(t *testing.T) {
	flags := Evaluate(tables(t), blocks.ModeUGC, []blocks.Block{
		blk(blocks.TypeResearch, "Publications 4", blocks.Data{"publications": 4}),
	})
	require.Equal(t, []string{"insufficient_research"}, ruleIDs(flags))
	assert.Contains(t, flags[0].Reason, "4 publications")
}

func TestMixedModeRunsBothRuleSets(t *testing.T) {
	flags := Evaluate(tables(t), blocks.ModeMixed, nil)
	var aicte, ugc int
	for _, f := range flags {
		switch f.Mode {
		case blocks.ModeAICTE:
			aicte++
		case blocks.ModeUGC:
			ugc++
		}
	}
	assert.Equal(t, 3, aicte, "fire noc, building stability and placement data")
	assert.Equal(t, 1, ugc, "research output")
	counts := CountBySeverity(flags)
	assert.Equal(t, 2, counts[SeverityHigh])
	assert.Equal(t, 2, counts[SeverityMedium])
}

func TestMatches(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"fire_noc", true},
		{"Fire Safety Certificate obtained", true},
		{"anti_ragging", true},
		{"fire", false},
		{"building safety certificate", false},
	}
	for _, tc := range tests {
		if got := matches(tc.text, fireNOCSynonyms) || matches(tc.text, antiRaggingSynonyms); got != tc.want {
			t.Fatalf("matches(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
