package approval

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

func withSnippets(snippets ...string) []blocks.Block {
	out := make([]blocks.Block, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, blocks.Block{Type: blocks.TypeFaculty, Evidence: blocks.Evidence{Page: 1, Snippet: s}})
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		snippets []string
		category Category
		subtype  Subtype
	}{
		{"mixed", []string{"Submitted under the AICTE application portal", "as required by the UGC Act"}, CategoryMixed, SubtypeUnknown},
		{"neither", []string{"Faculty strength is 45"}, CategoryUnknown, SubtypeUnknown},
		{"aicte renewal", []string{"AICTE extension of approval for 2024-25"}, CategoryAICTE, SubtypeRenewal},
		{"ugc new", []string{"UGC proposal with a 5 year plan"}, CategoryUGC, SubtypeNew},
		{"new beats renewal", []string{"renewal request", "annexed 3-year plan"}, CategoryUnknown, SubtypeNew},
		{"empty", nil, CategoryUnknown, SubtypeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tables(t), withSnippets(tc.snippets...))
			if c.Category != tc.category || c.Subtype != tc.subtype {
				t.Fatalf("Classify = %s/%s, want %s/%s", c.Category, c.Subtype, tc.category, tc.subtype)
			}
		})
	}
}

func TestClassifyUsesEvidenceOnly(t *testing.T) {
	bs := []blocks.Block{{
		Type: blocks.TypeFaculty,
		Data: blocks.Data{"regulator": "AICTE"},
	}}
	assert.Equal(t, CategoryUnknown, Classify(tables(t), bs).Category)
}

func TestApprovalTypeFallbacks(t *testing.T) {
	tb := tables(t)
	key, note := ApprovalType(tb, Classification{Category: CategoryUGC, Subtype: SubtypeNew}, blocks.ModeAICTE)
	assert.Equal(t, "ugc_new", key)
	assert.Empty(t, note)

	key, note = ApprovalType(tb, Classification{Category: CategoryUnknown, Subtype: SubtypeUnknown}, blocks.ModeUGC)
	assert.Equal(t, "ugc_renewal", key)
	assert.Contains(t, note, "batch mode")
	assert.Contains(t, note, "renewal checklist")

	key, _ = ApprovalType(tb, Classification{Category: CategoryMixed, Subtype: SubtypeNew}, blocks.ModeMixed)
	assert.Equal(t, "aicte_new", key)
}

func TestScoreAICTERenewal(t *testing.T) {
	bs := []blocks.Block{
		{
			Type:                 blocks.TypeFaculty,
			Data:                 blocks.Data{"faculty_count": 45, "institution_name": "Govt. College of Engineering"},
			ExtractionConfidence: 0.9,
			Evidence:             blocks.Evidence{Page: 3, Snippet: "Total faculty 45"},
			SourceDoc:            "ssr.pdf",
		},
		{
			Type:                 blocks.TypeStudentEnrollment,
			Data:                 blocks.Data{"total_students": 900},
			ExtractionConfidence: 0.3,
		},
		{
			Type:                 blocks.TypePlacement,
			Data:                 blocks.Data{"placement_rate": "81%"},
			ExtractionConfidence: 0.8,
			Quality:              blocks.QualityFlags{IsInvalid: true},
		},
	}
	r := Score(tables(t), Classification{Category: CategoryAICTE, Subtype: SubtypeRenewal}, blocks.ModeAICTE, bs)

	assert.Equal(t, "aicte_renewal", r.ApprovalType)
	assert.Equal(t, []string{"institution_info", "faculty_details"}, r.Present)
	assert.Equal(t, []string{"student_enrollment", "placement_record"}, r.Missing)
	assert.Equal(t, []string{"compliance_report", "fee_structure"}, r.Unknown)
	assert.Equal(t, 5, r.TotalRequired)
	assert.Equal(t, 2, r.PresentCount)
	assert.InDelta(t, 40, r.Score, 1e-9)

	require.NotNil(t, r.Documents[1].Evidence)
	assert.Equal(t, "faculty_count", r.Documents[1].Evidence.Field)
	assert.Equal(t, 3, r.Documents[1].Evidence.Page)
	assert.Equal(t, "ssr.pdf", r.Documents[1].Evidence.SourceDoc)
}

func TestScoreIgnoresNegativeValues(t *testing.T) {
	bs := []blocks.Block{{
		Type:                 blocks.TypeSafetyCompliance,
		Data:                 blocks.Data{"fire_noc": false, "compliance_report": "not available", "building_stability_certificate": 0},
		ExtractionConfidence: 0.9,
		Evidence:             blocks.Evidence{Page: 2, Snippet: "Fire NOC not obtained"},
	}}
	r := Score(tables(t), Classification{Category: CategoryAICTE, Subtype: SubtypeRenewal}, blocks.ModeAICTE, bs)

	assert.Empty(t, r.Present)
	assert.Equal(t, []string{"institution_info", "compliance_report"}, r.Missing)
	assert.Equal(t, 0, r.PresentCount)
	assert.InDelta(t, 0, r.Score, 1e-9)

	bs[0].Data["fire_noc"] = true
	r = Score(tables(t), Classification{Category: CategoryAICTE, Subtype: SubtypeRenewal}, blocks.ModeAICTE, bs)
	assert.Equal(t, []string{"compliance_report"}, r.Present)
	require.NotNil(t, r.Documents[4].Evidence)
	assert.Equal(t, "fire_noc", r.Documents[4].Evidence.Field)
}

func TestScorePrefersMostConfidentEvidence(t *testing.T) {
	bs := []blocks.Block{
		{Type: blocks.TypeFaculty, Data: blocks.Data{"faculty_count": 40}, ExtractionConfidence: 0.5, Evidence: blocks.Evidence{Snippet: "a"}},
		{Type: blocks.TypeFaculty, Data: blocks.Data{"total_faculty": 42}, ExtractionConfidence: 0.95, Evidence: blocks.Evidence{Snippet: "b"}},
	}
	ev := bestEvidence(bs, []string{"faculty_count", "total_faculty"})
	require.NotNil(t, ev)
	assert.Equal(t, "total_faculty", ev.Field)
	assert.Equal(t, "b", ev.Snippet)
}

func TestScoreWithoutBlocksIsAllUnknown(t *testing.T) {
	r := Score(tables(t), Classification{Category: CategoryUGC, Subtype: SubtypeNew}, blocks.ModeUGC, nil)
	assert.Empty(t, r.Present)
	assert.Empty(t, r.Missing)
	assert.Len(t, r.Unknown, 4)
	assert.Zero(t, r.Score)
}
