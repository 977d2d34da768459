package snippet

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

func testFilter(t *testing.T, maxLines int) *Filter {
	t.Helper()
	tables, err := config.DefaultTables()
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	return NewFilter(tables, maxLines)
}

func byType(snippets []Snippet) map[blocks.Type]Snippet {
	out := map[blocks.Type]Snippet{}
	for _, s := range snippets {
		out[s.Type] = s
	}
	return out
}

func TestExtractMatchesKeywordsCaseInsensitive(t *testing.T) {
	f := testFilter(t, 0)
	pages := []blocks.Page{
		{Number: 1, Text: "Institute Overview\n\n  Total FACULTY: 120  \nPlacement rate 2023-24: 86%"},
		{Number: 2, Text: "Fire NOC valid until 2026\nRandom line"},
	}
	got := byType(f.Extract(pages))
	fac := got[blocks.TypeFaculty]
	if fac.Text() != "Total FACULTY: 120" || fac.FirstPage() != 1 {
		t.Fatalf("unexpected faculty snippet: %+v", fac)
	}
	if got[blocks.TypeSafetyCompliance].FirstPage() != 2 {
		t.Fatalf("expected safety snippet from page 2: %+v", got[blocks.TypeSafetyCompliance])
	}
	if !got[blocks.TypeFeeStructure].Empty() {
		t.Fatalf("expected empty fee snippet, got %q", got[blocks.TypeFeeStructure].Text())
	}
	if len(got) != blocks.RequiredCount {
		t.Fatalf("expected a snippet per block type, got %d", len(got))
	}
}

func TestExtractFallsBackToDescriptionKeywords(t *testing.T) {
	f := testFilter(t, 0)
	got := byType(f.Extract([]blocks.Page{{Number: 3, Text: "Teacher strength is adequate"}}))
	fac := got[blocks.TypeFaculty]
	if fac.Empty() || !fac.UsedFallback {
		t.Fatalf("expected fallback match, got %+v", fac)
	}
}

func TestExtractCapsLines(t *testing.T) {
	f := testFilter(t, 3)
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "research publication %d\n", i)
	}
	got := f.ExtractText(sb.String())[blocks.TypeResearch]
	if lines := strings.Split(got, "\n"); len(lines) != 3 || lines[0] != "research publication 0" {
		t.Fatalf("expected first 3 lines, got %q", got)
	}
}

func TestExtractIsPure(t *testing.T) {
	f := testFilter(t, 0)
	text := "Library area 900 sqm\nHostel capacity 400"
	a := f.ExtractText(text)
	b := f.ExtractText(text)
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("non-deterministic snippet for %s", k)
		}
	}
}
