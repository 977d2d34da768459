package snippet

import (
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
)

const DefaultMaxLines = 20

// Line is a matched line with the page it came from.
type Line struct {
	Page int
	Text string
}

// Snippet is the candidate text selected for one block type.
type Snippet struct {
	Type         blocks.Type
	Lines        []Line
	UsedFallback bool
}

// Text joins the selected lines.
func (s Snippet) Text() string {
	parts := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// FirstPage is the page of the first selected line, or 0 when empty.
func (s Snippet) FirstPage() int {
	if len(s.Lines) == 0 {
		return 0
	}
	return s.Lines[0].Page
}

func (s Snippet) Empty() bool { return len(s.Lines) == 0 }

type Filter struct {
	specs    []config.BlockSpec
	maxLines int
}

func NewFilter(tables config.Tables, maxLines int) *Filter {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Filter{specs: tables.Blocks, maxLines: maxLines}
}

// Extract returns one snippet per configured block type, in table order.
func (f *Filter) Extract(pages []blocks.Page) []Snippet {
	lines := cleanLines(pages)
	out := make([]Snippet, 0, len(f.specs))
	for _, spec := range f.specs {
		s := Snippet{Type: spec.Type}
		matched := matchLines(lines, spec.Keywords, f.maxLines)
		if len(matched) == 0 {
			matched = matchLines(lines, spec.FallbackKeywords, f.maxLines)
			s.UsedFallback = len(matched) > 0
		}
		s.Lines = matched
		out = append(out, s)
	}
	return out
}

// ExtractText is Extract over a single unpaginated text.
func (f *Filter) ExtractText(text string) map[blocks.Type]string {
	out := map[blocks.Type]string{}
	for _, s := range f.Extract([]blocks.Page{{Number: 1, Text: text}}) {
		out[s.Type] = s.Text()
	}
	return out
}

func cleanLines(pages []blocks.Page) []Line {
	var out []Line
	for _, p := range pages {
		for _, raw := range strings.Split(p.Text, "\n") {
			if t := strings.TrimSpace(raw); t != "" {
				out = append(out, Line{Page: p.Number, Text: t})
			}
		}
	}
	return out
}

func matchLines(lines []Line, keywords []string, limit int) []Line {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		return nil
	}
	var out []Line
	for _, l := range lines {
		lower := strings.ToLower(l.Text)
		for _, kw := range lowered {
			if strings.Contains(lower, kw) {
				out = append(out, l)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}
