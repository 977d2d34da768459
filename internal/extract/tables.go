package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// NormalizeTables rewrites GFM pipe tables in OCR text as one line per row of
// "header: value" pairs, so keyword filtering sees each value next to its
// label. Text outside tables is left untouched.
func NormalizeTables(input string) string {
	if !strings.Contains(input, "|") {
		return input
	}
	src := []byte(input)
	doc := tableMarkdown.Parser().Parse(text.NewReader(src))

	var tables []*extast.Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*extast.Table); ok {
			tables = append(tables, t)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if len(tables) == 0 {
		return input
	}

	var sb strings.Builder
	cursor := 0
	for _, t := range tables {
		start, stop, ok := tableSpan(t, src)
		if !ok || start < cursor {
			continue
		}
		sb.Write(src[cursor:start])
		sb.WriteString(strings.Join(tableRows(t, src), "\n"))
		cursor = stop
	}
	sb.Write(src[cursor:])
	return sb.String()
}

func tableRows(t *extast.Table, src []byte) []string {
	var header []string
	var rows []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		cells := rowCells(row, src)
		if _, ok := row.(*extast.TableHeader); ok {
			header = cells
			continue
		}
		var parts []string
		for i, v := range cells {
			if v == "" {
				continue
			}
			if i < len(header) && header[i] != "" {
				parts = append(parts, header[i]+": "+v)
			} else {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			rows = append(rows, strings.Join(parts, "; "))
		}
	}
	if len(rows) == 0 && len(header) > 0 {
		rows = append(rows, strings.Join(header, "; "))
	}
	return rows
}

func rowCells(row ast.Node, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(inlineText(c, src)))
	}
	return cells
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := child.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// tableSpan finds the whole source lines covered by the table's text segments.
func tableSpan(t *extast.Table, src []byte) (int, int, bool) {
	start, stop := -1, -1
	_ = ast.Walk(t, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if txt, ok := n.(*ast.Text); ok {
			if start < 0 || txt.Segment.Start < start {
				start = txt.Segment.Start
			}
			if txt.Segment.Stop > stop {
				stop = txt.Segment.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	if start < 0 {
		return 0, 0, false
	}
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	for stop < len(src) && src[stop] != '\n' {
		stop++
	}
	return start, stop, true
}
