// Package report renders the published results of a batch as a markdown
// report and, optionally, a standalone HTML page.
package report

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/approval"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/compliance"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

const Disclaimer = "_Automated pre-assessment from submitted documents. Every figure links back to extracted evidence and must be verified by a reviewer before any approval decision._"

// Markdown builds the batch report. The date is taken from the batch record so
// the output is reproducible.
func Markdown(b store.Batch, r store.Results) string {
	var sb strings.Builder
	name := b.InstitutionName
	if name == "" {
		name = r.InstitutionName
	}
	if name == "" {
		name = "Unnamed institution"
	}
	fmt.Fprintf(&sb, "# Accreditation Pre-Assessment: %s\n\n", sanitize(name))
	fmt.Fprintf(&sb, "- Batch: %s\n", b.ID)
	fmt.Fprintf(&sb, "- Mode: %s\n", strings.ToUpper(string(b.Mode)))
	if r.AcademicYear != "" {
		fmt.Fprintf(&sb, "- Academic year: %s\n", sanitize(r.AcademicYear))
	}
	fmt.Fprintf(&sb, "- Status: %s\n", b.Status)
	fmt.Fprintf(&sb, "- Updated: %s\n\n", b.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "%s\n\n", Disclaimer)

	if b.Status != store.StatusCompleted {
		fmt.Fprintf(&sb, "> Batch has not completed")
		if b.ErrorMessage != "" {
			fmt.Fprintf(&sb, ": %s", sanitize(b.ErrorMessage))
		}
		sb.WriteString(". No derived results are available.\n")
		return sb.String()
	}

	writeSufficiency(&sb, r)
	writeKPIs(&sb, r.KPI, r.Assessment)
	writeCompliance(&sb, r.Compliance)
	writeReadiness(&sb, r.Readiness)
	writeBenchmark(&sb, r)
	return sb.String()
}

func writeSufficiency(sb *strings.Builder, r store.Results) {
	s := r.Sufficiency
	fmt.Fprintf(sb, "## Sufficiency\n\n")
	fmt.Fprintf(sb, "**%.2f%%** (%s): %d of %d block types present, penalty %.0f.\n\n", s.Percentage, s.Color, s.Present, s.Required, s.Penalty)
	if len(s.MissingTypes) > 0 {
		missing := make([]string, len(s.MissingTypes))
		for i, t := range s.MissingTypes {
			missing[i] = string(t)
		}
		fmt.Fprintf(sb, "Missing: %s\n\n", strings.Join(missing, ", "))
	}
	if s.Outdated+s.LowQuality+s.Invalid > 0 {
		fmt.Fprintf(sb, "Flagged blocks: %d outdated, %d low quality, %d invalid.\n\n", s.Outdated, s.LowQuality, s.Invalid)
	}
}

func writeKPIs(sb *strings.Builder, r kpi.Result, a kpi.Assessment) {
	fmt.Fprintf(sb, "## Key Performance Indicators\n\n")
	sb.WriteString("| KPI | Value | Weight | Missing inputs |\n|---|---:|---:|---|\n")
	for _, s := range append(append([]kpi.Score{}, r.Scores...), r.Overall) {
		fmt.Fprintf(sb, "| %s | %s | %.2f | %s |\n", sanitizeCell(s.Name), formatValue(s.Value), s.Weight, sanitizeCell(strings.Join(s.Missing, ", ")))
	}
	sb.WriteString("\n")
	writeList(sb, "Strengths", a.Strengths)
	writeList(sb, "Weaknesses", a.Weaknesses)
	writeList(sb, "Insufficient data", a.Insufficient)
}

func writeCompliance(sb *strings.Builder, flags []compliance.Flag) {
	fmt.Fprintf(sb, "## Compliance\n\n")
	if len(flags) == 0 {
		sb.WriteString("No compliance issues detected.\n\n")
		return
	}
	counts := compliance.CountBySeverity(flags)
	fmt.Fprintf(sb, "%d high, %d medium, %d low.\n\n", counts[compliance.SeverityHigh], counts[compliance.SeverityMedium], counts[compliance.SeverityLow])
	sorted := append([]compliance.Flag(nil), flags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) > severityRank(sorted[j].Severity)
	})
	sb.WriteString("| Severity | Rule | Finding | Recommendation |\n|---|---|---|---|\n")
	for _, f := range sorted {
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", f.Severity, sanitizeCell(f.Title), sanitizeCell(f.Reason), sanitizeCell(f.Recommendation))
	}
	sb.WriteString("\n")
}

func severityRank(s compliance.Severity) int {
	switch s {
	case compliance.SeverityHigh:
		return 3
	case compliance.SeverityMedium:
		return 2
	}
	return 1
}

func writeReadiness(sb *strings.Builder, r approval.Readiness) {
	c := r.Classification
	fmt.Fprintf(sb, "## Approval Readiness\n\n")
	fmt.Fprintf(sb, "Classified as **%s / %s** (confidence %.2f). Checklist: `%s`.\n\n", c.Category, c.Subtype, c.Confidence, r.ApprovalType)
	if r.Fallback != "" {
		fmt.Fprintf(sb, "> %s\n\n", sanitize(r.Fallback))
	}
	fmt.Fprintf(sb, "Readiness score: **%.2f%%** (%d of %d required documents evidenced).\n\n", r.Score, r.PresentCount, r.TotalRequired)
	sb.WriteString("| Document | Required | Status | Evidence |\n|---|---|---|---|\n")
	for _, d := range r.Documents {
		evidence := d.Reason
		if d.Evidence != nil {
			evidence = fmt.Sprintf("%s (p.%d): %s", d.Evidence.Field, d.Evidence.Page, d.Evidence.Snippet)
		}
		required := "no"
		if d.Required {
			required = "yes"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", sanitizeCell(d.Description), required, d.Status, sanitizeCell(truncate(evidence, 160)))
	}
	sb.WriteString("\n")
}

func writeBenchmark(sb *strings.Builder, r store.Results) {
	if r.Benchmark == nil {
		return
	}
	bm := r.Benchmark
	fmt.Fprintf(sb, "## Benchmark Comparison\n\n")
	source := bm.Source
	if source == "" {
		source = "historical average"
	}
	fmt.Fprintf(sb, "Compared against %s for %d.\n\n", sanitize(source), bm.BenchmarkYear)
	sb.WriteString("| Metric | Value | Benchmark | Delta |\n|---|---:|---:|---:|\n")
	for _, d := range bm.Deltas {
		fmt.Fprintf(sb, "| %s | %.2f | %.2f | %+.2f |\n", sanitizeCell(d.DisplayName), d.Value, d.Benchmark, d.Delta)
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", sanitize(it))
	}
	sb.WriteString("\n")
}

func formatValue(v *float64) string {
	if v == nil {
		return "insufficient data"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// sanitizeCell also escapes pipes that would split a table column.
func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}

const pageStyle = "body{font-family:system-ui,sans-serif;max-width:960px;margin:0 auto;padding:1rem;color:#1c1917;} " +
	"table{width:100%;border-collapse:collapse;font-size:0.85rem;} " +
	"th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;} " +
	"thead th{background:#f1f5f9;} blockquote{border-left:3px solid #92400e;margin:0;padding-left:0.75rem;color:#44403c;}"

// HTML converts a markdown report to a standalone page.
func HTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + pageStyle + "</style></head><body>" + content.String() + "</body></html>", nil
}
