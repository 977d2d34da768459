package extract

import (
	"fmt"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/llm"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/snippet"
)

const systemPrompt = "You extract structured accreditation data for AICTE/UGC approval review. " +
	"Use only facts stated in the provided text. Never invent values; use null when a value is absent. " +
	"Respond with strict JSON only."

const responseSchema = `{
  "block_type": "<one of the block types listed>",
  "classification_confidence": 0.0,
  "extraction_confidence": 0.0,
  "data": {"<snake_case_field>": "<value or null>"},
  "evidence": {"page": 0, "snippet": "<exact supporting text>"}
}`

type modelResponse struct {
	BlockType                string         `json:"block_type"`
	ClassificationConfidence *float64       `json:"classification_confidence"`
	ExtractionConfidence     *float64       `json:"extraction_confidence"`
	Data                     map[string]any `json:"data"`
	Evidence                 struct {
		Page    int    `json:"page"`
		Snippet string `json:"snippet"`
	} `json:"evidence"`
}

func buildMessages(spec config.BlockSpec, all []config.BlockSpec, snip snippet.Snippet, feedback string) []llm.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target block: %s (%s)\n", spec.Type, spec.Name)
	fmt.Fprintf(&sb, "Description: %s\n\n", spec.Description)
	sb.WriteString("Valid block types:\n")
	for _, s := range all {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Type, s.Description)
	}
	sb.WriteString("\nClassify whether the text below belongs to the target block and extract its fields. ")
	sb.WriteString("Numbers stay as written (units included). Years use the form printed in the source.\n\n")
	sb.WriteString("Text (one line per source line, prefixed with its page):\n---\n")
	for _, l := range snip.Lines {
		fmt.Fprintf(&sb, "[p%d] %s\n", l.Page, l.Text)
	}
	sb.WriteString("---\n\nRespond with only valid JSON matching this schema:\n")
	sb.WriteString(responseSchema)
	if feedback != "" {
		sb.WriteString("\n\n")
		sb.WriteString(feedback)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}
