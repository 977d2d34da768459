package compliance

import (
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

var (
	fireNOCSynonyms = []string{
		"fire noc", "fire safety noc", "fire safety certificate", "fire noc certificate",
		"fire clearance", "fire safety clearance",
	}
	buildingSynonyms = []string{
		"building structural safety certificate", "building stability certificate", "building stability",
		"structural safety certificate", "building safety certificate", "structural certificate",
	}
	sanitarySynonyms = []string{
		"sanitary certificate", "environmental clearance", "environmental certificate",
	}
	iccSynonyms = []string{
		"icc", "internal complaints committee", "internal complaint committee", "internal complaints",
	}
	antiRaggingSynonyms = []string{
		"anti-ragging committee", "anti ragging committee", "anti-ragging", "anti ragging",
		"ragging prevention committee",
	}
	lapsedMarkers = []string{"expired", "invalid", "not valid", "lapsed"}
)

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}

// matches reports a synonym hit when the text contains a synonym, when a
// multi-word text is part of a synonym, or when two or more tokens including
// the synonym's leading word are shared.
func matches(text string, synonyms []string) bool {
	t := normalizeText(text)
	if t == "" {
		return false
	}
	fields := strings.Fields(t)
	tokens := map[string]bool{}
	for _, tok := range fields {
		tokens[tok] = true
	}
	for _, syn := range synonyms {
		s := normalizeText(syn)
		if strings.Contains(t, s) || (len(fields) >= 2 && strings.Contains(s, t)) {
			return true
		}
		words := strings.Fields(s)
		shared := 0
		for _, tok := range words {
			if tokens[tok] {
				shared++
			}
		}
		if shared >= 2 && tokens[words[0]] {
			return true
		}
	}
	return false
}

func lapsed(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	for _, m := range lapsedMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

type presence struct {
	found    bool
	lapsed   bool
	evidence string
}

// certificate looks for a document in the blocks of type bt: a matching field
// with an affirmative value, or a matching clause of the evidence snippet. A
// matching field or clause that reads as expired is reported as lapsed instead
// of found.
func certificate(bs []blocks.Block, bt blocks.Type, synonyms []string) presence {
	var p presence
	for _, b := range bs {
		if b.Type != bt {
			continue
		}
		for _, k := range b.Data.Keys() {
			if strings.HasSuffix(k, "_num") || !matches(k, synonyms) {
				continue
			}
			v := b.Data[k]
			if lapsed(v) {
				p.lapsed = true
				p.evidence = b.Evidence.Snippet
				continue
			}
			if b.Data.Truthy(k) {
				return presence{found: true, evidence: firstNonEmpty(b.Evidence.Snippet, "found in "+k)}
			}
		}
		for _, clause := range clauses(b.Evidence.Snippet) {
			if !matches(clause, synonyms) {
				continue
			}
			if lapsed(clause) {
				p.lapsed = true
				p.evidence = b.Evidence.Snippet
				continue
			}
			if !p.lapsed {
				return presence{found: true, evidence: b.Evidence.Snippet}
			}
		}
	}
	return p
}

// clauses splits evidence text so that a lapse marker only applies to the
// certificate named in the same clause.
func clauses(snippet string) []string {
	return strings.FieldsFunc(snippet, func(r rune) bool {
		switch r {
		case ';', '\n', '.', '|':
			return true
		}
		return false
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
