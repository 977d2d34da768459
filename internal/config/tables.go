package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

//go:embed defaults.yaml
var defaultTables []byte

type BlockSpec struct {
	Type             blocks.Type `yaml:"type"`
	Name             string      `yaml:"name"`
	Description      string      `yaml:"description"`
	Keywords         []string    `yaml:"keywords"`
	FallbackKeywords []string    `yaml:"fallback_keywords"`
}

type KPISpec struct {
	Key     string  `yaml:"key"`
	Name    string  `yaml:"name"`
	Weight  float64 `yaml:"weight"`
	Formula string  `yaml:"formula"`
}

type RuleSpec struct {
	RuleID         string `yaml:"rule_id"`
	Severity       string `yaml:"severity"`
	Check          string `yaml:"check"`
	Title          string `yaml:"title"`
	Recommendation string `yaml:"recommendation"`
}

type ApprovalSignals struct {
	AICTE   []string `yaml:"aicte_signals"`
	UGC     []string `yaml:"ugc_signals"`
	New     []string `yaml:"new_signals"`
	Renewal []string `yaml:"renewal_signals"`
}

type RequiredDocument struct {
	Key         string        `yaml:"key"`
	Description string        `yaml:"description"`
	Required    bool          `yaml:"required"`
	Aliases     []string      `yaml:"aliases"`
	BlockTypes  []blocks.Type `yaml:"block_types"`
}

// Tables holds the static rule, formula and checklist tables. It is loaded
// once at startup and passed by value into each calculator.
type Tables struct {
	Blocks            []BlockSpec                   `yaml:"blocks"`
	KPIs              map[blocks.Mode][]KPISpec     `yaml:"kpis"`
	Compliance        map[blocks.Mode][]RuleSpec    `yaml:"compliance"`
	Approval          ApprovalSignals               `yaml:"approval"`
	RequiredDocuments map[string][]RequiredDocument `yaml:"required_documents"`
}

func DefaultTables() (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultTables, &t); err != nil {
		return Tables{}, fmt.Errorf("parse default tables: %w", err)
	}
	return t, t.Validate()
}

// LoadTables returns the embedded defaults with any sections present in the
// file at path replacing them. An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	t, err := DefaultTables()
	if err != nil {
		return Tables{}, err
	}
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables: %w", err)
	}
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("parse tables: %w", err)
	}
	if len(override.Blocks) > 0 {
		t.Blocks = override.Blocks
	}
	for mode, specs := range override.KPIs {
		t.KPIs[mode] = specs
	}
	for mode, rules := range override.Compliance {
		t.Compliance[mode] = rules
	}
	if len(override.Approval.AICTE) > 0 {
		t.Approval.AICTE = override.Approval.AICTE
	}
	if len(override.Approval.UGC) > 0 {
		t.Approval.UGC = override.Approval.UGC
	}
	if len(override.Approval.New) > 0 {
		t.Approval.New = override.Approval.New
	}
	if len(override.Approval.Renewal) > 0 {
		t.Approval.Renewal = override.Approval.Renewal
	}
	for key, docs := range override.RequiredDocuments {
		t.RequiredDocuments[key] = docs
	}
	return t, t.Validate()
}

func (t Tables) Validate() error {
	var errs []error
	seen := map[blocks.Type]bool{}
	for _, b := range t.Blocks {
		if !b.Type.Valid() {
			errs = append(errs, fmt.Errorf("unknown block type %q", b.Type))
			continue
		}
		seen[b.Type] = true
	}
	for _, bt := range blocks.AllTypes {
		if !seen[bt] {
			errs = append(errs, fmt.Errorf("block type %q has no definition", bt))
		}
	}
	for mode, specs := range t.KPIs {
		for _, s := range specs {
			if s.Weight < 0 {
				errs = append(errs, fmt.Errorf("kpi %s/%s has negative weight", mode, s.Key))
			}
		}
	}
	for mode, rules := range t.Compliance {
		for _, r := range rules {
			switch r.Severity {
			case "low", "medium", "high":
			default:
				errs = append(errs, fmt.Errorf("rule %s/%s has invalid severity %q", mode, r.RuleID, r.Severity))
			}
		}
	}
	for key, docs := range t.RequiredDocuments {
		for _, d := range docs {
			for _, bt := range d.BlockTypes {
				if !bt.Valid() {
					errs = append(errs, fmt.Errorf("required document %s/%s references unknown block type %q", key, d.Key, bt))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (t Tables) Block(bt blocks.Type) (BlockSpec, bool) {
	for _, b := range t.Blocks {
		if b.Type == bt {
			return b, true
		}
	}
	return BlockSpec{}, false
}
