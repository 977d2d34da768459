package blocks

import (
	"strings"
	"time"
)

type Type string

const (
	TypeFaculty           Type = "faculty_information"
	TypeStudentEnrollment Type = "student_enrollment_information"
	TypeInfrastructure    Type = "infrastructure_information"
	TypeLabEquipment      Type = "lab_equipment_information"
	TypeSafetyCompliance  Type = "safety_compliance_information"
	TypeAcademicCalendar  Type = "academic_calendar_information"
	TypeFeeStructure      Type = "fee_structure_information"
	TypePlacement         Type = "placement_information"
	TypeResearch          Type = "research_innovation_information"
	TypeCommittees        Type = "mandatory_committees_information"
)

// RequiredCount is the number of block types every batch is measured against,
// independent of mode.
const RequiredCount = 10

// AllTypes lists the canonical block types in their declared order.
var AllTypes = []Type{
	TypeFaculty,
	TypeStudentEnrollment,
	TypeInfrastructure,
	TypeLabEquipment,
	TypeSafetyCompliance,
	TypeAcademicCalendar,
	TypeFeeStructure,
	TypePlacement,
	TypeResearch,
	TypeCommittees,
}

func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Mode string

const (
	ModeAICTE Mode = "aicte"
	ModeUGC   Mode = "ugc"
	ModeMixed Mode = "mixed"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAICTE:
		return ModeAICTE, true
	case ModeUGC:
		return ModeUGC, true
	case ModeMixed:
		return ModeMixed, true
	}
	return "", false
}

type Evidence struct {
	Page      int    `json:"page"`
	Snippet   string `json:"snippet"`
	SourceDoc string `json:"source_doc,omitempty"`
}

type QualityFlags struct {
	IsOutdated       bool   `json:"is_outdated"`
	OutdatedReason   string `json:"outdated_reason,omitempty"`
	IsLowQuality     bool   `json:"is_low_quality"`
	LowQualityReason string `json:"low_quality_reason,omitempty"`
	IsInvalid        bool   `json:"is_invalid"`
	InvalidReason    string `json:"invalid_reason,omitempty"`
}

// Block is one extracted information block. Blocks are immutable once persisted.
type Block struct {
	ID                       string       `json:"id"`
	BatchID                  string       `json:"batch_id"`
	SourceDoc                string       `json:"source_doc"`
	Type                     Type         `json:"block_type"`
	Data                     Data         `json:"extracted_data"`
	ClassificationConfidence float64      `json:"classification_confidence"`
	ExtractionConfidence     float64      `json:"extraction_confidence"`
	Evidence                 Evidence     `json:"evidence"`
	Attempts                 int          `json:"attempts"`
	RetriesExhausted         bool         `json:"retries_exhausted"`
	Quality                  QualityFlags `json:"quality"`
	CreatedAt                time.Time    `json:"created_at"`
}

// HasData reports whether the block carries at least one non-null field.
func (b Block) HasData() bool {
	for _, v := range b.Data {
		if !IsNull(v) {
			return true
		}
	}
	return false
}

// Counts toward presence: not invalid and has data.
func (b Block) Present() bool {
	return !b.Quality.IsInvalid && b.HasData()
}

// Page is one unit of OCR/partitioned text with its provenance.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

type Document struct {
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Pages []Page `json:"pages"`
}

func (d Document) FullText() string {
	var sb strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
