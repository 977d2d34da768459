package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

// ErrEmptyCSV is returned when a CSV input has no header row.
var ErrEmptyCSV = errors.New("csv input has no header")

type columnRule struct {
	blockType blocks.Type
	keywords  []string
}

// Checked in order; the first rule with a matching keyword claims the column.
var columnRules = []columnRule{
	{blocks.TypeSafetyCompliance, []string{"fire_noc", "noc", "building_stability", "stability", "electrical_safety", "safety", "sanitary"}},
	{blocks.TypeCommittees, []string{"iqac", "anti_ragging", "icc", "grievance", "committee", "women_cell", "sc_st_cell"}},
	{blocks.TypePlacement, []string{"placed", "eligible", "placement", "package", "salary", "recruiter"}},
	{blocks.TypeResearch, []string{"publication", "patent", "citation", "funded_project", "research", "journal", "projects"}},
	{blocks.TypeFeeStructure, []string{"fee", "tuition"}},
	{blocks.TypeLabEquipment, []string{"lab", "laboratory", "equipment"}},
	{blocks.TypeFaculty, []string{"faculty", "professor", "phd", "teaching_staff", "lecturer"}},
	{blocks.TypeStudentEnrollment, []string{"student", "male", "female", "intake", "admitted", "enrollment", "enrolled"}},
	{blocks.TypeInfrastructure, []string{"area", "classroom", "library", "computer", "building", "hostel", "digital", "campus"}},
	{blocks.TypeAcademicCalendar, []string{"academic_year", "semester", "calendar", "start_date", "end_date", "session"}},
}

var columnAliases = map[string]string{
	"faculty":            "faculty_count",
	"total_faculty":      "faculty_count",
	"no_of_faculty":      "faculty_count",
	"teaching_staff":     "faculty_count",
	"students":           "total_students",
	"student_count":      "total_students",
	"enrollment":         "total_students",
	"area":               "built_up_area",
	"total_area":         "built_up_area",
	"classroom":          "classrooms",
	"no_of_classrooms":   "classrooms",
	"classroom_count":    "classrooms",
	"labs":               "total_labs",
	"laboratory":         "total_labs",
	"lab_count":          "total_labs",
	"placed":             "students_placed",
	"eligible":           "students_eligible",
	"avg_salary":         "average_package",
	"average_salary":     "average_package",
	"highest_salary":     "highest_package",
	"max_salary":         "highest_package",
	"publication":        "publications",
	"publication_count":  "publications",
	"patent":             "patents",
	"patent_count":       "patents",
	"year":               "academic_year",
	"session":            "academic_year",
	"iqac":               "iqac_established",
	"anti_ragging":       "anti_ragging_committee",
	"icc":                "internal_complaints_committee",
	"fire_noc_validity":  "fire_noc_valid_till",
	"building_stability": "building_stability_certificate",
}

// normalizeKey lowercases a field name and folds separators to underscores.
func normalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

func canonicalColumn(raw string) string {
	key := normalizeKey(raw)
	if alias, ok := columnAliases[key]; ok {
		return alias
	}
	return key
}

func columnBlockType(key string) (blocks.Type, bool) {
	for _, rule := range columnRules {
		for _, kw := range rule.keywords {
			if strings.Contains(key, kw) {
				return rule.blockType, true
			}
		}
	}
	return "", false
}

type csvCell struct {
	key   string
	value string
	row   int
}

// MapCSV maps structured CSV rows straight to blocks without a model call.
// Two layouts are accepted: a two-column field/value listing, or a header row
// followed by data rows. Columns are routed to block types by keyword, and the
// first non-empty value per field wins across rows. Evidence quotes the first
// row that contributed to each block.
func MapCSV(batchID, docName string, r io.Reader) ([]blocks.Block, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", docName, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyCSV
	}

	var cells []csvCell
	if isKeyValueLayout(records[0]) {
		for i, rec := range records[1:] {
			if len(rec) < 2 {
				continue
			}
			cells = append(cells, csvCell{key: canonicalColumn(rec[0]), value: rec[1], row: i + 2})
		}
	} else {
		header := make([]string, len(records[0]))
		for i, h := range records[0] {
			header[i] = canonicalColumn(h)
		}
		for i, rec := range records[1:] {
			for j, v := range rec {
				if j >= len(header) || header[j] == "" {
					continue
				}
				cells = append(cells, csvCell{key: header[j], value: v, row: i + 2})
			}
		}
	}

	byType := map[blocks.Type]blocks.Data{}
	firstRow := map[blocks.Type]int{}
	rowPairs := map[blocks.Type][]string{}
	var year string
	for _, c := range cells {
		value := strings.TrimSpace(c.value)
		if c.key == "" || blocks.IsNull(value) {
			continue
		}
		if c.key == "academic_year" && year == "" {
			year = value
		}
		bt, ok := columnBlockType(c.key)
		if !ok {
			continue
		}
		data, ok := byType[bt]
		if !ok {
			data = blocks.Data{}
			byType[bt] = data
			firstRow[bt] = c.row
		}
		if c.row == firstRow[bt] {
			rowPairs[bt] = append(rowPairs[bt], c.key+" "+value)
		}
		if existing, ok := data[c.key]; ok && !blocks.IsNull(existing) {
			continue
		}
		data[c.key] = value
	}

	now := time.Now()
	var out []blocks.Block
	for _, bt := range blocks.AllTypes {
		data, ok := byType[bt]
		if !ok {
			continue
		}
		if year != "" {
			if _, ok := data["academic_year"]; !ok {
				data["academic_year"] = year
			}
		}
		deriveCSVFields(bt, data)
		out = append(out, blocks.Block{
			ID:                       uuid.NewString(),
			BatchID:                  batchID,
			SourceDoc:                docName,
			Type:                     bt,
			Data:                     data,
			ClassificationConfidence: 1,
			ExtractionConfidence:     1,
			Evidence: blocks.Evidence{
				Page:      1,
				Snippet:   truncate(fmt.Sprintf("csv row %d: %s", firstRow[bt], strings.Join(rowPairs[bt], "; ")), maxEvidenceChars),
				SourceDoc: docName,
			},
			CreatedAt: now,
		})
	}
	return out, nil
}

func isKeyValueLayout(header []string) bool {
	if len(header) != 2 {
		return false
	}
	first, second := normalizeKey(header[0]), normalizeKey(header[1])
	switch first {
	case "field", "key", "parameter", "particulars", "metric", "name":
		return true
	}
	return second == "value" || second == "details"
}

func deriveCSVFields(bt blocks.Type, data blocks.Data) {
	switch bt {
	case blocks.TypeStudentEnrollment:
		if _, ok := data["total_students"]; ok {
			return
		}
		male, _, okM := data.Number("male_students", "male")
		female, _, okF := data.Number("female_students", "female")
		if okM && okF {
			data["total_students"] = male + female
		}
	case blocks.TypePlacement:
		if _, ok := data["placement_rate"]; ok {
			return
		}
		placed, _, okP := data.Number("students_placed")
		eligible, _, okE := data.Number("students_eligible")
		if okP && okE && eligible > 0 {
			data["placement_rate"] = fmt.Sprintf("%.2f%%", placed/eligible*100)
		}
	}
}
