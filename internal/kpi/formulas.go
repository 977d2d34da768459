package kpi

import (
	"math"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

type formula func(d blocks.Data, s *Score)

var formulas = map[string]formula{
	"fsr":             fsrScore,
	"infrastructure":  infrastructureScore,
	"placement":       placementIndex,
	"lab_compliance":  labComplianceIndex,
	"research":        researchIndex,
	"governance":      governanceScore,
	"student_outcome": studentOutcomeIndex,
}

// Field aliases in lookup order.
var (
	facultyKeys      = []string{"faculty_count", "total_faculty", "faculty"}
	studentKeys      = []string{"total_students", "student_count", "total_intake", "students", "admitted_students"}
	areaKeys         = []string{"built_up_area_sqm", "built_up_area", "area", "total_area", "campus_area", "building_area"}
	classroomKeys    = []string{"classrooms", "total_classrooms", "number_of_classrooms", "classroom_count"}
	libraryKeys      = []string{"library_area_sqm", "library_area"}
	digitalKeys      = []string{"digital_library_resources", "digital_resources"}
	hostelKeys       = []string{"hostel_capacity"}
	placementKeys    = []string{"placement_rate", "placement_percentage"}
	placedKeys       = []string{"students_placed", "total_placements", "placed_students", "placement_count"}
	eligibleKeys     = []string{"students_eligible", "eligible_students"}
	labKeys          = []string{"total_labs", "lab_count", "labs", "laboratories"}
	requiredLabKeys  = []string{"required_labs"}
	publicationKeys  = []string{"publication_count", "publications", "research_publications"}
	citationKeys     = []string{"citation_count", "citations"}
	projectKeys      = []string{"funded_projects", "projects", "research_projects"}
	committeeKeys    = []string{"committee_count", "present_committees"}
	requiredCommKeys = []string{"required_committees"}
)

const (
	fsrFullMarks         = 0.05 // 1:20
	fsrPartialMarks      = 0.04 // 1:25
	fsrPartialScore      = 60.0
	areaPerStudent       = 4.0
	studentsPerClassroom = 40.0
	libraryPerStudent    = 0.5
	digitalTarget        = 500.0
	hostelShare          = 0.4
	studentsPerLab       = 50
	minRequiredLabs      = 5
	publicationTarget    = 50.0
	citationTarget       = 200.0
	projectTarget        = 10.0
	defaultCommittees    = 5.0
)

// lookup records a parameter under name, or marks it missing.
func lookup(d blocks.Data, s *Score, name string, keys []string) (float64, bool) {
	v, _, ok := d.Number(keys...)
	if !ok {
		s.Missing = append(s.Missing, name)
		return 0, false
	}
	s.Parameters[name] = v
	return v, true
}

func optional(d blocks.Data, s *Score, name string, keys []string) (float64, bool) {
	v, _, ok := d.Number(keys...)
	if ok {
		s.Parameters[name] = v
	}
	return v, ok
}

func set(s *Score, v float64) {
	s.Value = &v
}

func fsrScore(d blocks.Data, s *Score) {
	faculty, okF := lookup(d, s, "faculty_count", facultyKeys)
	students, okS := lookup(d, s, "student_count", studentKeys)
	if !okF || !okS {
		return
	}
	if faculty == 0 || students == 0 {
		s.Missing = append(s.Missing, "non-zero faculty and student counts")
		return
	}
	ratio := faculty / students
	s.Parameters["fsr"] = ratio
	switch {
	case ratio >= fsrFullMarks:
		set(s, 100)
	case ratio >= fsrPartialMarks:
		set(s, fsrPartialScore)
	default:
		set(s, 0)
	}
}

// infrastructureScore is the normalized weighted form: each component is a
// 0-1 ratio against a per-student norm. Absent components score zero and are
// listed as missing; the student count itself is required.
func infrastructureScore(d blocks.Data, s *Score) {
	students, ok := lookup(d, s, "student_count", studentKeys)
	if !ok {
		return
	}
	if students <= 0 {
		s.Missing = append(s.Missing, "non-zero student count")
		return
	}
	components := []struct {
		name   string
		keys   []string
		weight float64
		target float64
	}{
		{"built_up_area_sqm", areaKeys, 0.40, students * areaPerStudent},
		{"classrooms", classroomKeys, 0.25, math.Ceil(students / studentsPerClassroom)},
		{"library_area_sqm", libraryKeys, 0.15, students * libraryPerStudent},
		{"digital_resources", digitalKeys, 0.10, digitalTarget},
		{"hostel_capacity", hostelKeys, 0.10, students * hostelShare},
	}
	s.Components = map[string]float64{}
	var total float64
	found := 0
	for _, c := range components {
		v, ok := lookup(d, s, c.name, c.keys)
		if !ok {
			s.Components[c.name] = 0
			continue
		}
		found++
		ratio := math.Min(1, math.Max(0, v/c.target))
		s.Components[c.name] = blocks.Round2(ratio)
		total += ratio * c.weight
	}
	if found == 0 {
		return
	}
	set(s, 100*total)
}

func placementRate(d blocks.Data, s *Score) (float64, bool) {
	if rate, ok := optional(d, s, "placement_rate", placementKeys); ok {
		return rate, true
	}
	placed, okP := optional(d, s, "students_placed", placedKeys)
	eligible, okE := optional(d, s, "students_eligible", append(append([]string{}, eligibleKeys...), studentKeys...))
	if okP && okE && eligible > 0 {
		return placed / eligible * 100, true
	}
	s.Missing = append(s.Missing, "placement_rate")
	if !okP {
		s.Missing = append(s.Missing, "students_placed")
	}
	if !okE || eligible <= 0 {
		s.Missing = append(s.Missing, "students_eligible")
	}
	return 0, false
}

func placementIndex(d blocks.Data, s *Score) {
	if rate, ok := placementRate(d, s); ok {
		set(s, math.Min(100, math.Max(0, rate)))
	}
}

func labComplianceIndex(d blocks.Data, s *Score) {
	available, ok := lookup(d, s, "available_labs", labKeys)
	if !ok {
		return
	}
	required, ok := optional(d, s, "required_labs", requiredLabKeys)
	if !ok {
		required = minRequiredLabs
		if students, ok := optional(d, s, "student_count", studentKeys); ok && students > 0 {
			required = math.Max(minRequiredLabs, math.Floor(students/studentsPerLab))
		}
		s.Parameters["required_labs"] = required
	}
	if required <= 0 {
		s.Missing = append(s.Missing, "non-zero required_labs")
		return
	}
	set(s, math.Min(100, available/required*100))
}

// researchIndex renormalizes the 0.5/0.3/0.2 weights over the sub-scores that
// are present and is null only when all three are absent.
func researchIndex(d blocks.Data, s *Score) {
	parts := []struct {
		name   string
		keys   []string
		target float64
		weight float64
	}{
		{"publications", publicationKeys, publicationTarget, 0.5},
		{"citations", citationKeys, citationTarget, 0.3},
		{"funded_projects", projectKeys, projectTarget, 0.2},
	}
	s.Components = map[string]float64{}
	var sum, weights float64
	for _, p := range parts {
		v, ok := lookup(d, s, p.name, p.keys)
		if !ok {
			continue
		}
		score := math.Min(100, math.Max(0, v/p.target*100))
		s.Components[p.name] = blocks.Round2(score)
		sum += score * p.weight
		weights += p.weight
	}
	if weights == 0 {
		return
	}
	set(s, sum/weights)
}

func governanceScore(d blocks.Data, s *Score) {
	present, ok := optional(d, s, "committee_count", committeeKeys)
	if !ok {
		if list, isList := d["committees"].([]any); isList && len(list) > 0 {
			present = float64(len(list))
			s.Parameters["committee_count"] = present
			ok = true
		}
	}
	if !ok {
		s.Missing = append(s.Missing, "committee_count")
		return
	}
	required, ok := optional(d, s, "required_committees", requiredCommKeys)
	if !ok || required <= 0 {
		required = defaultCommittees
		s.Parameters["required_committees"] = required
	}
	set(s, math.Min(100, present/required*100))
}

func studentOutcomeIndex(d blocks.Data, s *Score) {
	if rate, ok := placementRate(d, s); ok {
		set(s, math.Min(100, math.Max(0, rate)))
	}
}
