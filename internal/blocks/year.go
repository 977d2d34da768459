package blocks

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	yearRangeRe  = regexp.MustCompile(`\b((?:19|20)\d{2})\s*[-–/]\s*(\d{4}|\d{2})\b`)
	singleYearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// ParseYear normalizes a year-like value. Academic ranges resolve to their
// later year: "2023-24" and "AY 2023/24" both give 2024. Values without a
// recognizable year report false.
func ParseYear(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return yearInRange(x)
	case int64:
		return yearInRange(int(x))
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return yearInRange(int(x))
	case string:
		return parseYearString(x)
	}
	return 0, false
}

func parseYearString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if m := yearRangeRe.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		if end, ok := rangeEnd(start, m[2]); ok {
			return end, true
		}
		return yearInRange(start)
	}
	if m := singleYearRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return yearInRange(y)
	}
	return 0, false
}

// rangeEnd expands the short end of a range against the start year. Only
// spans of one to five years count as ranges, so dates like "2024-03-15" fall
// back to their leading year.
func rangeEnd(start int, raw string) (int, bool) {
	end, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if len(raw) == 2 {
		end += start / 100 * 100
		if end < start {
			end += 100
		}
	}
	if end <= start || end-start > 5 {
		return 0, false
	}
	return yearInRange(end)
}

func yearInRange(y int) (int, bool) {
	if y < minYear || y > maxYear {
		return 0, false
	}
	return y, true
}
