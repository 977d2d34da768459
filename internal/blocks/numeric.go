package blocks

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	sqftToSqm     = 0.092903
	acreToSqm     = 4046.86
	hectareToSqm  = 10000
	lakh          = 100000
	crore         = 10000000
	numberPattern = `(-?\d[\d,]*(?:\.\d+)?)`
)

type unitRule struct {
	re     *regexp.Regexp
	factor float64
}

// Ordered: the first matching rule decides the unit.
var unitRules = []unitRule{
	{regexp.MustCompile(numberPattern + `\s*%`), 1},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:lpa|l\.p\.a\.?)`), 1},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:crores?|cr)\b`), crore},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:lakhs?|lacs?)\b`), lakh},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:sq\.?\s*ft|sqft|square\s*(?:feet|foot|ft))`), sqftToSqm},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:sq\.?\s*m|sqm|square\s*(?:meters?|metres?|m)|m2|m²)`), 1},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:acres?|ac\.?)\b`), acreToSqm},
	{regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:hectares?|ha\.?)\b`), hectareToSqm},
	{regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*` + numberPattern), 1},
}

var plainNumberRe = regexp.MustCompile(numberPattern)

// ParseNumeric extracts a number from messy values. Area units convert to
// square metres, lakh and crore expand to absolute amounts, "LPA" and
// percentages keep their face value.
func ParseNumeric(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		return parseNumericString(x)
	}
	return 0, false
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return 0, false
	}
	for _, rule := range unitRules {
		if m := rule.re.FindStringSubmatch(s); m != nil {
			if n, ok := toFloat(m[1]); ok {
				return n * rule.factor, true
			}
		}
	}
	if m := plainNumberRe.FindStringSubmatch(s); m != nil {
		return toFloat(m[1])
	}
	return 0, false
}

func toFloat(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
