package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	levelSynonyms = map[string]string{
		"junior":       "Junior",
		"beginner":     "Junior",
		"basic":        "Junior",
		"mid":          "Mid",
		"intermediate": "Mid",
		"senior":       "Senior",
		"fluent":       "Senior",
		"high":         "Senior",
		"proficient":   "Senior",
		"advanced":     "Senior",
		"expert":       "Expert",
	}
	defaultLevel = "Junior"

	summaryTypeSynonyms = map[string]string{
		"positives":  "Positives",
		"positive":   "Positives",
		"negatives":  "Negatives",
		"negative":   "Negatives",
		"overall":    "Overall",
		"weaknesses": "Weaknesses",
		"weakness":   "Weaknesses",
	}
	defaultSummaryType = "Overall"

	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	yearRe      = regexp.MustCompile(`^\d{4}$`)

	monthLayouts = []string{"January 2006", "Jan 2006", "January, 2006", "Jan. 2006"}
)

// canonicalLevel maps a level synonym to its canonical value. Anything
// unrecognized becomes Junior, unlike an out-of-range Score which becomes null.
func canonicalLevel(v any) string {
	s, _ := v.(string)
	if c, ok := levelSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return defaultLevel
}

func canonicalSummaryType(v any) string {
	s, _ := v.(string)
	if c, ok := summaryTypeSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return defaultSummaryType
}

// toInt accepts JSON numbers, numeric strings and Go integers, truncating
// fractions toward zero.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case float64:
		return floatToInt(t)
	case float32:
		return floatToInt(float64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// normalizeDate returns YYYY-MM-DD or nil. Ongoing markers such as "Present"
// and anything unparseable become nil.
func normalizeDate(v any) any {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(t)
	case json.Number, float64, int:
		if n, ok := toInt(t); ok {
			s = strconv.Itoa(n)
		}
	default:
		return nil
	}
	if s == "" {
		return nil
	}

	if d, err := time.Parse(dateLayout, s); err == nil {
		return d.Format(dateLayout)
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2])
	}
	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		return ymd(m[2], m[1])
	}
	if yearRe.MatchString(s) {
		return s + "-01-01"
	}
	for _, layout := range monthLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(dateLayout)
		}
	}
	return nil
}

func ymd(year, month string) any {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return nil
	}
	return fmt.Sprintf("%s-%02d-01", year, m)
}
