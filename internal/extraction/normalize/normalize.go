// Package normalize repairs common shape drift in model output before the
// strict schema sees it. It never fails: on an internal error the input is
// returned untouched.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/cvextract/internal/platform/logger"
)

var listCollections = []string{
	"Experience",
	"Education",
	"Skills",
	"ProjectsResearch",
	"CertificationsLicenses",
	"AwardsAchievements",
	"VolunteerExtracurricular",
	"Scoring",
	"Summaries",
	"KeyStrengths",
}

var profileListFields = []string{"JobTypePreferences", "RemotePreferences", "Roles"}

var dateFields = map[string][]string{
	"Experience":               {"StartDate", "EndDate"},
	"Education":                {"StartDate", "EndDate"},
	"VolunteerExtracurricular": {"StartDate", "EndDate"},
	"CertificationsLicenses":   {"DateIssued", "ValidUntil"},
}

type Normalizer struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Normalizer {
	return &Normalizer{log: log.With("service", "ResponseNormalizer")}
}

// Normalize returns a repaired deep copy of raw. Normalize(Normalize(x))
// equals Normalize(x).
func (n *Normalizer) Normalize(raw map[string]any) (out map[string]any) {
	if raw == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("normalization failed, returning raw response", "panic", fmt.Sprint(r))
			out = raw
		}
	}()

	data, _ := deepCopy(raw).(map[string]any)
	normalizeProfileLists(data)
	for _, key := range listCollections {
		data[key] = asList(data[key])
	}
	for _, item := range objects(data["Scoring"]) {
		normalizeScoring(item)
	}
	for _, item := range objects(data["Summaries"]) {
		if v, ok := item["Type"]; ok && v != nil {
			item["Type"] = canonicalSummaryType(v)
		}
	}
	for collection, fields := range dateFields {
		for _, item := range objects(data[collection]) {
			for _, f := range fields {
				if v, ok := item[f]; ok {
					item[f] = normalizeDate(v)
				}
			}
		}
	}
	for _, item := range objects(data["AwardsAchievements"]) {
		coerceIntField(item, "Year")
	}
	for _, item := range objects(data["Skills"]) {
		coerceIntField(item, "YearsExperience")
	}
	return data
}

func normalizeProfileLists(data map[string]any) {
	up, ok := data["UserProfile"].(map[string]any)
	if !ok {
		return
	}
	for _, f := range profileListFields {
		up[f] = stringList(up[f])
	}
	coerceIntField(up, "Age")
}

func normalizeScoring(item map[string]any) {
	if v, ok := item["Level"]; ok && v != nil {
		item["Level"] = canonicalLevel(v)
	}

	if v, ok := item["Score"]; ok {
		score, valid := toInt(v)
		if !valid || score < 1 || score > 10 {
			item["Score"] = nil
		} else {
			item["Score"] = score
		}
	}

	years, hasYears := item["Years"]
	if !hasYears || years == nil {
		if ye, ok := item["YearsExperience"]; ok && ye != nil {
			years, hasYears = ye, true
		}
	}
	if hasYears {
		if n, valid := toInt(years); valid {
			item["Years"] = n
		} else {
			item["Years"] = nil
		}
	}
}

func coerceIntField(item map[string]any, key string) {
	v, ok := item[key]
	if !ok || v == nil {
		return
	}
	if n, valid := toInt(v); valid {
		item[key] = n
		return
	}
	item[key] = nil
}

// asList turns null into an empty list and wraps a lone object.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	case map[string]any:
		return []any{t}
	default:
		return []any{}
	}
}

func stringList(v any) []any {
	out := []any{}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, e := range t {
			if s := listEntry(e); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func listEntry(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return ""
	case map[string]any, []any:
		return ""
	default:
		// Numbers arrive as json.Number, float64 or int; zero is falsy.
		s := strings.TrimSpace(fmt.Sprint(t))
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
			return ""
		}
		return s
	}
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = deepCopy(e)
		}
		return s
	default:
		return v
	}
}
