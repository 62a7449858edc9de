package reconcile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/schema"
	"gorm.io/datatypes"
)

var errEmptyItem = errors.New("empty item")

// profileFields is the closed set of profile columns an extraction may write.
// Email and ResumeURL belong to the account service and are not listed.
var profileFields = []struct {
	column string
	value  func(u *schema.UserProfile) any
}{
	{"name", func(u *schema.UserProfile) any { return optional(u.Name) }},
	{"phone_number", func(u *schema.UserProfile) any { return optional(u.PhoneNumber) }},
	{"age", func(u *schema.UserProfile) any { return optional(u.Age) }},
	{"nationality", func(u *schema.UserProfile) any { return optional(u.Nationality) }},
	{"profile_picture_url", func(u *schema.UserProfile) any { return optional(u.ProfilePictureURL) }},
	{"bio", func(u *schema.UserProfile) any { return optional(u.Bio) }},
	{"open_to_relocation", func(u *schema.UserProfile) any { return optional(u.OpenToRelocation) }},
	{"job_type_preferences", func(u *schema.UserProfile) any { return stringSlice(u.JobTypePreferences) }},
	{"remote_preferences", func(u *schema.UserProfile) any { return stringSlice(u.RemotePreferences) }},
	{"roles", func(u *schema.UserProfile) any { return stringSlice(u.Roles) }},
}

// profileFieldValues keeps existing values for attributes the model left null.
func profileFieldValues(u *schema.UserProfile) map[string]any {
	out := make(map[string]any, len(profileFields))
	for _, f := range profileFields {
		if v := f.value(u); v != nil {
			out[f.column] = v
		}
	}
	return out
}

func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringSlice(v []string) datatypes.JSONSlice[string] {
	if v == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](v)
}

type batch struct {
	collection string
	items      []func() (any, error)
}

func generationBatches(in Input) []batch {
	rec := in.Record
	gen := types.Generation{UserProfileID: in.ProfileID, ExtractionID: in.ExtractionID}
	return []batch{
		build("Experience", rec.Experience, func(e schema.Experience) (any, error) {
			return &types.Experience{
				Generation:   gen,
				Title:        e.Title,
				Organization: e.Organization,
				Industry:     e.Industry,
				Location:     e.Location,
				StartDate:    e.StartDate.TimePtr(),
				EndDate:      e.EndDate.TimePtr(),
				Description:  e.Description,
			}, nil
		}),
		build("Education", rec.Education, func(e schema.Education) (any, error) {
			return &types.Education{
				Generation:   gen,
				Degree:       e.Degree,
				Institution:  e.Institution,
				FieldOfStudy: e.FieldOfStudy,
				Location:     e.Location,
				StartDate:    e.StartDate.TimePtr(),
				EndDate:      e.EndDate.TimePtr(),
			}, nil
		}),
		build("Skills", rec.Skills, func(s schema.Skill) (any, error) {
			name, err := required("SkillName", s.SkillName)
			if err != nil {
				return nil, err
			}
			return &types.Skill{
				Generation:      gen,
				Category:        s.Category,
				SkillName:       name,
				Proficiency:     s.Proficiency,
				YearsExperience: s.YearsExperience,
				Unit:            s.Unit,
			}, nil
		}),
		build("ProjectsResearch", rec.ProjectsResearch, func(p schema.Project) (any, error) {
			return &types.ProjectResearch{
				Generation:       gen,
				Title:            p.Title,
				Description:      p.Description,
				Role:             p.Role,
				TechnologiesUsed: p.TechnologiesUsed,
				Link:             p.Link,
			}, nil
		}),
		build("CertificationsLicenses", rec.CertificationsLicenses, func(c schema.Certification) (any, error) {
			name, err := required("Name", c.Name)
			if err != nil {
				return nil, err
			}
			return &types.CertificationLicense{
				Generation: gen,
				Name:       name,
				Issuer:     c.Issuer,
				DateIssued: c.DateIssued.TimePtr(),
				ValidUntil: c.ValidUntil.TimePtr(),
			}, nil
		}),
		build("AwardsAchievements", rec.AwardsAchievements, func(a schema.Award) (any, error) {
			title, err := required("Title", a.Title)
			if err != nil {
				return nil, err
			}
			return &types.AwardAchievement{
				Generation:  gen,
				Title:       title,
				Issuer:      a.Issuer,
				Year:        a.Year,
				Description: a.Description,
			}, nil
		}),
		build("VolunteerExtracurricular", rec.VolunteerExtracurricular, func(v schema.Volunteer) (any, error) {
			return &types.VolunteerExtracurricular{
				Generation:   gen,
				Role:         v.Role,
				Organization: v.Organization,
				StartDate:    v.StartDate.TimePtr(),
				EndDate:      v.EndDate.TimePtr(),
				Description:  v.Description,
			}, nil
		}),
		build("Scoring", rec.Scoring, func(s schema.Scoring) (any, error) {
			category, err := required("Category", s.Category)
			if err != nil {
				return nil, err
			}
			fixed := category
			if s.FixedCategory != nil && strings.TrimSpace(*s.FixedCategory) != "" {
				fixed = strings.TrimSpace(*s.FixedCategory)
			}
			return &types.Scoring{
				CvEvaluationID: in.ExtractionID,
				UserProfileID:  in.ProfileID,
				Category:       category,
				FixedCategory:  fixed,
				Score:          s.Score,
				Years:          s.Years,
				Level:          s.Level,
			}, nil
		}),
		build("Summaries", rec.Summaries, func(s schema.Summary) (any, error) {
			kind, err := required("Type", s.Type)
			if err != nil {
				return nil, err
			}
			return &types.Summary{Generation: gen, Type: kind, Text: s.Text}, nil
		}),
		build("KeyStrengths", rec.KeyStrengths, func(k schema.KeyStrength) (any, error) {
			name, err := required("StrengthName", k.StrengthName)
			if err != nil {
				return nil, err
			}
			return &types.KeyStrength{Generation: gen, StrengthName: name, Description: k.Description}, nil
		}),
	}
}

// build defers row construction so each item is converted and reported on
// its own. Items with every field null are skipped.
func build[T any](collection string, items []T, conv func(T) (any, error)) batch {
	b := batch{collection: collection, items: make([]func() (any, error), 0, len(items))}
	for _, item := range items {
		b.items = append(b.items, func() (any, error) {
			if reflect.ValueOf(item).IsZero() {
				return nil, errEmptyItem
			}
			return conv(item)
		})
	}
	return b
}

func required(field string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	return strings.TrimSpace(*v), nil
}
