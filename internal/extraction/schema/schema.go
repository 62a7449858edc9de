// Package schema is the strict shape a normalized CV extraction must satisfy
// before it is persisted.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yungbote/cvextract/internal/extraction/errs"
)

type UserProfile struct {
	ResumeURL          *string  `json:"ResumeUrl"`
	Name               *string  `json:"Name"`
	Email              *string  `json:"Email"`
	PhoneNumber        *string  `json:"PhoneNumber"`
	Age                *int     `json:"Age" validate:"omitempty,min=0,max=150"`
	Nationality        *string  `json:"Nationality"`
	ProfilePictureURL  *string  `json:"ProfilePictureUrl"`
	Bio                *string  `json:"Bio"`
	JobTypePreferences []string `json:"JobTypePreferences"`
	OpenToRelocation   *bool    `json:"OpenToRelocation"`
	RemotePreferences  []string `json:"RemotePreferences"`
	Roles              []string `json:"Roles"`
}

type Candidate struct {
	CvFileID      *string `json:"CvFileId"`
	UserProfileID *string `json:"UserProfileId"`
}

type Experience struct {
	Title        *string `json:"Title"`
	Organization *string `json:"Organization"`
	Industry     *string `json:"Industry"`
	Location     *string `json:"Location"`
	StartDate    *Date   `json:"StartDate"`
	EndDate      *Date   `json:"EndDate"`
	Description  *string `json:"Description"`
}

type Education struct {
	Degree       *string `json:"Degree"`
	Institution  *string `json:"Institution"`
	FieldOfStudy *string `json:"FieldOfStudy"`
	Location     *string `json:"Location"`
	StartDate    *Date   `json:"StartDate"`
	EndDate      *Date   `json:"EndDate"`
}

type Skill struct {
	Category        *string `json:"Category"`
	SkillName       *string `json:"SkillName"`
	Proficiency     *string `json:"Proficiency"`
	YearsExperience *int    `json:"YearsExperience" validate:"omitempty,min=0"`
	Unit            *string `json:"Unit"`
}

type Project struct {
	Title            *string `json:"Title"`
	Description      *string `json:"Description"`
	Role             *string `json:"Role"`
	TechnologiesUsed *string `json:"TechnologiesUsed"`
	Link             *string `json:"Link"`
}

type Certification struct {
	Name       *string `json:"Name"`
	Issuer     *string `json:"Issuer"`
	DateIssued *Date   `json:"DateIssued"`
	ValidUntil *Date   `json:"ValidUntil"`
}

type Award struct {
	Title       *string `json:"Title"`
	Issuer      *string `json:"Issuer"`
	Year        *int    `json:"Year"`
	Description *string `json:"Description"`
}

type Volunteer struct {
	Role         *string `json:"Role"`
	Organization *string `json:"Organization"`
	StartDate    *Date   `json:"StartDate"`
	EndDate      *Date   `json:"EndDate"`
	Description  *string `json:"Description"`
}

type Scoring struct {
	Category      *string `json:"Category"`
	FixedCategory *string `json:"FixedCategory"`
	Score         *int    `json:"Score" validate:"omitempty,min=1,max=10"`
	Years         *int    `json:"Years" validate:"omitempty,min=0"`
	Level         *string `json:"Level" validate:"omitempty,oneof=Junior Mid Senior Expert"`
}

type Summary struct {
	Type *string `json:"Type" validate:"omitempty,oneof=Positives Negatives Overall Weaknesses"`
	Text *string `json:"Text"`
}

type KeyStrength struct {
	StrengthName *string `json:"StrengthName"`
	Description  *string `json:"Description"`
}

// CVExtraction is the validated model output for one résumé.
type CVExtraction struct {
	UserProfile              *UserProfile    `json:"UserProfile" validate:"required"`
	Candidate                *Candidate      `json:"Candidate" validate:"required"`
	Experience               []Experience    `json:"Experience" validate:"dive"`
	Education                []Education     `json:"Education" validate:"dive"`
	Skills                   []Skill         `json:"Skills" validate:"dive"`
	ProjectsResearch         []Project       `json:"ProjectsResearch" validate:"dive"`
	CertificationsLicenses   []Certification `json:"CertificationsLicenses" validate:"dive"`
	AwardsAchievements       []Award         `json:"AwardsAchievements" validate:"dive"`
	VolunteerExtracurricular []Volunteer     `json:"VolunteerExtracurricular" validate:"dive"`
	Scoring                  []Scoring       `json:"Scoring" validate:"dive"`
	Summaries                []Summary       `json:"Summaries" validate:"dive"`
	KeyStrengths             []KeyStrength   `json:"KeyStrengths" validate:"dive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode converts a normalized response into typed records. Any shape or
// rule violation is returned as a validation error.
func Decode(data map[string]any) (*CVExtraction, error) {
	if data == nil {
		return nil, errs.Validation("schema.decode", fmt.Errorf("response is empty"))
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errs.Validation("schema.decode", fmt.Errorf("re-encode response: %w", err))
	}
	var out CVExtraction
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&out); err != nil {
		return nil, errs.Validation("schema.decode", describeDecodeError(err))
	}
	if err := validatorInstance().Struct(&out); err != nil {
		return nil, errs.Validation("schema.validate", describeValidationError(err))
	}
	return &out, nil
}

func describeDecodeError(err error) error {
	if te, ok := err.(*json.UnmarshalTypeError); ok {
		return fmt.Errorf("field %s: expected %s, got %s", te.Field, te.Type, te.Value)
	}
	return err
}

func describeValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.Namespace(), "CVExtraction.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", ns, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", ns, fe.Tag()))
		}
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
