package profile

import "time"

type Experience struct {
	Base
	Generation
	Title        *string    `gorm:"column:title" json:"title,omitempty"`
	Organization *string    `gorm:"column:organization" json:"organization,omitempty"`
	Industry     *string    `gorm:"column:industry" json:"industry,omitempty"`
	Location     *string    `gorm:"column:location" json:"location,omitempty"`
	StartDate    *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	Description  *string    `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (Experience) TableName() string { return "experience" }

type Education struct {
	Base
	Generation
	Degree       *string    `gorm:"column:degree" json:"degree,omitempty"`
	Institution  *string    `gorm:"column:institution" json:"institution,omitempty"`
	FieldOfStudy *string    `gorm:"column:field_of_study" json:"field_of_study,omitempty"`
	Location     *string    `gorm:"column:location" json:"location,omitempty"`
	StartDate    *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
}

func (Education) TableName() string { return "education" }

type Skill struct {
	Base
	Generation
	Category        *string `gorm:"column:category" json:"category,omitempty"`
	SkillName       string  `gorm:"column:skill_name;not null" json:"skill_name"`
	Proficiency     *string `gorm:"column:proficiency" json:"proficiency,omitempty"`
	YearsExperience *int    `gorm:"column:years_experience" json:"years_experience,omitempty"`
	Unit            *string `gorm:"column:unit" json:"unit,omitempty"`
}

func (Skill) TableName() string { return "skill" }

type ProjectResearch struct {
	Base
	Generation
	Title            *string `gorm:"column:title" json:"title,omitempty"`
	Description      *string `gorm:"column:description;type:text" json:"description,omitempty"`
	Role             *string `gorm:"column:role" json:"role,omitempty"`
	TechnologiesUsed *string `gorm:"column:technologies_used" json:"technologies_used,omitempty"`
	Link             *string `gorm:"column:link" json:"link,omitempty"`
}

func (ProjectResearch) TableName() string { return "projects_research" }

type CertificationLicense struct {
	Base
	Generation
	Name       string     `gorm:"column:name;not null" json:"name"`
	Issuer     *string    `gorm:"column:issuer" json:"issuer,omitempty"`
	DateIssued *time.Time `gorm:"column:date_issued;type:date" json:"date_issued,omitempty"`
	ValidUntil *time.Time `gorm:"column:valid_until;type:date" json:"valid_until,omitempty"`
}

func (CertificationLicense) TableName() string { return "certifications_licenses" }

type AwardAchievement struct {
	Base
	Generation
	Title       string  `gorm:"column:title;not null" json:"title"`
	Issuer      *string `gorm:"column:issuer" json:"issuer,omitempty"`
	Year        *int    `gorm:"column:year" json:"year,omitempty"`
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (AwardAchievement) TableName() string { return "awards_achievements" }

type VolunteerExtracurricular struct {
	Base
	Generation
	Role         *string    `gorm:"column:role" json:"role,omitempty"`
	Organization *string    `gorm:"column:organization" json:"organization,omitempty"`
	StartDate    *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	Description  *string    `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (VolunteerExtracurricular) TableName() string { return "volunteer_extracurricular" }

type Summary struct {
	Base
	Generation
	Type string  `gorm:"column:type;not null" json:"type"`
	Text *string `gorm:"column:text;type:text" json:"text,omitempty"`
}

func (Summary) TableName() string { return "summary" }

type KeyStrength struct {
	Base
	Generation
	StrengthName string  `gorm:"column:strength_name;not null" json:"strength_name"`
	Description  *string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (KeyStrength) TableName() string { return "key_strength" }

// GenerationModels lists the collections replaced wholesale on every run.
func GenerationModels() []any {
	return []any{
		&Experience{},
		&Education{},
		&Skill{},
		&ProjectResearch{},
		&CertificationLicense{},
		&AwardAchievement{},
		&VolunteerExtracurricular{},
		&Summary{},
		&KeyStrength{},
	}
}
