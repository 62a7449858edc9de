package domain

import (
	"github.com/yungbote/cvextract/internal/domain/interview"
	"github.com/yungbote/cvextract/internal/domain/profile"
	"github.com/yungbote/cvextract/internal/domain/prompt"
)

type (
	Prompt = prompt.Prompt

	UserProfile              = profile.UserProfile
	Candidate                = profile.Candidate
	File                     = profile.File
	CvEvaluation             = profile.CvEvaluation
	Scoring                  = profile.Scoring
	Experience               = profile.Experience
	Education                = profile.Education
	Skill                    = profile.Skill
	ProjectResearch          = profile.ProjectResearch
	CertificationLicense     = profile.CertificationLicense
	AwardAchievement         = profile.AwardAchievement
	VolunteerExtracurricular = profile.VolunteerExtracurricular
	Summary                  = profile.Summary
	KeyStrength              = profile.KeyStrength
	Generation               = profile.Generation

	Interview      = interview.Interview
	InterviewScore = interview.Score
)

// Models returns every persisted entity in migration order.
func Models() []any {
	models := []any{
		&Prompt{},
		&UserProfile{},
		&Candidate{},
		&File{},
		&CvEvaluation{},
		&Scoring{},
	}
	models = append(models, profile.GenerationModels()...)
	return append(models,
		&Interview{},
		&InterviewScore{},
	)
}

// GenerationModels returns the collections retired and rewritten on every
// extraction run.
func GenerationModels() []any {
	return profile.GenerationModels()
}
