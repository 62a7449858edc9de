package app

import (
	"gorm.io/gorm"

	evaluationrepo "github.com/yungbote/cvextract/internal/data/repos/evaluation"
	filerepo "github.com/yungbote/cvextract/internal/data/repos/file"
	interviewrepo "github.com/yungbote/cvextract/internal/data/repos/interview"
	profilerepo "github.com/yungbote/cvextract/internal/data/repos/profile"
	promptrepo "github.com/yungbote/cvextract/internal/data/repos/prompt"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type Repos struct {
	Prompt     promptrepo.PromptRepo
	Profile    profilerepo.ProfileRepo
	File       filerepo.FileRepo
	Evaluation evaluationrepo.CvEvaluationRepo
	Interview  interviewrepo.InterviewRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Prompt:     promptrepo.NewPromptRepo(db, log),
		Profile:    profilerepo.NewProfileRepo(db, log),
		File:       filerepo.NewFileRepo(db, log),
		Evaluation: evaluationrepo.NewCvEvaluationRepo(db, log),
		Interview:  interviewrepo.NewInterviewRepo(db, log),
	}
}
