package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CvEvaluation is the immutable record of one extraction run. It is never
// updated or retired; Scoring rows hang off it.
type CvEvaluation struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserProfileID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_profile_id"`
	FileID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"file_id"`
	PromptName     string         `gorm:"column:prompt_name" json:"prompt_name"`
	PromptCategory string         `gorm:"column:prompt_category;not null" json:"prompt_category"`
	PromptVersion  int            `gorm:"column:prompt_version;not null" json:"prompt_version"`
	ModelUsed      string         `gorm:"column:model_used" json:"model_used"`
	ResponseJSON   datatypes.JSON `gorm:"column:response_json" json:"response_json"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	CreatedBy      string         `gorm:"column:created_by" json:"created_by,omitempty"`
}

func (CvEvaluation) TableName() string { return "cv_evaluation" }

func (e *CvEvaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedBy == "" {
		e.CreatedBy = ctxutil.Actor(tx.Statement.Context)
	}
	return nil
}

// Scoring is scoped to a single CvEvaluation and is hard-deleted on re-run.
type Scoring struct {
	Base
	CvEvaluationID uuid.UUID `gorm:"type:uuid;not null;index" json:"cv_evaluation_id"`
	UserProfileID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_profile_id"`
	Category       string    `gorm:"column:category;not null" json:"category"`
	FixedCategory  string    `gorm:"column:fixed_category;not null" json:"fixed_category"`
	Score          *int      `gorm:"column:score" json:"score,omitempty"`
	Years          *int      `gorm:"column:years" json:"years,omitempty"`
	Level          *string   `gorm:"column:level" json:"level,omitempty"`
}

func (Scoring) TableName() string { return "scoring" }
