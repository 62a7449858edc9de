package interview

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewRepo interface {
	GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID string) (*types.Interview, error)
	GetScore(ctx context.Context, tx *gorm.DB, interviewID uuid.UUID) (*types.InterviewScore, error)
	// UpsertScore writes the single score row for score.InterviewID.
	UpsertScore(ctx context.Context, tx *gorm.DB, score *types.InterviewScore) error
}

type interviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterviewRepo(db *gorm.DB, baseLog *logger.Logger) InterviewRepo {
	repoLog := baseLog.With("repo", "InterviewRepo")
	return &interviewRepo{db: db, log: repoLog}
}

func (r *interviewRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID string) (*types.Interview, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var iv types.Interview
	if err := transaction.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&iv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &iv, nil
}

func (r *interviewRepo) GetScore(ctx context.Context, tx *gorm.DB, interviewID uuid.UUID) (*types.InterviewScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.InterviewScore
	if err := transaction.WithContext(ctx).Where("interview_id = ?", interviewID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *interviewRepo) UpsertScore(ctx context.Context, tx *gorm.DB, score *types.InterviewScore) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "interview_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"technical", "communication", "problem_solving", "english", "average", "updated_at", "updated_by",
			}),
		}).
		Create(score).Error
}
