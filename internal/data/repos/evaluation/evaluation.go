package evaluation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

// CvEvaluationRepo stores extraction events. Events are append-only.
type CvEvaluationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ev *types.CvEvaluation) (*types.CvEvaluation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CvEvaluation, error)
	ListByProfile(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, limit int) ([]*types.CvEvaluation, error)
	// LatestByFile returns the newest event for fileID, or nil when none exists.
	LatestByFile(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) (*types.CvEvaluation, error)
}

type cvEvaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCvEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) CvEvaluationRepo {
	repoLog := baseLog.With("repo", "CvEvaluationRepo")
	return &cvEvaluationRepo{db: db, log: repoLog}
}

func (r *cvEvaluationRepo) Create(ctx context.Context, tx *gorm.DB, ev *types.CvEvaluation) (*types.CvEvaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *cvEvaluationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CvEvaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ev types.CvEvaluation
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (r *cvEvaluationRepo) ListByProfile(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, limit int) ([]*types.CvEvaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var results []*types.CvEvaluation
	if err := transaction.WithContext(ctx).
		Where("user_profile_id = ?", profileID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *cvEvaluationRepo) LatestByFile(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) (*types.CvEvaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CvEvaluation
	if err := transaction.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
