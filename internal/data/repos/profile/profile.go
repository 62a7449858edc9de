package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepo owns the subject row, its candidate row and the generation
// scoped collections hanging off it. Lock* and Get* return (nil, nil) when the
// row does not exist.
type ProfileRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProfile, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProfile, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, p *types.UserProfile, fields map[string]any) error
	EnsureCandidate(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, cvFileID *uuid.UUID) (*types.Candidate, error)
	// RetireGeneration soft-deletes every live row of the generation scoped
	// collections for the profile and returns the number of rows retired.
	RetireGeneration(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (int64, error)
	DeleteScoring(ctx context.Context, tx *gorm.DB, evaluationID uuid.UUID) (int64, error)
	CountLive(ctx context.Context, tx *gorm.DB, model any, profileID uuid.UUID) (int64, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

func (pr *profileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var p types.UserProfile
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (pr *profileRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var rows []*types.UserProfile
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (pr *profileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, p *types.UserProfile, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if p == nil || p.ID == uuid.Nil {
		return fmt.Errorf("profile id required")
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Model(p).Updates(fields).Error
}

func (pr *profileRepo) EnsureCandidate(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, cvFileID *uuid.UUID) (*types.Candidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var rows []*types.Candidate
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_profile_id = ?", profileID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		c := &types.Candidate{UserProfileID: profileID, CvFileID: cvFileID}
		if err := transaction.WithContext(ctx).Create(c).Error; err != nil {
			return nil, err
		}
		pr.log.Debug("candidate row created", "profile_id", profileID)
		return c, nil
	}
	c := rows[0]
	if cvFileID != nil {
		if err := transaction.WithContext(ctx).Model(c).Update("cv_file_id", *cvFileID).Error; err != nil {
			return nil, err
		}
		c.CvFileID = cvFileID
	}
	return c, nil
}

func (pr *profileRepo) RetireGeneration(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	now := time.Now().UTC()
	var total int64
	for _, model := range types.GenerationModels() {
		res := transaction.WithContext(ctx).
			Model(model).
			Where("user_profile_id = ? AND deleted_at IS NULL", profileID).
			Update("deleted_at", now)
		if res.Error != nil {
			return total, fmt.Errorf("retire %T: %w", model, res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (pr *profileRepo) DeleteScoring(ctx context.Context, tx *gorm.DB, evaluationID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	res := transaction.WithContext(ctx).
		Where("cv_evaluation_id = ?", evaluationID).
		Delete(&types.Scoring{})
	return res.RowsAffected, res.Error
}

func (pr *profileRepo) CountLive(ctx context.Context, tx *gorm.DB, model any, profileID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(model).
		Where("user_profile_id = ?", profileID).
		Count(&n).Error
	return n, err
}
