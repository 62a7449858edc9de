package prompt

import (
	"context"
	"errors"
	"strings"

	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyKind selects the column a prompt lookup filters on.
type KeyKind string

const (
	ByName     KeyKind = "name"
	ByCategory KeyKind = "category"
)

type Key struct {
	By    KeyKind
	Value string
}

func (k Key) column() (string, error) {
	switch k.By {
	case ByName:
		return "name", nil
	case ByCategory:
		return "category", nil
	default:
		return "", errors.New("unknown prompt key kind: " + string(k.By))
	}
}

// PromptRepo reads and seeds prompt templates. Find* return (nil, nil) when
// nothing matches.
type PromptRepo interface {
	FindExact(ctx context.Context, tx *gorm.DB, key Key, version int) (*types.Prompt, error)
	FindLatest(ctx context.Context, tx *gorm.DB, key Key) (*types.Prompt, error)
	List(ctx context.Context, tx *gorm.DB, category string) ([]*types.Prompt, error)
	Upsert(ctx context.Context, tx *gorm.DB, prompts []*types.Prompt) error
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	repoLog := baseLog.With("repo", "PromptRepo")
	return &promptRepo{db: db, log: repoLog}
}

func (pr *promptRepo) FindExact(ctx context.Context, tx *gorm.DB, key Key, version int) (*types.Prompt, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	col, err := key.column()
	if err != nil {
		return nil, err
	}

	var results []*types.Prompt
	if err := transaction.WithContext(ctx).
		Where(col+" = ? AND version = ?", key.Value, version).
		Order("name ASC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (pr *promptRepo) FindLatest(ctx context.Context, tx *gorm.DB, key Key) (*types.Prompt, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	col, err := key.column()
	if err != nil {
		return nil, err
	}

	var results []*types.Prompt
	if err := transaction.WithContext(ctx).
		Where(col+" = ?", key.Value).
		Order("version DESC").
		Order("name ASC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (pr *promptRepo) List(ctx context.Context, tx *gorm.DB, category string) ([]*types.Prompt, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	q := transaction.WithContext(ctx).Model(&types.Prompt{})
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}
	var results []*types.Prompt
	if err := q.Order("name ASC").Order("version ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *promptRepo) Upsert(ctx context.Context, tx *gorm.DB, prompts []*types.Prompt) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(prompts) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "content", "locale", "tags", "updated_at"}),
		}).
		Create(&prompts).Error
}
