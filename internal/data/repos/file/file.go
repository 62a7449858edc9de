package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.File, error)
	// UpsertLocked locks the row with f.ID, creating it when absent, and
	// overwrites its storage coordinates with f's.
	UpsertLocked(ctx context.Context, tx *gorm.DB, f *types.File) (*types.File, error)
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	repoLog := baseLog.With("repo", "FileRepo")
	return &fileRepo{db: db, log: repoLog}
}

func (fr *fileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var f types.File
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (fr *fileRepo) UpsertLocked(ctx context.Context, tx *gorm.DB, f *types.File) (*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if f == nil || f.ID == uuid.Nil {
		return nil, fmt.Errorf("file id required")
	}

	var existing []*types.File
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", f.ID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	if len(existing) == 0 {
		if err := transaction.WithContext(ctx).Create(f).Error; err != nil {
			return nil, err
		}
		fr.log.Debug("file row created", "file_id", f.ID)
		return f, nil
	}

	row := existing[0]
	if err := transaction.WithContext(ctx).
		Model(row).
		Updates(map[string]any{
			"container":            f.Container,
			"folder_path":          f.FolderPath,
			"file_path":            f.FilePath,
			"extension":            f.Extension,
			"mb_size":              f.MbSize,
			"storage_account_name": f.StorageAccountName,
		}).Error; err != nil {
		return nil, err
	}
	return row, nil
}
