package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
	"gorm.io/gorm"
)

// Base carries the identity and audit columns shared by every mutable entity.
// CreatedBy and UpdatedBy are filled from the actor on the statement context.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	CreatedBy string    `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy string    `gorm:"column:updated_by" json:"updated_by,omitempty"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	actor := ctxutil.Actor(tx.Statement.Context)
	if b.CreatedBy == "" {
		b.CreatedBy = actor
	}
	if b.UpdatedBy == "" {
		b.UpdatedBy = actor
	}
	return nil
}

func (b *Base) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("UpdatedBy", ctxutil.Actor(tx.Statement.Context))
	return nil
}

// Generation ties a child row to its subject and to the extraction run that
// produced it. A non-null DeletedAt marks the row as retired.
type Generation struct {
	UserProfileID uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_profile_id"`
	ExtractionID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"extraction_id"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
