package file

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/data/repos/testutil"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
)

func TestFileRepoUpsertLocked(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewFileRepo(db, testutil.Logger(t))
	ctx := ctxutil.WithActor(context.Background(), "uploader@example.com")

	id := uuid.New()
	in := &types.File{Container: "cvs", FolderPath: "u1", FilePath: "cv.pdf", Extension: "pdf", MbSize: 0.5}
	in.ID = id

	created, err := repo.UpsertLocked(ctx, tx, in)
	if err != nil {
		t.Fatalf("UpsertLocked create: %v", err)
	}
	if created.CreatedBy != "uploader@example.com" {
		t.Fatalf("expected audit actor, got %q", created.CreatedBy)
	}

	again := &types.File{Container: "cvs", FolderPath: "u1", FilePath: "cv-v2.pdf", Extension: "pdf", MbSize: 0.7}
	again.ID = id
	if _, err := repo.UpsertLocked(ctx, tx, again); err != nil {
		t.Fatalf("UpsertLocked update: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.FilePath != "cv-v2.pdf" || got.MbSize != 0.7 {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	var count int64
	if err := tx.Model(&types.File{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single file row, got %d", count)
	}

	if _, err := repo.UpsertLocked(ctx, tx, &types.File{}); err == nil {
		t.Fatalf("expected error for missing id")
	}

	missing, err := repo.GetByID(ctx, tx, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: %+v, %v", missing, err)
	}
}

func TestFileRepoUpsertLockedTakesRowLock(t *testing.T) {
	db, statements := testutil.DryRunPostgres(t)
	repo := NewFileRepo(db, testutil.Logger(t))
	ctx := ctxutil.WithActor(context.Background(), "uploader@example.com")

	in := &types.File{Container: "cvs", FolderPath: "u1", FilePath: "cv.pdf", Extension: "pdf"}
	in.ID = uuid.New()
	if _, err := repo.UpsertLocked(ctx, db, in); err != nil {
		t.Fatalf("UpsertLocked: %v", err)
	}
	stmts := statements()
	if len(stmts) == 0 || !strings.Contains(stmts[0], "FOR UPDATE") {
		t.Fatalf("expected the existing row to be read FOR UPDATE, got %q", stmts)
	}
}
