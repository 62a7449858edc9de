package evaluation

import (
	"context"
	"testing"

	"github.com/yungbote/cvextract/internal/data/repos/testutil"
	types "github.com/yungbote/cvextract/internal/domain"
	"gorm.io/datatypes"
)

func TestCvEvaluationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCvEvaluationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	p := testutil.SeedProfile(t, ctx, tx, "eval@example.com")
	f := testutil.SeedFile(t, ctx, tx)

	created, err := repo.Create(ctx, tx, &types.CvEvaluation{
		UserProfileID:  p.ID,
		FileID:         f.ID,
		PromptCategory: "cv_extraction",
		PromptVersion:  2,
		ModelUsed:      "gpt-4o",
		ResponseJSON:   datatypes.JSON(`{"UserProfile":{}}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CreatedBy != "system" {
		t.Fatalf("expected system actor, got %q", created.CreatedBy)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.PromptVersion != 2 {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	list, err := repo.ListByProfile(ctx, tx, p.ID, 0)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListByProfile: expected 1, got %d", len(list))
	}

	latest, err := repo.LatestByFile(ctx, tx, f.ID)
	if err != nil {
		t.Fatalf("LatestByFile: %v", err)
	}
	if latest == nil || latest.ID != created.ID {
		t.Fatalf("LatestByFile: unexpected result: %+v", latest)
	}
	none, err := repo.LatestByFile(ctx, tx, p.ID)
	if err != nil || none != nil {
		t.Fatalf("LatestByFile for unknown file: %+v %v", none, err)
	}
}
