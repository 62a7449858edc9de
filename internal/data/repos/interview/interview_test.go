package interview

import (
	"context"
	"testing"

	"github.com/yungbote/cvextract/internal/data/repos/testutil"
	types "github.com/yungbote/cvextract/internal/domain"
)

func TestInterviewRepoUpsertScore(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewInterviewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	iv := testutil.SeedInterview(t, ctx, tx, "conv-1")

	got, err := repo.GetByConversationID(ctx, tx, "conv-1")
	if err != nil || got == nil || got.ID != iv.ID {
		t.Fatalf("GetByConversationID: %+v, %v", got, err)
	}
	missing, err := repo.GetByConversationID(ctx, tx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByConversationID missing: %+v, %v", missing, err)
	}

	first := &types.InterviewScore{InterviewID: iv.ID, Technical: 80, Communication: 70, ProblemSolving: 60, English: 90, Average: 75}
	if err := repo.UpsertScore(ctx, tx, first); err != nil {
		t.Fatalf("UpsertScore: %v", err)
	}
	second := &types.InterviewScore{InterviewID: iv.ID, Technical: 50, Communication: 50, ProblemSolving: 50, English: 50, Average: 50}
	if err := repo.UpsertScore(ctx, tx, second); err != nil {
		t.Fatalf("UpsertScore again: %v", err)
	}

	score, err := repo.GetScore(ctx, tx, iv.ID)
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}
	if score == nil || score.Technical != 50 || score.Average != 50 {
		t.Fatalf("GetScore: unexpected result: %+v", score)
	}
	var count int64
	if err := tx.Model(&types.InterviewScore{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one score row, got %d", count)
	}
}
