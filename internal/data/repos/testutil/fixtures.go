package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/pkg/pointers"
	"gorm.io/gorm"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.UserProfile {
	tb.Helper()
	p := &types.UserProfile{
		Email:     email,
		ResumeURL: pointers.String("https://files.example.com/cv/" + email + ".pdf"),
	}
	p.ID = uuid.New()
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedFile(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.File {
	tb.Helper()
	f := &types.File{
		Container: "cvs",
		FilePath:  "resume.pdf",
		Extension: "pdf",
	}
	f.ID = uuid.New()
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed file: %v", err)
	}
	return f
}

func SeedEvaluation(tb testing.TB, ctx context.Context, tx *gorm.DB, profileID, fileID uuid.UUID) *types.CvEvaluation {
	tb.Helper()
	ev := &types.CvEvaluation{
		ID:             uuid.New(),
		UserProfileID:  profileID,
		FileID:         fileID,
		PromptCategory: "cv_extraction",
		PromptVersion:  1,
		ModelUsed:      "test-model",
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed evaluation: %v", err)
	}
	return ev
}

func SeedPrompt(tb testing.TB, ctx context.Context, tx *gorm.DB, name, category string, version int, content string) *types.Prompt {
	tb.Helper()
	p := &types.Prompt{
		Name:     name,
		Category: category,
		Version:  version,
		Content:  content,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed prompt: %v", err)
	}
	return p
}

func SeedInterview(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID string) *types.Interview {
	tb.Helper()
	iv := &types.Interview{ConversationID: conversationID, Status: "completed"}
	iv.ID = uuid.New()
	if err := tx.WithContext(ctx).Create(iv).Error; err != nil {
		tb.Fatalf("seed interview: %v", err)
	}
	return iv
}
