package gcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

func TestMemoryBucketServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, err := NewBucketServiceWithConfig(logger.Nop(), ObjectStorageConfig{Mode: ObjectStorageModeMemory})
	if err != nil {
		t.Fatalf("NewBucketServiceWithConfig: %v", err)
	}
	if got := svc.BucketName(BucketCategoryResponse); got != "response" {
		t.Fatalf("BucketName = %q", got)
	}

	if err := svc.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryDocument, "a/b.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	rc, err := svc.DownloadFile(ctx, BucketCategoryDocument, "a/b.txt")
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}

	if _, err := svc.DownloadFile(ctx, BucketCategoryResponse, "a/b.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("categories must not share objects, got %v", err)
	}
	if err := svc.DeleteFile(dbctx.Context{Ctx: ctx}, BucketCategoryDocument, "a/b.txt"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := svc.DownloadFile(ctx, BucketCategoryDocument, "a/b.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestKeys(t *testing.T) {
	user := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	file := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	doc := DocumentKey(user, file, ".PDF")
	if doc != "users/11111111-1111-1111-1111-111111111111/cv/22222222-2222-2222-2222-222222222222.pdf" {
		t.Fatalf("DocumentKey = %q", doc)
	}
	folder, name := SplitKey(doc)
	if folder != "users/11111111-1111-1111-1111-111111111111/cv" || name != "22222222-2222-2222-2222-222222222222.pdf" {
		t.Fatalf("SplitKey = %q, %q", folder, name)
	}
	if resp := ResponseKey(user, file); !strings.HasSuffix(resp, "/cv-responses/22222222-2222-2222-2222-222222222222.json") {
		t.Fatalf("ResponseKey = %q", resp)
	}
	if f, n := SplitKey("cv.pdf"); f != "" || n != "cv.pdf" {
		t.Fatalf("SplitKey(bare) = %q, %q", f, n)
	}
}
