package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/yungbote/cvextract/internal/data/db"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/platform/openai"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		LogMode:     "test",
		HTTPAddr:    "127.0.0.1:0",
		DB:          db.Config{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "app.db")},
		AutoMigrate: true,
		LLMProvider: LLMProviderOpenAI,
		OpenAI:      openai.Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"},
		Storage:     gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeMemory, DocumentBucket: "cvs"},
		Events:      EventsMemory,
	}
}

func TestNewWiresInlineProcessing(t *testing.T) {
	a, err := NewWithLogger(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("NewWithLogger: %v", err)
	}
	t.Cleanup(a.Close)

	if a.Services.Pipeline == nil || a.Services.Scorer == nil {
		t.Fatalf("services not wired: %+v", a.Services)
	}
	if a.Services.Worker != nil || a.Clients.NATS != nil {
		t.Fatalf("queue should be disabled without NATS_URL")
	}

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRunWorkerRequiresQueue(t *testing.T) {
	a, err := NewWithLogger(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("NewWithLogger: %v", err)
	}
	t.Cleanup(a.Close)

	if err := a.RunWorker(context.Background()); !errors.Is(err, errNoQueue) {
		t.Fatalf("RunWorker err=%v, want errNoQueue", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMProvider = "mystery"
	if _, err := NewWithLogger(cfg, logger.Nop()); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "memory")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ALLOWED_EXTENSIONS", "PDF,docx")
	t.Setenv("MAX_FILE_SIZE_MB", "4")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("NATS_SUBJECT", "cv.custom")
	t.Setenv("PROMPT_LATEST_TTL_SECONDS", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != "sqlite" || cfg.Storage.Mode != gcp.ObjectStorageModeMemory {
		t.Fatalf("unexpected db/storage: %+v %+v", cfg.DB, cfg.Storage)
	}
	if !cfg.QueueEnabled || cfg.Upload.Subject != "cv.custom" || cfg.Worker.Subject != "cv.custom" {
		t.Fatalf("queue config not applied: %+v", cfg.Upload)
	}
	if len(cfg.Upload.AllowedExtensions) != 2 || cfg.Upload.AllowedExtensions[0] != "pdf" || cfg.Upload.MaxFileSizeMB != 4 {
		t.Fatalf("upload config = %+v", cfg.Upload)
	}
	if cfg.PromptLatestTTL.Seconds() != 5 {
		t.Fatalf("PromptLatestTTL = %v", cfg.PromptLatestTTL)
	}
}

func TestLoadConfigRejectsBadStorageMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "floppy")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected storage mode error")
	}
}
