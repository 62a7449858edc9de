package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cvextract/internal/data/aggregates"
	evaluationrepo "github.com/yungbote/cvextract/internal/data/repos/evaluation"
	filerepo "github.com/yungbote/cvextract/internal/data/repos/file"
	profilerepo "github.com/yungbote/cvextract/internal/data/repos/profile"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/pipeline"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/extraction/reconcile"
	"github.com/yungbote/cvextract/internal/http/response"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type Processor interface {
	Process(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

type JobQueue interface {
	Publish(subject string, data any) error
}

type UploadConfig struct {
	AllowedExtensions  []string
	MaxFileSizeMB      int
	Subject            string
	StorageAccountName string
}

// CVHandlerDeps wires a CVHandler. Queue is optional; without it every
// upload is processed synchronously.
type CVHandlerDeps struct {
	Log         *logger.Logger
	Runner      aggregates.TxRunner
	Profiles    profilerepo.ProfileRepo
	Files       filerepo.FileRepo
	Evaluations evaluationrepo.CvEvaluationRepo
	Bucket      gcp.BucketService
	Processor   Processor
	Queue       JobQueue
	Config      UploadConfig
}

type CVHandler struct {
	log         *logger.Logger
	runner      aggregates.TxRunner
	profiles    profilerepo.ProfileRepo
	files       filerepo.FileRepo
	evaluations evaluationrepo.CvEvaluationRepo
	bucket      gcp.BucketService
	processor   Processor
	queue       JobQueue
	cfg         UploadConfig
}

func NewCVHandler(d CVHandlerDeps) *CVHandler {
	cfg := d.Config
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"pdf", "docx", "txt"}
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 10
	}
	return &CVHandler{
		log:         d.Log.With("handler", "CVHandler"),
		runner:      d.Runner,
		profiles:    d.Profiles,
		files:       d.Files,
		evaluations: d.Evaluations,
		bucket:      d.Bucket,
		processor:   d.Processor,
		queue:       d.Queue,
		cfg:         cfg,
	}
}

// Upload stores a résumé for a profile and either queues it or, with
// ?sync=true, runs the extraction before responding.
func (h *CVHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	profileID, err := uuid.Parse(c.Param("profileId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return
	}
	maxBytes := int64(h.cfg.MaxFileSizeMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	if !slices.Contains(h.cfg.AllowedExtensions, ext) {
		response.RespondError(c, http.StatusBadRequest, "unsupported_file_type",
			fmt.Errorf("file type %q not allowed, expected one of %s", ext, strings.Join(h.cfg.AllowedExtensions, ", ")))
		return
	}
	if fh.Size > maxBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("file exceeds %d MB", h.cfg.MaxFileSizeMB))
		return
	}

	promptVersion := 1
	if raw := strings.TrimSpace(c.PostForm("promptVersion")); raw != "" {
		promptVersion, err = strconv.Atoi(raw)
		if err != nil || promptVersion < 1 {
			response.RespondError(c, http.StatusBadRequest, "invalid_prompt_version", fmt.Errorf("promptVersion must be a positive integer"))
			return
		}
	}
	promptCategory := strings.TrimSpace(c.PostForm("promptCategory"))
	if promptCategory == "" {
		promptCategory = prompts.CVDefaultCategory
	}

	profile, err := h.profiles.GetByID(ctx, nil, profileID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "profile_lookup_failed", err)
		return
	}
	if profile == nil {
		response.RespondError(c, http.StatusNotFound, "profile_not_found", fmt.Errorf("profile %s not found", profileID))
		return
	}
	if profile.Email != "" {
		ctx = ctxutil.WithActor(ctx, profile.Email)
	}

	src, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	if len(content) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_file", fmt.Errorf("uploaded file is empty"))
		return
	}

	fileID := uuid.New()
	key := gcp.DocumentKey(profileID, fileID, ext)
	container := ""
	if h.bucket != nil {
		if err := h.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryDocument, key, bytes.NewReader(content)); err != nil {
			h.log.Error("document upload failed", "file_id", fileID, "error", err)
			response.RespondError(c, http.StatusBadGateway, "upload_failed", err)
			return
		}
		container = h.bucket.BucketName(gcp.BucketCategoryDocument)
	}

	if err := h.recordUpload(ctx, profileID, fileID, ext, key, container, len(content)); err != nil {
		response.RespondKindError(c, err)
		return
	}

	job := pipeline.Job{
		RequestID:      ctxutil.RequestID(ctx),
		UserID:         profileID,
		FileID:         fileID,
		FileExtension:  ext,
		BlobPath:       key,
		PromptName:     strings.TrimSpace(c.PostForm("promptName")),
		PromptCategory: promptCategory,
		PromptVersion:  promptVersion,
	}

	if h.queue == nil || c.Query("sync") == "true" {
		job.Content = content
		res, err := h.processor.Process(ctx, job)
		if err != nil {
			response.RespondKindError(c, err)
			return
		}
		response.RespondOK(c, gin.H{
			"fileId":        fileID,
			"userProfileId": profileID,
			"status":        "completed",
			"extractionId":  res.ExtractionEventID,
			"model":         res.Model,
			"attempts":      res.Attempts,
			"inserted":      countItems(res.Items, reconcile.ItemInserted),
			"skipped":       countItems(res.Items, reconcile.ItemSkipped),
			"failed":        countItems(res.Items, reconcile.ItemFailed),
		})
		return
	}

	if err := h.queue.Publish(h.cfg.Subject, job); err != nil {
		h.log.Error("job enqueue failed", "file_id", fileID, "error", err)
		response.RespondError(c, http.StatusServiceUnavailable, "enqueue_failed", err)
		return
	}
	response.RespondAccepted(c, gin.H{
		"fileId":        fileID,
		"userProfileId": profileID,
		"message":       "CV uploaded and queued for processing",
		"status":        "queued",
	})
}

// recordUpload writes the file row, points the candidate at it and stores
// the resume location on the profile.
func (h *CVHandler) recordUpload(ctx context.Context, profileID, fileID uuid.UUID, ext, key, container string, size int) error {
	folder, name := gcp.SplitKey(key)
	file := &types.File{
		Container:          container,
		FolderPath:         folder,
		FilePath:           name,
		Extension:          ext,
		MbSize:             float64(size) / (1 << 20),
		StorageAccountName: h.cfg.StorageAccountName,
	}
	file.ID = fileID
	resumeURL := key
	if container != "" {
		resumeURL = container + "/" + key
	}

	return aggregates.Write(ctx, h.runner, h.log, "upload.record", func(dbc dbctx.Context) error {
		profile, err := h.profiles.LockByID(dbc.Ctx, dbc.Tx, profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("profile %s vanished during upload", profileID)
		}
		if _, err := h.files.UpsertLocked(dbc.Ctx, dbc.Tx, file); err != nil {
			return fmt.Errorf("upsert file: %w", err)
		}
		if _, err := h.profiles.EnsureCandidate(dbc.Ctx, dbc.Tx, profileID, &fileID); err != nil {
			return fmt.Errorf("ensure candidate: %w", err)
		}
		return h.profiles.UpdateFields(dbc.Ctx, dbc.Tx, profile, map[string]any{"resume_url": resumeURL})
	})
}

// Status reports whether a file has been extracted yet.
func (h *CVHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file_id", err)
		return
	}
	file, err := h.files.GetByID(ctx, nil, fileID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "file_lookup_failed", err)
		return
	}
	if file == nil {
		response.RespondError(c, http.StatusNotFound, "file_not_found", fmt.Errorf("file %s not found", fileID))
		return
	}
	ev, err := h.evaluations.LatestByFile(ctx, nil, fileID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "evaluation_lookup_failed", err)
		return
	}
	if ev == nil {
		response.RespondOK(c, gin.H{
			"fileId":  fileID,
			"status":  "queued",
			"message": "CV uploaded and queued for processing",
		})
		return
	}
	response.RespondOK(c, gin.H{
		"fileId":         fileID,
		"status":         "completed",
		"userProfileId":  ev.UserProfileID,
		"extractionId":   ev.ID,
		"modelUsed":      ev.ModelUsed,
		"createdAt":      ev.CreatedAt,
		"promptCategory": ev.PromptCategory,
		"promptVersion":  ev.PromptVersion,
	})
}

// ListByProfile returns the profile's recent extraction events.
func (h *CVHandler) ListByProfile(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("profileId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	evs, err := h.evaluations.ListByProfile(c.Request.Context(), nil, profileID, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "evaluation_lookup_failed", err)
		return
	}
	out := make([]gin.H, 0, len(evs))
	for _, ev := range evs {
		out = append(out, gin.H{
			"fileId":         ev.FileID,
			"extractionId":   ev.ID,
			"modelUsed":      ev.ModelUsed,
			"createdAt":      ev.CreatedAt,
			"promptCategory": ev.PromptCategory,
			"promptVersion":  ev.PromptVersion,
			"status":         "completed",
		})
	}
	response.RespondOK(c, gin.H{"userProfileId": profileID, "evaluations": out})
}

func countItems(items []reconcile.ItemOutcome, status reconcile.ItemStatus) int {
	n := 0
	for _, it := range items {
		if it.Status == status {
			n++
		}
	}
	return n
}
