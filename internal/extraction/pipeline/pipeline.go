// Package pipeline runs one résumé through text extraction, the model, the
// normalizer, schema validation and reconciliation.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/data/aggregates"
	evaluationrepo "github.com/yungbote/cvextract/internal/data/repos/evaluation"
	filerepo "github.com/yungbote/cvextract/internal/data/repos/file"
	profilerepo "github.com/yungbote/cvextract/internal/data/repos/profile"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/client"
	"github.com/yungbote/cvextract/internal/extraction/docparse"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/extraction/reconcile"
	"github.com/yungbote/cvextract/internal/extraction/schema"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/realtime"
	"github.com/yungbote/cvextract/internal/realtime/bus"
)

// Job is one résumé to process. Content wins over BlobPath when both are set.
type Job struct {
	RequestID      string    `json:"requestId,omitempty"`
	UserID         uuid.UUID `json:"userId"`
	FileID         uuid.UUID `json:"fileId"`
	FileExtension  string    `json:"fileExtension"`
	BlobPath       string    `json:"blobPath,omitempty"`
	Content        []byte    `json:"fileContent,omitempty"`
	PromptName     string    `json:"promptName,omitempty"`
	PromptCategory string    `json:"promptCategory,omitempty"`
	PromptVersion  int       `json:"promptVersion,omitempty"`
	// Attempt counts redeliveries of the job message.
	Attempt int `json:"attempt,omitempty"`
}

type Result struct {
	Record            *schema.CVExtraction
	ExtractionEventID uuid.UUID
	Items             []reconcile.ItemOutcome
	Model             string
	Attempts          int
	SystemPrompt      prompts.ResolvedPrompt
	TaskPrompt        prompts.ResolvedPrompt
}

type Extractor interface {
	Extract(ctx context.Context, documentText, systemPrompt, taskPrompt string) (*client.Result, error)
	Model() string
}

type PromptResolver interface {
	Resolve(ctx context.Context, ref prompts.Ref, defaultContent string, allowLatest bool) prompts.ResolvedPrompt
}

type Normalizer interface {
	Normalize(raw map[string]any) map[string]any
}

type Reconciler interface {
	ReconcileInTx(dbc dbctx.Context, in reconcile.Input) (*reconcile.Result, error)
}

type Config struct {
	// Container and StorageAccountName are recorded on the file row.
	Container          string
	StorageAccountName string
}

// Deps wires a Pipeline. Bucket and Bus are optional.
type Deps struct {
	Log         *logger.Logger
	Runner      aggregates.TxRunner
	Profiles    profilerepo.ProfileRepo
	Files       filerepo.FileRepo
	Evaluations evaluationrepo.CvEvaluationRepo
	Resolver    PromptResolver
	Extractor   Extractor
	Normalizer  Normalizer
	Reconciler  Reconciler
	Bucket      gcp.BucketService
	Bus         bus.Bus
	Config      Config
}

type Pipeline struct {
	log         *logger.Logger
	runner      aggregates.TxRunner
	profiles    profilerepo.ProfileRepo
	files       filerepo.FileRepo
	evaluations evaluationrepo.CvEvaluationRepo
	resolver    PromptResolver
	extractor   Extractor
	normalizer  Normalizer
	reconciler  Reconciler
	bucket      gcp.BucketService
	bus         bus.Bus
	cfg         Config
}

func New(d Deps) *Pipeline {
	cfg := d.Config
	if cfg.Container == "" && d.Bucket != nil {
		cfg.Container = d.Bucket.BucketName(gcp.BucketCategoryDocument)
	}
	return &Pipeline{
		log:         d.Log.With("service", "CVPipeline"),
		runner:      d.Runner,
		profiles:    d.Profiles,
		files:       d.Files,
		evaluations: d.Evaluations,
		resolver:    d.Resolver,
		extractor:   d.Extractor,
		normalizer:  d.Normalizer,
		reconciler:  d.Reconciler,
		bucket:      d.Bucket,
		bus:         d.Bus,
		cfg:         cfg,
	}
}

// Process runs the job end to end. Errors carry an errs.Kind; a failure is
// also announced on the bus when one is configured.
func (p *Pipeline) Process(ctx context.Context, job Job) (*Result, error) {
	if job.RequestID == "" {
		job.RequestID = uuid.NewString()
	}
	log := p.log.With("request_id", job.RequestID, "profile_id", job.UserID, "file_id", job.FileID)
	start := time.Now()

	res, err := p.process(ctx, log, job)
	if err != nil {
		log.Error("cv processing failed",
			"kind", errs.KindOf(err),
			"retryable", errs.IsRetryable(err),
			"duration", time.Since(start).String(),
			"error", err,
		)
		p.publish(ctx, log, realtime.Event{
			Type:      realtime.EventExtractionFailed,
			RequestID: job.RequestID,
			ProfileID: uuidPtr(job.UserID),
			FileID:    uuidPtr(job.FileID),
			Error:     err.Error(),
			Retryable: errs.IsRetryable(err),
		})
		return nil, err
	}

	log.Info("cv processed",
		"extraction_id", res.ExtractionEventID,
		"model", res.Model,
		"attempts", res.Attempts,
		"duration", time.Since(start).String(),
	)
	p.publish(ctx, log, realtime.Event{
		Type:         realtime.EventExtractionCompleted,
		RequestID:    job.RequestID,
		ProfileID:    uuidPtr(job.UserID),
		FileID:       uuidPtr(job.FileID),
		ExtractionID: uuidPtr(res.ExtractionEventID),
		Inserted:     countStatus(res.Items, reconcile.ItemInserted),
		Failed:       countStatus(res.Items, reconcile.ItemFailed),
	})
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, log *logger.Logger, job Job) (*Result, error) {
	const op = "pipeline.process"
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(job.FileExtension)), ".")
	job.FileExtension = ext
	switch {
	case job.UserID == uuid.Nil:
		return nil, errs.InvalidInput(op, "userId is required")
	case job.FileID == uuid.Nil:
		return nil, errs.InvalidInput(op, "fileId is required")
	case ext == "":
		return nil, errs.InvalidInput(op, "fileExtension is required")
	case len(job.Content) == 0 && strings.TrimSpace(job.BlobPath) == "":
		return nil, errs.InvalidInput(op, "fileContent or blobPath is required")
	}

	profile, err := p.profiles.GetByID(ctx, nil, job.UserID)
	if err != nil {
		return nil, errs.Persistence(op+".load_profile", err)
	}
	if profile == nil {
		return nil, errs.Persistence(op+".load_profile", fmt.Errorf("profile %s: %w", job.UserID, errs.ErrSubjectNotFound))
	}
	actor := profile.Email
	if actor == "" {
		actor = job.UserID.String()
	}
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{RequestID: job.RequestID, Actor: actor})

	content, err := p.loadContent(ctx, job)
	if err != nil {
		return nil, err
	}
	text, err := docparse.ExtractText(content, ext)
	if err != nil {
		return nil, err
	}

	systemPrompt := p.resolver.Resolve(ctx, prompts.Ref{Name: prompts.CVSystemPromptName}, "", true)
	taskName := job.PromptName
	if strings.TrimSpace(taskName) == "" {
		taskName = prompts.CVScoringPromptName
	}
	taskRef := prompts.Ref{Name: taskName, Category: job.PromptCategory}
	if job.PromptVersion >= 1 {
		v := job.PromptVersion
		taskRef.Version = &v
	}
	taskPrompt := p.resolver.Resolve(ctx, taskRef, "", true)
	log.Debug("prompts resolved",
		"system_resolved_by", systemPrompt.ResolvedBy,
		"task_resolved_by", taskPrompt.ResolvedBy,
	)

	extracted, err := p.extractor.Extract(ctx, text, systemPrompt.Content, taskPrompt.Content)
	if err != nil {
		return nil, err
	}

	normalized := p.normalizer.Normalize(extracted.Data)
	record, err := schema.Decode(normalized)
	if err != nil {
		return nil, err
	}
	responseJSON, err := json.Marshal(normalized)
	if err != nil {
		return nil, errs.Validation(op+".encode_response", err)
	}

	p.archive(ctx, log, job, responseJSON)

	file := p.fileRow(job, len(content))
	event := &types.CvEvaluation{
		UserProfileID:  job.UserID,
		FileID:         job.FileID,
		PromptName:     firstNonEmpty(taskPrompt.Name, taskName),
		PromptCategory: firstNonEmpty(job.PromptCategory, taskPrompt.Category, prompts.CVDefaultCategory),
		PromptVersion:  firstPositive(job.PromptVersion, derefInt(taskPrompt.Version), 1),
		ModelUsed:      firstNonEmpty(extracted.Model, p.extractor.Model()),
		ResponseJSON:   responseJSON,
	}

	var rec *reconcile.Result
	err = aggregates.Write(ctx, p.runner, log, "pipeline.persist", func(dbc dbctx.Context) error {
		if _, err := p.files.UpsertLocked(dbc.Ctx, dbc.Tx, file); err != nil {
			return fmt.Errorf("upsert file: %w", err)
		}
		if _, err := p.evaluations.Create(dbc.Ctx, dbc.Tx, event); err != nil {
			return fmt.Errorf("create extraction event: %w", err)
		}
		var err error
		rec, err = p.reconciler.ReconcileInTx(dbc, reconcile.Input{
			ProfileID:    job.UserID,
			FileID:       job.FileID,
			ExtractionID: event.ID,
			Record:       record,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Record:            record,
		ExtractionEventID: event.ID,
		Items:             rec.Items,
		Model:             event.ModelUsed,
		Attempts:          extracted.Attempts,
		SystemPrompt:      systemPrompt,
		TaskPrompt:        taskPrompt,
	}, nil
}

func (p *Pipeline) loadContent(ctx context.Context, job Job) ([]byte, error) {
	const op = "pipeline.load_content"
	if len(job.Content) > 0 {
		return job.Content, nil
	}
	if p.bucket == nil {
		return nil, errs.InvalidInput(op, "fileContent is required when no object storage is configured")
	}
	rc, err := p.bucket.DownloadFile(ctx, gcp.BucketCategoryDocument, job.BlobPath)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.New(errs.KindInvalidInput, op, "document not found in storage", err)
		}
		return nil, errs.New(errs.KindPersistence, op, "download document", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, errs.New(errs.KindPersistence, op, "read document", err)
	}
	return buf.Bytes(), nil
}

// archive stores the normalized response next to the document. Failures are
// logged and do not stop the run.
func (p *Pipeline) archive(ctx context.Context, log *logger.Logger, job Job, responseJSON []byte) {
	if p.bucket == nil {
		return
	}
	key := gcp.ResponseKey(job.UserID, job.FileID)
	if err := p.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryResponse, key, bytes.NewReader(responseJSON)); err != nil {
		log.Warn("response archive failed", "key", key, "error", err)
		return
	}
	log.Debug("response archived", "key", key)
}

func (p *Pipeline) fileRow(job Job, size int) *types.File {
	blobPath := job.BlobPath
	if blobPath == "" {
		blobPath = gcp.DocumentKey(job.UserID, job.FileID, job.FileExtension)
	}
	folder, name := gcp.SplitKey(blobPath)
	f := &types.File{
		Container:          p.cfg.Container,
		FolderPath:         folder,
		FilePath:           name,
		Extension:          job.FileExtension,
		MbSize:             float64(size) / (1024 * 1024),
		StorageAccountName: p.cfg.StorageAccountName,
	}
	f.ID = job.FileID
	return f
}

func (p *Pipeline) publish(ctx context.Context, log *logger.Logger, evt realtime.Event) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn("event publish failed", "type", evt.Type, "error", err)
	}
}
