package app

import (
	"github.com/yungbote/cvextract/internal/data/aggregates"
	"github.com/yungbote/cvextract/internal/extraction/client"
	"github.com/yungbote/cvextract/internal/extraction/interview"
	"github.com/yungbote/cvextract/internal/extraction/normalize"
	"github.com/yungbote/cvextract/internal/extraction/pipeline"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/extraction/reconcile"
	"github.com/yungbote/cvextract/internal/jobs/worker"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

type Services struct {
	Runner     aggregates.TxRunner
	Resolver   *prompts.Resolver
	Extractor  *client.Client
	Normalizer *normalize.Normalizer
	Reconciler *reconcile.Reconciler
	Pipeline   *pipeline.Pipeline
	Scorer     *interview.Scorer
	// Worker is nil when no queue is configured.
	Worker *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")
	runner := aggregates.NewGormTxRunner(db)
	resolver := prompts.NewResolver(repos.Prompt, log, prompts.WithLatestTTL(cfg.PromptLatestTTL))
	extractor := client.New(clients.LLM, log, cfg.Extraction)
	normalizer := normalize.New(log)
	reconciler := reconcile.New(runner, repos.Profile, log)

	pipe := pipeline.New(pipeline.Deps{
		Log:         log,
		Runner:      runner,
		Profiles:    repos.Profile,
		Files:       repos.File,
		Evaluations: repos.Evaluation,
		Resolver:    resolver,
		Extractor:   extractor,
		Normalizer:  normalizer,
		Reconciler:  reconciler,
		Bucket:      clients.Bucket,
		Bus:         clients.Bus,
		Config:      pipeline.Config{StorageAccountName: cfg.StorageAccountName},
	})

	scorer := interview.NewScorer(interview.Deps{
		Log:        log,
		Interviews: repos.Interview,
		Resolver:   resolver,
		LLM:        extractor,
		Bucket:     clients.Bucket,
		Bus:        clients.Bus,
	})

	var w *worker.Worker
	if clients.NATS != nil {
		w = worker.NewWorker(clients.NATS, pipe, cfg.Worker, log)
	}

	return Services{
		Runner:     runner,
		Resolver:   resolver,
		Extractor:  extractor,
		Normalizer: normalizer,
		Reconciler: reconciler,
		Pipeline:   pipe,
		Scorer:     scorer,
		Worker:     w,
	}
}
