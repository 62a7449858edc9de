package app

import (
	"database/sql"

	httpx "github.com/yungbote/cvextract/internal/http"
	httpH "github.com/yungbote/cvextract/internal/http/handlers"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type Handlers struct {
	CV        *httpH.CVHandler
	Interview *httpH.InterviewHandler
	Prompt    *httpH.PromptHandler
	Health    *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, sqlDB *sql.DB, repos Repos, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	deps := httpH.CVHandlerDeps{
		Log:         log,
		Runner:      services.Runner,
		Profiles:    repos.Profile,
		Files:       repos.File,
		Evaluations: repos.Evaluation,
		Bucket:      clients.Bucket,
		Processor:   services.Pipeline,
		Config:      cfg.Upload,
	}
	if clients.NATS != nil {
		deps.Queue = clients.NATS
	}
	var pinger httpH.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	return Handlers{
		CV:        httpH.NewCVHandler(deps),
		Interview: httpH.NewInterviewHandler(log, services.Scorer),
		Prompt:    httpH.NewPromptHandler(services.Resolver),
		Health:    httpH.NewHealthHandler(pinger),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers) *httpx.Server {
	return httpx.NewServer(httpx.RouterConfig{
		Log:              log,
		CORSOrigins:      cfg.CORSOrigins,
		CVHandler:        handlers.CV,
		InterviewHandler: handlers.Interview,
		PromptHandler:    handlers.Prompt,
		HealthHandler:    handlers.Health,
	})
}
