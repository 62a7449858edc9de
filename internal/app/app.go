package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cvextract/internal/data/db"
	httpx "github.com/yungbote/cvextract/internal/http"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/realtime"
)

var errNoQueue = errors.New("worker requires NATS_URL")

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpx.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	dbSvc    *db.Service
}

// New wires the whole process from cfg. Callers own Close.
func New(cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithLogger(cfg, log)
}

func NewWithLogger(cfg Config, log *logger.Logger) (*App, error) {
	dbSvc, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := dbSvc.AutoMigrateAll(); err != nil {
			_ = dbSvc.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbSvc.DB()

	clientset, err := wireClients(log, cfg)
	if err != nil {
		_ = dbSvc.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clientset)

	sqlDB, err := theDB.DB()
	if err != nil {
		log.Warn("sql handle unavailable; health check skips db ping", "error", err)
	}
	handlerset := wireHandlers(log, cfg, sqlDB, reposet, serviceset, clientset)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   wireServer(log, cfg, handlerset),
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
		dbSvc:    dbSvc,
	}, nil
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.startEventLog(ctx)
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr, "queue_enabled", a.Cfg.QueueEnabled)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

// RunWorker consumes extraction jobs until ctx is cancelled, then drains the
// subscription and waits for in-flight jobs.
func (a *App) RunWorker(ctx context.Context) error {
	if a == nil || a.Services.Worker == nil || a.Clients.NATS == nil {
		return errNoQueue
	}
	a.startEventLog(ctx)
	if err := a.Services.Worker.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.Log.Info("Worker shutting down")
	if err := a.Clients.NATS.Drain(); err != nil {
		a.Log.Warn("nats drain failed", "error", err)
	}
	a.Services.Worker.Wait()
	return nil
}

// startEventLog mirrors lifecycle events into the process log.
func (a *App) startEventLog(ctx context.Context) {
	if a.Clients.Bus == nil {
		return
	}
	log := a.Log.With("component", "EventLog")
	err := a.Clients.Bus.StartForwarder(ctx, func(evt realtime.Event) {
		log.Debug("lifecycle event",
			"type", evt.Type,
			"request_id", evt.RequestID,
			"retryable", evt.Retryable,
			"error", evt.Error,
		)
	})
	if err != nil {
		a.Log.Warn("event forwarder not started", "error", err)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbSvc != nil {
		if err := a.dbSvc.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
		a.dbSvc = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
