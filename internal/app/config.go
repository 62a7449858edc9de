package app

import (
	"time"

	natsclient "github.com/yungbote/cvextract/internal/clients/nats"
	"github.com/yungbote/cvextract/internal/data/db"
	"github.com/yungbote/cvextract/internal/extraction/client"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/http/handlers"
	"github.com/yungbote/cvextract/internal/jobs/worker"
	"github.com/yungbote/cvextract/internal/platform/anthropic"
	"github.com/yungbote/cvextract/internal/platform/envutil"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/openai"
)

const (
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"

	EventsRedis  = "redis"
	EventsMemory = "memory"
	EventsNone   = "none"
)

type Config struct {
	LogMode     string
	HTTPAddr    string
	CORSOrigins []string

	DB db.Config
	// AutoMigrate creates or updates tables on startup.
	AutoMigrate bool

	LLMProvider string
	OpenAI      openai.Config
	Anthropic   anthropic.Config
	Extraction  client.Config

	PromptLatestTTL time.Duration

	Storage gcp.ObjectStorageConfig
	// StorageAccountName is recorded on file rows.
	StorageAccountName string

	// Events selects the lifecycle event bus: redis, memory or none.
	Events string

	// QueueEnabled routes uploads through NATS instead of processing inline.
	QueueEnabled bool
	NATS         natsclient.Config
	Worker       worker.Config
	Upload       handlers.UploadConfig
}

// LoadConfig reads the process environment. Call godotenv first when a .env
// file should be honoured.
func LoadConfig() (Config, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	workerCfg := worker.ConfigFromEnv()
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		CORSOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),

		DB: db.Config{
			Driver:       envutil.String("DB_DRIVER", "postgres"),
			Host:         envutil.String("POSTGRES_HOST", "localhost"),
			Port:         envutil.String("POSTGRES_PORT", "5432"),
			User:         envutil.String("POSTGRES_USER", "postgres"),
			Password:     envutil.String("POSTGRES_PASSWORD", ""),
			Name:         envutil.String("POSTGRES_NAME", "cvextract"),
			SSLMode:      envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:   envutil.String("SQLITE_PATH", "cvextract.db"),
			MaxOpenConns: envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: envutil.Int("DB_MAX_IDLE_CONNS", 5),
		},
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),

		LLMProvider: envutil.String("LLM_PROVIDER", LLMProviderOpenAI),
		OpenAI:      openai.ConfigFromEnv(),
		Anthropic:   anthropic.ConfigFromEnv(),
		Extraction: client.Config{
			MaxAttempts:            envutil.Int("EXTRACTION_MAX_ATTEMPTS", client.DefaultMaxAttempts),
			MaxOutputTokens:        envutil.Int("MAX_OUTPUT_TOKENS", client.DefaultMaxOutputTokens),
			MaxOutputTokensCeiling: envutil.Int("MAX_OUTPUT_TOKENS_CEILING", client.DefaultMaxOutputTokensCeiling),
			RatePerSecond:          envutil.Float("LLM_RATE_PER_SECOND", 0),
		},

		PromptLatestTTL: envutil.Seconds("PROMPT_LATEST_TTL_SECONDS", prompts.DefaultLatestTTL),

		Storage:            storageCfg,
		StorageAccountName: envutil.String("STORAGE_ACCOUNT_NAME", ""),

		Events: envutil.String("EVENTS_BACKEND", EventsMemory),

		QueueEnabled: envutil.String("NATS_URL", "") != "",
		NATS:         natsclient.ConfigFromEnv(),
		Worker:       workerCfg,
		Upload: handlers.UploadConfig{
			AllowedExtensions:  envutil.List("ALLOWED_EXTENSIONS", []string{"pdf", "docx", "txt"}),
			MaxFileSizeMB:      envutil.Int("MAX_FILE_SIZE_MB", 10),
			Subject:            workerCfg.Subject,
			StorageAccountName: envutil.String("STORAGE_ACCOUNT_NAME", ""),
		},
	}, nil
}
