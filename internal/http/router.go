package http

import (
	"github.com/gin-gonic/gin"
	httpH "github.com/yungbote/cvextract/internal/http/handlers"
	httpMW "github.com/yungbote/cvextract/internal/http/middleware"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	CVHandler        *httpH.CVHandler
	InterviewHandler *httpH.InterviewHandler
	PromptHandler    *httpH.PromptHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/v1")
	{
		// CV extraction
		if cfg.CVHandler != nil {
			api.POST("/profiles/:profileId/cv", cfg.CVHandler.Upload)
			api.GET("/profiles/:profileId/cvs", cfg.CVHandler.ListByProfile)
			api.GET("/files/:fileId/status", cfg.CVHandler.Status)
		}

		// Interviews
		if cfg.InterviewHandler != nil {
			api.POST("/interviews/webhook", cfg.InterviewHandler.Webhook)
			api.POST("/interviews/:conversationId/score", cfg.InterviewHandler.Score)
		}

		// Prompts
		if cfg.PromptHandler != nil {
			api.GET("/prompts/resolve", cfg.PromptHandler.Resolve)
		}
	}

	return r
}
