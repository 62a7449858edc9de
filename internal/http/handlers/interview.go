package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/interview"
	"github.com/yungbote/cvextract/internal/http/response"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type TranscriptScorer interface {
	ScoreTranscript(ctx context.Context, conversationID string, transcript []interview.TranscriptItem, criteria interview.Criteria) (*types.InterviewScore, error)
	ScoreStored(ctx context.Context, ref interview.TranscriptRef) (*types.InterviewScore, error)
}

type InterviewHandler struct {
	log    *logger.Logger
	scorer TranscriptScorer
}

func NewInterviewHandler(log *logger.Logger, scorer TranscriptScorer) *InterviewHandler {
	return &InterviewHandler{log: log.With("handler", "InterviewHandler"), scorer: scorer}
}

type scoreRequest struct {
	Transcript []interview.TranscriptItem `json:"transcript" binding:"required"`
	Criteria   *interview.Criteria        `json:"criteria"`
}

// Score scores an inline transcript for the conversation in the path.
func (h *InterviewHandler) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	criteria := interview.DefaultCriteria()
	if req.Criteria != nil {
		criteria = *req.Criteria
	}
	score, err := h.scorer.ScoreTranscript(c.Request.Context(), c.Param("conversationId"), req.Transcript, criteria)
	if err != nil {
		response.RespondKindError(c, err)
		return
	}
	response.RespondOK(c, score)
}

// Webhook scores a transcript file the voice agent has written to storage.
func (h *InterviewHandler) Webhook(c *gin.Context) {
	var ref interview.TranscriptRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	score, err := h.scorer.ScoreStored(c.Request.Context(), ref)
	if err != nil {
		h.log.Warn("transcript webhook failed", "conversation_id", ref.ConversationID, "error", err)
		response.RespondKindError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"status":         "scored",
		"conversationId": ref.ConversationID,
		"score":          score,
	})
}
