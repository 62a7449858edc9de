package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/http/response"
)

type PromptResolver interface {
	Resolve(ctx context.Context, ref prompts.Ref, defaultContent string, allowLatest bool) prompts.ResolvedPrompt
}

type PromptHandler struct {
	resolver PromptResolver
}

func NewPromptHandler(resolver PromptResolver) *PromptHandler {
	return &PromptHandler{resolver: resolver}
}

// Resolve shows which stored prompt a name/category/version reference picks.
func (h *PromptHandler) Resolve(c *gin.Context) {
	ref := prompts.Ref{
		Name:     strings.TrimSpace(c.Query("name")),
		Category: strings.TrimSpace(c.Query("category")),
	}
	if ref.Name == "" && ref.Category == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_reference", errMissingReference)
		return
	}
	if raw := strings.TrimSpace(c.Query("version")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_version", err)
			return
		}
		ref.Version = &v
	}
	allowLatest := c.DefaultQuery("allowLatest", "true") != "false"

	resolved := h.resolver.Resolve(c.Request.Context(), ref, "", allowLatest)
	response.RespondOK(c, gin.H{
		"resolvedBy": resolved.ResolvedBy,
		"name":       resolved.Name,
		"category":   resolved.Category,
		"version":    resolved.Version,
		"content":    resolved.Content,
	})
}
