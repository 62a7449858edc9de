package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	types "github.com/yungbote/cvextract/internal/domain"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/interview"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type fakeScorer struct {
	conversation string
	criteria     interview.Criteria
	turns        int
	ref          interview.TranscriptRef
	err          error
}

func (f *fakeScorer) ScoreTranscript(_ context.Context, conversationID string, transcript []interview.TranscriptItem, criteria interview.Criteria) (*types.InterviewScore, error) {
	f.conversation, f.criteria, f.turns = conversationID, criteria, len(transcript)
	if f.err != nil {
		return nil, f.err
	}
	return &types.InterviewScore{InterviewID: uuid.New(), Technical: 80, Average: 80}, nil
}

func (f *fakeScorer) ScoreStored(_ context.Context, ref interview.TranscriptRef) (*types.InterviewScore, error) {
	f.ref = ref
	if f.err != nil {
		return nil, f.err
	}
	return &types.InterviewScore{InterviewID: uuid.New(), Average: 50}, nil
}

func interviewRouter(s TranscriptScorer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewInterviewHandler(logger.Nop(), s)
	r := gin.New()
	r.POST("/v1/interviews/webhook", h.Webhook)
	r.POST("/v1/interviews/:conversationId/score", h.Score)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func TestInterviewScore(t *testing.T) {
	s := &fakeScorer{}
	r := interviewRouter(s)

	rec := post(r, "/v1/interviews/conv-1/score", `{"transcript":[{"role":"agent","message":"hi","time_in_call_secs":1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if s.conversation != "conv-1" || s.turns != 1 || s.criteria != interview.DefaultCriteria() {
		t.Fatalf("scorer saw %+v", s)
	}

	rec = post(r, "/v1/interviews/conv-1/score", `{"transcript":[{"role":"user","message":"hi"}],"criteria":{"Technical":50,"Communication":20,"ProblemSolving":20,"English":10}}`)
	if rec.Code != http.StatusOK || s.criteria.Technical != 50 {
		t.Fatalf("custom criteria not used: %d %+v", rec.Code, s.criteria)
	}

	if rec := post(r, "/v1/interviews/conv-1/score", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing transcript status = %d", rec.Code)
	}

	s.err = errs.InvalidInput("interview.score", "no interview found for conversation conv-1")
	if rec := post(r, "/v1/interviews/conv-1/score", `{"transcript":[{"role":"user","message":"hi"}]}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown conversation status = %d", rec.Code)
	}
}

func TestInterviewWebhook(t *testing.T) {
	s := &fakeScorer{}
	r := interviewRouter(s)

	rec := post(r, "/v1/interviews/webhook", `{"container":"calls","blob_path":"c/conv-7.json","conversation_id":"conv-7","job_post_version":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if s.ref.BlobPath != "c/conv-7.json" || s.ref.JobPostVersion != 2 {
		t.Fatalf("ref = %+v", s.ref)
	}
	if rec := post(r, "/v1/interviews/webhook", `{"container":"calls"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d", rec.Code)
	}
}

type fakeResolver struct{ ref prompts.Ref }

func (f *fakeResolver) Resolve(_ context.Context, ref prompts.Ref, _ string, _ bool) prompts.ResolvedPrompt {
	f.ref = ref
	return prompts.ResolvedPrompt{Content: "body", ResolvedBy: prompts.ByLatestName, Name: ref.Name}
}

func TestPromptResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	res := &fakeResolver{}
	r := gin.New()
	r.GET("/v1/prompts/resolve", NewPromptHandler(res).Resolve)

	get := func(q string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/prompts/resolve"+q, nil))
		return rec
	}
	rec := get("?name=CVExtractionSystemInstructions&version=3")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"resolvedBy":"latest-by-name"`) {
		t.Fatalf("resolve = %d %s", rec.Code, rec.Body.String())
	}
	if res.ref.Version == nil || *res.ref.Version != 3 {
		t.Fatalf("version not passed: %+v", res.ref)
	}
	if rec := get(""); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty reference status = %d", rec.Code)
	}
	if rec := get("?name=x&version=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad version status = %d", rec.Code)
	}
}
