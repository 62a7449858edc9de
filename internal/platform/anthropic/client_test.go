package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/llm"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "test-key", BaseURL: url, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key test-key, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("expected anthropic-version %s, got %q", apiVersion, r.Header.Get("anthropic-version"))
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.MaxTokens != 100 {
			t.Errorf("expected max_tokens 100, got %d", req.MaxTokens)
		}
		if !strings.Contains(req.System, jsonInstruction) {
			t.Errorf("expected JSON instruction appended to system prompt, got %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"model":"test-model","content":[{"type":"text","text":"{\"a\":1}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	got, err := c.Complete(context.Background(), llm.Request{System: "be terse", User: "hello", MaxOutputTokens: 100, JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != llm.StatusComplete || got.Text != `{"a":1}` {
		t.Fatalf("unexpected completion: %+v", got)
	}
}

func TestCompleteMaxTokensIsTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"a\":"}],"stop_reason":"max_tokens"}`))
	}))
	defer server.Close()

	got, err := newTestClient(t, server.URL).Complete(context.Background(), llm.Request{User: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != llm.StatusTruncated {
		t.Fatalf("expected truncated, got %s", got.Status)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Complete(context.Background(), llm.Request{User: "x"})
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected API message in error, got %v", err)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL).Complete(context.Background(), llm.Request{User: "x"}); err == nil {
		t.Fatalf("expected error for empty content")
	}
}
