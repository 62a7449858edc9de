package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/llm"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type step struct {
	comp *llm.Completion
	err  error
}

type scriptedCompleter struct {
	mu     sync.Mutex
	steps  []step
	calls  []llm.Request
	always *step
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.steps) == 0 {
		if s.always != nil {
			return s.always.comp, s.always.err
		}
		return nil, errors.New("script exhausted")
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.comp, st.err
}

func (s *scriptedCompleter) Model() string { return "fake-model" }

type sleepRecorder struct {
	durations []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.durations = append(r.durations, d)
	return nil
}

func ok(text string) step {
	return step{comp: &llm.Completion{Status: llm.StatusComplete, Text: text}}
}

func truncated() step {
	return step{comp: &llm.Completion{Status: llm.StatusTruncated, Text: `{"a":`}}
}

func fail(msg string) step {
	return step{err: errors.New(msg)}
}

func newTestClient(c llm.Completer, rec *sleepRecorder) *Client {
	return New(c, logger.Nop(), Config{}, WithSleeper(rec.sleep))
}

func TestCompleteJSONRetriesThenSucceeds(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{fail("timeout"), fail("503"), ok(`{"UserProfile":{}}`)}}
	rec := &sleepRecorder{}

	res, err := newTestClient(fc, rec).CompleteJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if res.Attempts != 3 || res.Model != "fake-model" {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.durations) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), rec.durations)
	}
	for i := range want {
		if rec.durations[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, rec.durations[i], want[i])
		}
	}
}

func TestCompleteJSONExhaustsAttempts(t *testing.T) {
	fc := &scriptedCompleter{always: &step{err: errors.New("boom")}}
	rec := &sleepRecorder{}

	_, err := newTestClient(fc, rec).CompleteJSON(context.Background(), "sys", "user")
	if !errs.Is(err, errs.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("last cause not preserved: %v", err)
	}
	if len(fc.calls) != DefaultMaxAttempts {
		t.Fatalf("expected %d calls, got %d", DefaultMaxAttempts, len(fc.calls))
	}
	if len(rec.durations) != DefaultMaxAttempts-1 {
		t.Fatalf("no sleep expected after the last attempt, got %v", rec.durations)
	}
}

func TestCompleteJSONExhaustedRetryability(t *testing.T) {
	tests := []struct {
		name string
		last step
		want bool
	}{
		{name: "invalid api key", last: step{err: &httpx.StatusError{Service: "openai", StatusCode: 401}}, want: false},
		{name: "context length exceeded", last: step{err: &httpx.StatusError{Service: "openai", StatusCode: 400, Body: "context_length_exceeded"}}, want: false},
		{name: "refused", last: step{err: llm.ErrRefused}, want: false},
		{name: "overloaded", last: step{err: &httpx.StatusError{Service: "anthropic", StatusCode: 529}}, want: true},
		{name: "rate limited", last: step{err: &httpx.StatusError{Service: "openai", StatusCode: 429}}, want: true},
		{name: "truncated", last: truncated(), want: true},
		{name: "not json", last: ok("sorry, no"), want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fc := &scriptedCompleter{always: &tc.last}
			_, err := newTestClient(fc, &sleepRecorder{}).CompleteJSON(context.Background(), "s", "u")
			if !errs.Is(err, errs.KindExtraction) {
				t.Fatalf("expected extraction error, got %v", err)
			}
			if got := errs.IsRetryable(err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v (err %v)", got, tc.want, err)
			}
		})
	}
}

func TestCompleteJSONTruncationDoublesBudgetOnce(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{truncated(), ok(`{"ok":true}`)}}
	rec := &sleepRecorder{}

	res, err := newTestClient(fc, rec).CompleteJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if res.Attempts != 1 {
		t.Fatalf("truncation retry must stay inside the attempt, got %d attempts", res.Attempts)
	}
	if len(fc.calls) != 2 || fc.calls[0].MaxOutputTokens != 4000 || fc.calls[1].MaxOutputTokens != 8000 {
		t.Fatalf("unexpected budgets: %+v", fc.calls)
	}
	if len(rec.durations) != 0 {
		t.Fatalf("no backoff expected, got %v", rec.durations)
	}
}

func TestCompleteJSONTruncatedTwiceFailsAttempt(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{truncated(), truncated(), ok(`{"ok":true}`)}}
	rec := &sleepRecorder{}

	res, err := newTestClient(fc, rec).CompleteJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if res.Attempts != 2 {
		t.Fatalf("expected second attempt to succeed, got %d", res.Attempts)
	}
	if fc.calls[2].MaxOutputTokens != 4000 {
		t.Fatalf("a new attempt starts from the base budget, got %d", fc.calls[2].MaxOutputTokens)
	}
}

func TestCompleteJSONCeilingCapsEscalation(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{truncated(), ok(`{}`)}}
	rec := &sleepRecorder{}
	c := New(fc, logger.Nop(), Config{MaxOutputTokens: 3000, MaxOutputTokensCeiling: 5000}, WithSleeper(rec.sleep))

	if _, err := c.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if fc.calls[1].MaxOutputTokens != 5000 {
		t.Fatalf("expected escalation capped at 5000, got %d", fc.calls[1].MaxOutputTokens)
	}
}

func TestCompleteJSONInvalidJSONCountsAsFailure(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{ok("not json"), ok("```json\n{\"a\": 1}\n```")}}
	rec := &sleepRecorder{}

	res, err := newTestClient(fc, rec).CompleteJSON(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if res.Attempts != 2 || len(rec.durations) != 1 {
		t.Fatalf("expected one failed attempt, got attempts=%d sleeps=%v", res.Attempts, rec.durations)
	}
	if res.Data["a"] == nil {
		t.Fatalf("fenced JSON not parsed: %+v", res.Data)
	}
}

func TestCompleteJSONStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fc := &scriptedCompleter{always: &step{err: errors.New("slow")}}
	sleeps := 0
	c := New(fc, logger.Nop(), Config{MaxAttempts: 5}, WithSleeper(func(ctx context.Context, d time.Duration) error {
		sleeps++
		cancel()
		return ctx.Err()
	}))

	_, err := c.CompleteJSON(ctx, "s", "u")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if errs.IsRetryable(err) {
		t.Fatalf("canceled extraction must not be retryable")
	}
	if len(fc.calls) != 1 || sleeps != 1 {
		t.Fatalf("expected to stop after first backoff, calls=%d sleeps=%d", len(fc.calls), sleeps)
	}
}

func TestExtractInjectsDocument(t *testing.T) {
	fc := &scriptedCompleter{steps: []step{ok(`{}`)}}
	rec := &sleepRecorder{}

	if _, err := newTestClient(fc, rec).Extract(context.Background(), "Jane Doe CV", "", "rules here"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	req := fc.calls[0]
	if !req.JSON || !strings.Contains(req.User, "Jane Doe CV") || !strings.Contains(req.User, "rules here") {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```"},
		{in: "```json\n{\"a\":1}\n```"},
		{in: "```JSON\n{\"a\":1}\n```"},
		{in: "```jsonc\r\n{\"a\":1}\r\n```"},
		{in: "```json {\"a\":1} ```"},
		{in: `[1,2]`, wantErr: true},
		{in: `null`, wantErr: true},
		{in: ``, wantErr: true},
		{in: `{"a":1} {"b":2}`, wantErr: true},
	}
	for _, tc := range tests {
		_, err := ParseObject(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseObject(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}
