package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/llm"
)

func TestPersistenceRetryable(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  bool
	}{
		{name: "serialization failure", cause: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", cause: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "unique violation", cause: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "missing subject", cause: ErrSubjectNotFound, want: false},
		{name: "deadline", cause: context.DeadlineExceeded, want: true},
		{name: "sqlite busy", cause: errors.New("database is locked"), want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Persistence("reconcile", tc.cause)
			if !Is(err, KindPersistence) {
				t.Fatalf("expected persistence kind, got %q", KindOf(err))
			}
			if got := IsRetryable(err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
			if !errors.Is(err, tc.cause) {
				t.Fatalf("cause not preserved")
			}
		})
	}
}

func TestExtractionRetryableFollowsCause(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  bool
	}{
		{name: "transport", cause: errors.New("connection reset by peer"), want: true},
		{name: "deadline", cause: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", cause: context.Canceled, want: false},
		{name: "rate limited", cause: &httpx.StatusError{Service: "openai", StatusCode: 429}, want: true},
		{name: "request timeout", cause: &httpx.StatusError{Service: "openai", StatusCode: 408}, want: true},
		{name: "server error", cause: fmt.Errorf("complete: %w", &httpx.StatusError{Service: "openai", StatusCode: 503}), want: true},
		{name: "bad api key", cause: &httpx.StatusError{Service: "openai", StatusCode: 401}, want: false},
		{name: "forbidden", cause: &httpx.StatusError{Service: "anthropic", StatusCode: 403}, want: false},
		{name: "context length", cause: &httpx.StatusError{Service: "openai", StatusCode: 400, Body: "context_length_exceeded"}, want: false},
		{name: "refusal", cause: fmt.Errorf("%w: not allowed", llm.ErrRefused), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Extraction("extraction.complete", tc.cause)
			if !Is(err, KindExtraction) {
				t.Fatalf("expected extraction kind, got %q", KindOf(err))
			}
			if got := IsRetryable(err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPersistenceDoesNotDoubleWrap(t *testing.T) {
	inner := Persistence("lock", ErrSubjectNotFound)
	outer := Persistence("reconcile", fmt.Errorf("tx: %w", inner))
	var e *Error
	if !errors.As(outer, &e) || e.Op != "lock" {
		t.Fatalf("expected inner persistence error to surface, got %v", outer)
	}
}

func TestKinds(t *testing.T) {
	if !Is(InvalidInput("pipeline", "missing user id"), KindInvalidInput) {
		t.Fatalf("invalid input kind lost")
	}
	if IsRetryable(Validation("schema", errors.New("bad"))) {
		t.Fatalf("validation errors are never retryable")
	}
	if !IsRetryable(Extraction("extract", errors.New("timeout"))) {
		t.Fatalf("extraction errors are retryable by default")
	}
	if IsRetryable(Extraction("extract", context.Canceled)) {
		t.Fatalf("canceled extraction must not be retryable")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no kind")
	}
	if got := InvalidInput("pipeline", "missing user id").Error(); got != "pipeline: missing user id (invalid_input)" {
		t.Fatalf("Error() = %q", got)
	}
}
