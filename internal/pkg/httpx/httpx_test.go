package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: &StatusError{Service: "openai", StatusCode: 429}, want: true},
		{name: "server error wrapped", err: fmt.Errorf("call: %w", &StatusError{StatusCode: 503}), want: true},
		{name: "bad request", err: &StatusError{StatusCode: 400}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryableError(tc.err); got != tc.want {
				t.Fatalf("IsRetryableError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	if got := RetryAfter(resp); got != 3*time.Second {
		t.Fatalf("RetryAfter = %v", got)
	}
	err := &StatusError{StatusCode: 429, RetryAfter: 30 * time.Second}
	if got := RetryAfterDuration(err, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("RetryAfterDuration should cap at max, got %v", got)
	}
	if got := RetryAfterDuration(fmt.Errorf("x"), 2*time.Second, 0); got != 2*time.Second {
		t.Fatalf("RetryAfterDuration fallback = %v", got)
	}
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); err == nil {
		t.Fatalf("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Sleep did not return promptly")
	}
}
