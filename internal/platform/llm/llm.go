// Package llm defines the single-shot model capability the extraction
// components depend on. Retries live with the caller.
package llm

import (
	"context"
	"errors"
)

// Status reports whether the model finished or hit its output budget.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusTruncated Status = "truncated"
)

// ErrRefused is returned when the model declines to answer.
var ErrRefused = errors.New("model refused")

type Request struct {
	System          string
	User            string
	MaxOutputTokens int
	// JSON asks the provider for a single JSON object when it supports it.
	JSON bool
}

type Completion struct {
	Status Status
	Text   string
	Model  string
}

type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
}
