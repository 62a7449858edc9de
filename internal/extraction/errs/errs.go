// Package errs is the error taxonomy shared by the extraction components.
package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/llm"
)

// Kind standardizes failure semantics across extraction components.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindExtraction   Kind = "extraction"
	KindValidation   Kind = "validation"
	KindPersistence  Kind = "persistence"
)

var (
	// ErrSubjectNotFound is returned when the profile being reconciled does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrEmptyDocument is returned when no text could be produced from a document.
	ErrEmptyDocument = errors.New("document produced no text")
)

type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, op, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func InvalidInput(op, message string) error {
	return New(KindInvalidInput, op, message, nil)
}

// Extraction wraps the final model-call failure. Retryability follows the cause.
func Extraction(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindExtraction, Op: op, Cause: cause, Retryable: retryableModelError(cause)}
}

// retryableModelError treats upstream rejections (4xx other than 408/409/429)
// and refusals as permanent. Transport faults, deadlines, truncation and
// unparseable output may succeed on a later delivery.
func retryableModelError(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, llm.ErrRefused):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return true
}

func Validation(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindValidation, Op: op, Cause: cause}
}

// Persistence wraps a store failure and classifies whether re-running the
// whole unit of work may succeed.
func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var existing *Error
	if errors.As(cause, &existing) && existing.Kind == KindPersistence {
		return cause
	}
	return &Error{Kind: KindPersistence, Op: op, Cause: cause, Retryable: retryableStoreError(cause)}
}

func retryableStoreError(err error) bool {
	switch {
	case errors.Is(err, ErrSubjectNotFound), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return true // serialization/deadlock/lock_not_available
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection reset")
}

// KindOf extracts the kind when err carries one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Retryable
}
