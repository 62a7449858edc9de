package pipeline

import (
	"errors"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/extraction/reconcile"
	"github.com/yungbote/cvextract/internal/platform/gcp"
)

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func countStatus(items []reconcile.ItemOutcome, status reconcile.ItemStatus) int {
	n := 0
	for _, it := range items {
		if it.Status == status {
			n++
		}
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v >= 1 {
			return v
		}
	}
	return 0
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func isNotFound(err error) bool {
	return errors.Is(err, gcp.ErrObjectNotFound)
}
