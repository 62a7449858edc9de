package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errs.New(errs.KindPersistence, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// Write runs fn in a transaction and maps any failure to a persistence error
// tagged with op. Errors already carrying a kind pass through unchanged.
func Write(ctx context.Context, runner TxRunner, log *logger.Logger, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := runner.InTx(ctx, fn)
	if err == nil {
		if log != nil {
			log.Debug("aggregate write committed", "op", op, "duration", time.Since(start).String())
		}
		return nil
	}
	var kinded *errs.Error
	if !errors.As(err, &kinded) {
		err = errs.Persistence(op, err)
	}
	if log != nil {
		log.Warn("aggregate write rolled back",
			"op", op,
			"duration", time.Since(start).String(),
			"retryable", errs.IsRetryable(err),
			"error", err,
		)
	}
	return err
}
