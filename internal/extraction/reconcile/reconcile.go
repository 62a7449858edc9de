// Package reconcile replaces a profile's extracted records with a new
// generation inside one transaction.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/data/aggregates"
	profilerepo "github.com/yungbote/cvextract/internal/data/repos/profile"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/schema"
	"github.com/yungbote/cvextract/internal/pkg/dbctx"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemInserted ItemStatus = "inserted"
	ItemSkipped  ItemStatus = "skipped"
	ItemFailed   ItemStatus = "failed"
)

// ItemOutcome reports what happened to one extracted item.
type ItemOutcome struct {
	Collection string
	Index      int
	Status     ItemStatus
	Err        error
}

type Input struct {
	ProfileID uuid.UUID
	FileID    uuid.UUID
	// ExtractionID identifies the extraction event; it marks the new
	// generation and scopes the Scoring rows.
	ExtractionID uuid.UUID
	Record       *schema.CVExtraction
}

type Result struct {
	ProfileID    uuid.UUID
	ExtractionID uuid.UUID
	Retired      int64
	Items        []ItemOutcome
}

// Count returns how many items ended with status.
func (r *Result) Count(status ItemStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

type Reconciler struct {
	runner   aggregates.TxRunner
	profiles profilerepo.ProfileRepo
	log      *logger.Logger
}

func New(runner aggregates.TxRunner, profiles profilerepo.ProfileRepo, log *logger.Logger) *Reconciler {
	return &Reconciler{
		runner:   runner,
		profiles: profiles,
		log:      log.With("service", "RecordReconciler"),
	}
}

// Reconcile runs ReconcileInTx in its own transaction.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) (*Result, error) {
	var res *Result
	err := aggregates.Write(ctx, r.runner, r.log, "reconcile", func(dbc dbctx.Context) error {
		var err error
		res, err = r.ReconcileInTx(dbc, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReconcileInTx locks the profile, applies the extracted attributes, retires
// the live generation and inserts the new one. dbc.Tx must be an open
// transaction; the caller commits.
func (r *Reconciler) ReconcileInTx(dbc dbctx.Context, in Input) (*Result, error) {
	const op = "reconcile"
	if dbc.Tx == nil {
		return nil, errs.New(errs.KindPersistence, op, "reconcile requires an open transaction", nil)
	}
	if in.Record == nil || in.Record.UserProfile == nil {
		return nil, errs.InvalidInput(op, "extraction record is required")
	}
	if in.ProfileID == uuid.Nil || in.ExtractionID == uuid.Nil {
		return nil, errs.InvalidInput(op, "profile id and extraction id are required")
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	tx := dbc.Tx

	p, err := r.profiles.LockByID(ctx, tx, in.ProfileID)
	if err != nil {
		return nil, errs.Persistence(op+".lock_profile", err)
	}
	if p == nil {
		return nil, errs.Persistence(op+".lock_profile", fmt.Errorf("profile %s: %w", in.ProfileID, errs.ErrSubjectNotFound))
	}

	if err := r.profiles.UpdateFields(ctx, tx, p, profileFieldValues(in.Record.UserProfile)); err != nil {
		return nil, errs.Persistence(op+".update_profile", err)
	}

	var fileID *uuid.UUID
	if in.FileID != uuid.Nil {
		id := in.FileID
		fileID = &id
	}
	if _, err := r.profiles.EnsureCandidate(ctx, tx, in.ProfileID, fileID); err != nil {
		return nil, errs.Persistence(op+".candidate", err)
	}

	retired, err := r.profiles.RetireGeneration(ctx, tx, in.ProfileID)
	if err != nil {
		return nil, errs.Persistence(op+".retire_generation", err)
	}
	if _, err := r.profiles.DeleteScoring(ctx, tx, in.ExtractionID); err != nil {
		return nil, errs.Persistence(op+".delete_scoring", err)
	}

	items, err := r.InsertGeneration(ctx, tx, in)
	if err != nil {
		return nil, errs.Persistence(op+".insert_generation", err)
	}

	res := &Result{
		ProfileID:    in.ProfileID,
		ExtractionID: in.ExtractionID,
		Retired:      retired,
		Items:        items,
	}
	r.log.Info("profile reconciled",
		"profile_id", in.ProfileID,
		"extraction_id", in.ExtractionID,
		"retired", retired,
		"inserted", res.Count(ItemInserted),
		"skipped", res.Count(ItemSkipped),
		"failed", res.Count(ItemFailed),
	)
	return res, nil
}

// InsertGeneration writes one row per extracted item, each in its own
// savepoint. Item failures are reported in the outcomes; only a cancelled
// context aborts the batch.
func (r *Reconciler) InsertGeneration(ctx context.Context, tx *gorm.DB, in Input) ([]ItemOutcome, error) {
	var out []ItemOutcome
	for _, batch := range generationBatches(in) {
		for i, item := range batch.items {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			outcome := ItemOutcome{Collection: batch.collection, Index: i}
			row, err := item()
			switch {
			case errors.Is(err, errEmptyItem):
				outcome.Status = ItemSkipped
			case err != nil:
				outcome.Status = ItemFailed
				outcome.Err = err
			default:
				if err := tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
					return sp.Create(row).Error
				}); err != nil {
					outcome.Status = ItemFailed
					outcome.Err = err
				} else {
					outcome.Status = ItemInserted
				}
			}
			if outcome.Status == ItemFailed {
				r.log.Warn("extracted item not saved",
					"collection", outcome.Collection,
					"index", outcome.Index,
					"error", outcome.Err,
				)
			}
			out = append(out, outcome)
		}
	}
	return out, nil
}
