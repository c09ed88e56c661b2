package status

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/enums"
	"github.com/adsidev/catalogd/pkg/logger"
)

type productStore interface {
	VariantStatusCounts(ctx context.Context, productID uint) (total, completed, errored int64, err error)
	SetProductStatus(ctx context.Context, id uint, status enums.EntityStatus) error
	ReconcilableProductIDs(ctx context.Context) ([]uint, error)
}

type gammeStore interface {
	GammeByID(ctx context.Context, id uint) (*models.Gamme, error)
	GammesByStatus(ctx context.Context, status *enums.EntityStatus, category string) ([]models.Gamme, error)
	GammeCompletionCounts(ctx context.Context, gammeID uint) (totalProducts, withCompleted int64, err error)
	UnlinkMissingProducts(ctx context.Context, gammeID uint) (int64, error)
	SetGammeStatus(ctx context.Context, id uint, status enums.EntityStatus) error
}

// Store is the persistence surface the reconciler needs.
type Store interface {
	productStore
	gammeStore
}

// Reconciler applies the pure status rules to the store. It has two entry
// points per entity: reconcile-one after a child write, and reconcile-all
// as an idempotent end-of-run sweep.
type Reconciler struct {
	store Store
	log   *logger.Logger
}

func NewReconciler(store Store, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// ReconcileProduct recomputes one product's status from its variants.
func (r *Reconciler) ReconcileProduct(ctx context.Context, productID uint) error {
	total, completed, errored, err := r.store.VariantStatusCounts(ctx, productID)
	if err != nil {
		return err
	}
	next, apply := ProductStatusFor(total, completed, errored)
	if !apply {
		return nil
	}
	if err := r.store.SetProductStatus(ctx, productID, next); err != nil {
		return fmt.Errorf("applying status %s to product %d: %w", next, productID, err)
	}
	return nil
}

// ReconcileAll sweeps every product not already in error. Failed entities
// are collected, never abort the sweep.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	ids, err := r.store.ReconcilableProductIDs(ctx)
	if err != nil {
		return err
	}
	var errs error
	for _, id := range ids {
		if err := r.ReconcileProduct(ctx, id); err != nil {
			if r.log != nil {
				r.log.Error(r.log.WithField(ctx, "product_id", id), "product reconcile failed", err)
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// ReconcileGamme sweeps orphan membership rows first, then recomputes the
// gamme status from what remains.
func (r *Reconciler) ReconcileGamme(ctx context.Context, gammeID uint) error {
	if _, err := r.store.UnlinkMissingProducts(ctx, gammeID); err != nil {
		return err
	}

	gamme, err := r.store.GammeByID(ctx, gammeID)
	if err != nil {
		return err
	}

	total, withCompleted, err := r.store.GammeCompletionCounts(ctx, gammeID)
	if err != nil {
		return err
	}
	next, apply := GammeStatusFor(total, withCompleted, gamme.Status)
	if !apply {
		return nil
	}
	if next == gamme.Status {
		return nil
	}
	if err := r.store.SetGammeStatus(ctx, gammeID, next); err != nil {
		return fmt.Errorf("applying status %s to gamme %d: %w", next, gammeID, err)
	}
	return nil
}

// ReconcileAllGammes sweeps every gamme, optionally narrowed by category.
func (r *Reconciler) ReconcileAllGammes(ctx context.Context, category string) error {
	gammes, err := r.store.GammesByStatus(ctx, nil, category)
	if err != nil {
		return err
	}
	var errs error
	for _, gamme := range gammes {
		if err := r.ReconcileGamme(ctx, gamme.ID); err != nil {
			if r.log != nil {
				r.log.Error(r.log.WithField(ctx, "gamme_id", gamme.ID), "gamme reconcile failed", err)
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
