package controllers

import (
	"net/http"

	"github.com/adsidev/catalogd/api/responses"
	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/status"
	"github.com/adsidev/catalogd/pkg/logger"
)

// Reconcile sweeps derived statuses across products and gammes. The
// category query parameter narrows the gamme sweep.
func Reconcile(repo *catalog.Repository, reconciler *status.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		category := r.URL.Query().Get("category")

		if err := reconciler.ReconcileAll(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := reconciler.ReconcileAllGammes(ctx, category); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		stats, err := repo.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
