package controllers

import (
	"net/http"

	"github.com/adsidev/catalogd/api/responses"
	"github.com/adsidev/catalogd/api/validators"
	"github.com/adsidev/catalogd/internal/catalog"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
	"github.com/adsidev/catalogd/pkg/logger"
)

// CleanupRequest selects which slice of the catalog a bulk delete covers.
// Value carries the category, subcategory, title substring or SKU; IDs
// carries explicit product ids for the ids scope.
type CleanupRequest struct {
	Scope string `json:"scope" validate:"required,oneof=all category subcategory title sku ids"`
	Value string `json:"value,omitempty"`
	IDs   []uint `json:"ids,omitempty"`
}

func (req *CleanupRequest) validateScope() error {
	switch req.Scope {
	case "all":
		return nil
	case "ids":
		if len(req.IDs) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "ids scope requires at least one id")
		}
		return nil
	default:
		if req.Value == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "scope "+req.Scope+" requires a value")
		}
		return nil
	}
}

// CleanupPreview counts what a cleanup run with the same payload would
// delete, without touching anything.
func CleanupPreview(repo *catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req CleanupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := req.validateScope(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Value = validators.SanitizeString(req.Value, 255)

		var (
			count int64
			err   error
			unit  = "products"
		)
		switch req.Scope {
		case "all":
			count, err = repo.CountAll(ctx)
		case "category":
			count, err = repo.CountByCategory(ctx, req.Value)
		case "subcategory":
			count, err = repo.CountBySubcategory(ctx, req.Value)
		case "title":
			count, err = repo.CountByTitle(ctx, req.Value)
		case "sku":
			count, err = repo.CountVariantsBySKU(ctx, req.Value)
			unit = "variants"
		case "ids":
			count = int64(len(req.IDs))
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"scope": req.Scope, "count": count, "unit": unit})
	}
}

// Cleanup bulk-deletes the selected slice, cascading to variants, images
// and gamme links.
func Cleanup(repo *catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req CleanupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := req.validateScope(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Value = validators.SanitizeString(req.Value, 255)

		var (
			deleted int64
			err     error
			unit    = "products"
		)
		switch req.Scope {
		case "all":
			deleted, err = repo.DeleteAll(ctx)
		case "category":
			deleted, err = repo.DeleteByCategory(ctx, req.Value)
		case "subcategory":
			deleted, err = repo.DeleteBySubcategory(ctx, req.Value)
		case "title":
			deleted, err = repo.DeleteByTitle(ctx, req.Value)
		case "sku":
			deleted, err = repo.DeleteBySKU(ctx, req.Value)
			unit = "variants"
		case "ids":
			deleted, err = repo.DeleteByIDs(ctx, req.IDs)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"scope": req.Scope, "deleted": deleted, "unit": unit})
	}
}
