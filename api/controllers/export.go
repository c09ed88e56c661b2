package controllers

import (
	"net/http"

	"github.com/adsidev/catalogd/api/responses"
	"github.com/adsidev/catalogd/api/validators"
	"github.com/adsidev/catalogd/internal/export"
	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/logger"
)

type ExportRequest struct {
	Supplier      string   `json:"supplier,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// RunExport triggers one CSV export pass and returns its report.
func RunExport(exporter *export.CSVExporter, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req ExportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Supplier == "" {
			req.Supplier = cfg.Export.DefaultSupplier
		}

		report, err := exporter.Export(ctx, export.Options{
			Supplier:      req.Supplier,
			Categories:    req.Categories,
			Subcategories: req.Subcategories,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
