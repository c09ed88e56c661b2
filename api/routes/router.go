package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adsidev/catalogd/api/controllers"
	"github.com/adsidev/catalogd/api/middleware"
	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export"
	"github.com/adsidev/catalogd/internal/status"
	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/logger"
)

// NewRouter wires the admin surface: health probes, Prometheus metrics and
// the catalog maintenance endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db controllers.Pinger,
	repo *catalog.Repository,
	reconciler *status.Reconciler,
	exporter *export.CSVExporter,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, db))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", controllers.CatalogStats(repo, logg))
		r.Get("/categories", controllers.CatalogCategories(repo, logg))
		r.Get("/subcategories", controllers.CatalogSubcategories(repo, logg))

		r.Post("/cleanup/preview", controllers.CleanupPreview(repo, logg))
		r.Post("/cleanup", controllers.Cleanup(repo, logg))

		r.Post("/export", controllers.RunExport(exporter, cfg, logg))
		r.Post("/reconcile", controllers.Reconcile(repo, reconciler, logg))
	})

	return r
}
