package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adsidev/catalogd/api/routes"
	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export"
	"github.com/adsidev/catalogd/internal/export/exportcfg"
	"github.com/adsidev/catalogd/internal/status"
	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/db"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
	"github.com/adsidev/catalogd/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	resolver, err := exportcfg.NewResolver(cfg.Export.SupplierConfig)
	if err != nil {
		logg.Error(context.Background(), "failed to load supplier config", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	catalogMetrics := metrics.NewCatalogMetrics(registry)

	repo := catalog.NewRepository(dbClient.DB(), cfg.Retry.MaxDataRetries)
	reconciler := status.NewReconciler(repo, logg)
	exporter := export.NewCSVExporter(repo, resolver, logg, catalogMetrics, cfg.Export.OutputDir)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting admin api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, repo, reconciler, exporter, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
