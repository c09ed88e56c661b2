package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export"
	"github.com/adsidev/catalogd/internal/export/exportcfg"
	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/db"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
	"github.com/adsidev/catalogd/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "export"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	supplier := flag.String("supplier", "", "supplier to export (defaults to configured default)")
	categories := flag.String("categories", "", "comma-separated category filter")
	subcategories := flag.String("subcategories", "", "comma-separated subcategory filter")
	out := flag.String("out", "", "output file path (defaults to an auto-named file)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "export",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	resolver, err := exportcfg.NewResolver(cfg.Export.SupplierConfig)
	if err != nil {
		logg.Error(ctx, "failed to load supplier config", err)
		os.Exit(1)
	}

	if *supplier == "" {
		*supplier = cfg.Export.DefaultSupplier
	}

	repo := catalog.NewRepository(dbClient.DB(), cfg.Retry.MaxDataRetries)
	exporter := export.NewCSVExporter(repo, resolver, logg, metrics.NewCatalogMetrics(nil), cfg.Export.OutputDir)

	report, err := exporter.Export(ctx, export.Options{
		Supplier:      *supplier,
		Categories:    splitList(*categories),
		Subcategories: splitList(*subcategories),
		OutputPath:    *out,
	})
	if err != nil {
		logg.Error(logg.WithSupplier(ctx, *supplier), "export failed", err)
		os.Exit(1)
	}

	encoded, _ := json.Marshal(report)
	fmt.Println(string(encoded))
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
