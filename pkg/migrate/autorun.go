package migrate

import (
	"context"
	"fmt"

	"github.com/adsidev/catalogd/pkg/config"
	"github.com/adsidev/catalogd/pkg/db"
	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/logger"
)

// MaybeRunDev bootstraps the schema automatically when the app runs in dev
// mode with the feature flag enabled. The embedded sqlite store uses the
// goose SQL; postgres installs use GORM AutoMigrate since the shipped DDL
// is sqlite-form.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if !cfg.DB.IsSQLite() {
		logg.Info(ctx, "running GORM AutoMigrate (dev auto-run, postgres)")
		return client.DB().AutoMigrate(
			&models.Product{},
			&models.Variant{},
			&models.Image{},
			&models.Gamme{},
			&models.GammeProduct{},
		)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DialectFor(cfg.DB.Driver), DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
