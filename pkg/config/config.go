package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the tool reads.
const EnvPrefix = "CATALOGD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Retry        RetryConfig
	Export       ExportConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CATALOGD_APP_ENV" default:"dev"`
	Port         string `envconfig:"CATALOGD_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"CATALOGD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATALOGD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"CATALOGD_DB_DRIVER" default:"sqlite"`
	// Path is the sqlite database file. The store is embedded and
	// single-writer; concurrent writers are not supported.
	Path string `envconfig:"CATALOGD_DB_PATH" default:"catalog_products.db"`
	// DSN selects a hosted postgres install instead of the embedded file.
	DSN string `envconfig:"CATALOGD_DB_DSN"`

	MaxOpenConns    int           `envconfig:"CATALOGD_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"CATALOGD_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"CATALOGD_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

func (db *DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case "sqlite":
		if db.Path == "" {
			return fmt.Errorf("CATALOGD_DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if db.DSN == "" {
			return fmt.Errorf("CATALOGD_DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db driver %q", db.Driver)
	}
	return nil
}

// RetryConfig carries the two independent retry dimensions: the data-retry
// budget and the connectivity probe bounds. The defaults match the constants
// the scrapers shipped with.
type RetryConfig struct {
	MaxDataRetries int           `envconfig:"CATALOGD_RETRY_MAX_DATA_RETRIES" default:"3"`
	ProbeInterval  time.Duration `envconfig:"CATALOGD_RETRY_PROBE_INTERVAL" default:"30s"`
	ProbeTimeout   time.Duration `envconfig:"CATALOGD_RETRY_PROBE_TIMEOUT" default:"10s"`
	ProbeMaxWait   time.Duration `envconfig:"CATALOGD_RETRY_PROBE_MAX_WAIT" default:"2m"`
}

type ExportConfig struct {
	OutputDir       string `envconfig:"CATALOGD_EXPORT_OUTPUT_DIR" default:"outputs"`
	SupplierConfig  string `envconfig:"CATALOGD_EXPORT_SUPPLIER_CONFIG" default:"csv_config.json"`
	DefaultSupplier string `envconfig:"CATALOGD_EXPORT_DEFAULT_SUPPLIER" default:"garnier"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CATALOGD_AUTO_MIGRATE" default:"false"`
}
