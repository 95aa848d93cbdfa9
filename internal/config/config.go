package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend selects where pending and canonical transactions are stored.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"ledgerflow"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
		// OwnerID is the ledger owner the TUI operates on.
		OwnerID string `envconfig:"OWNER_ID"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgerflow"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret   string `envconfig:"AUTH_JWT_SECRET"`
		Disabled bool   `envconfig:"AUTH_DISABLED" default:"false"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Ingest struct {
		Backend         Backend       `envconfig:"STORAGE_BACKEND" default:"postgres"`
		MaxErrors       int           `envconfig:"INGEST_MAX_ERRORS" default:"100"`
		Concurrency     int           `envconfig:"INGEST_CONCURRENCY" default:"4"`
		BatchTimeout    time.Duration `envconfig:"BATCH_TIMEOUT" default:"2m"`
		RejectionPolicy string        `envconfig:"REJECTION_POLICY" default:"reoffer"`
	}

	Scan struct {
		Interval       time.Duration `envconfig:"SCAN_INTERVAL" default:"10m"`
		BaseURL        string        `envconfig:"SCAN_BASE_URL" default:"http://localhost:8001"`
		Owners         []string      `envconfig:"SCAN_OWNERS"`
		RequestTimeout time.Duration `envconfig:"SCAN_REQUEST_TIMEOUT" default:"30s"`
		Token          string        `envconfig:"SCAN_TOKEN"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) validate() error {
	switch c.Ingest.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Ingest.Backend)
	}

	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("ingest concurrency must be at least 1, got %d", c.Ingest.Concurrency)
	}

	return nil
}

// ValidateAuth is checked only by commands that serve HTTP.
func (c *Config) ValidateAuth() error {
	if !c.Auth.Disabled && c.Auth.Secret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required unless AUTH_DISABLED is set")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
