package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/reclaim/internal/impact"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Reclaim"`
		Port     int    `envconfig:"PORT" default:"8080"`
		OrgScope string `envconfig:"APP_ORG_SCOPE" default:"default"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"json"`
	}

	Store struct {
		Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"reclaim"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`
		Issuer    string `envconfig:"AUTH_JWT_ISSUER" default:""`
	}

	Blob struct {
		Driver             string `envconfig:"BLOB_DRIVER" default:"fs"`
		Dir                string `envconfig:"BLOB_DIR" default:"./data/blobs"`
		GCSBucket          string `envconfig:"BLOB_GCS_BUCKET"`
		GCSCredentialsJSON string `envconfig:"BLOB_GCS_CREDENTIALS_JSON"`
	}

	Impact struct {
		CO2ForReused   bool `envconfig:"IMPACT_CO2_FOR_REUSED" default:"false"`
		CO2ForResold   bool `envconfig:"IMPACT_CO2_FOR_RESOLD" default:"true"`
		CO2ForScrapped bool `envconfig:"IMPACT_CO2_FOR_SCRAPPED" default:"false"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) Policy() impact.Policy {
	return impact.Policy{
		CO2ForReused:   c.Impact.CO2ForReused,
		CO2ForResold:   c.Impact.CO2ForResold,
		CO2ForScrapped: c.Impact.CO2ForScrapped,
	}
}

func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Blob.Driver {
	case "fs":
	case "gcs":
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("BLOB_GCS_BUCKET is required when BLOB_DRIVER=gcs")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}

	if strings.TrimSpace(c.App.OrgScope) == "" {
		return fmt.Errorf("APP_ORG_SCOPE must not be empty")
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
