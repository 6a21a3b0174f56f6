// Package config defines the top-level configuration for the oddsmirror
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ODDSMIRROR_* environment
// variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Engine   EngineConfig   `toml:"engine"`
	Mirror   MirrorConfig   `toml:"mirror"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds the upstream odds feed parameters.
type FeedConfig struct {
	GammaHost string `toml:"gamma_host"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for snapshot
// archival. Leave Bucket empty to disable archival entirely.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// EngineConfig holds the bonding-curve and pricing parameters.
type EngineConfig struct {
	StepSize       float64 `toml:"step_size"`
	Epsilon        float64 `toml:"epsilon"`
	FeeBps         int     `toml:"fee_bps"`
	LiquidityScale float64 `toml:"liquidity_scale"`
}

// MirrorConfig holds the freeze and stabilization parameters.
type MirrorConfig struct {
	SpikeThreshold float64  `toml:"spike_threshold"`
	StabilizeNeed  int      `toml:"stabilize_need"`
	Failsafe       duration `toml:"failsafe"`
}

// PipelineConfig holds the background loop parameters.
type PipelineConfig struct {
	Enabled              bool     `toml:"enabled"`
	PollInterval         duration `toml:"poll_interval"`
	BootstrapInterval    duration `toml:"bootstrap_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// ServerConfig holds HTTP server parameters. AdminToken guards the mutating
// admin endpoints; AdminTokenPath points at an encrypted secret file as an
// alternative to storing the token in plaintext.
type ServerConfig struct {
	Enabled            bool     `toml:"enabled"`
	Port               int      `toml:"port"`
	CORSOrigins        []string `toml:"cors_origins"`
	AdminToken         string   `toml:"admin_token"`
	AdminTokenPath     string   `toml:"admin_token_path"`
	AdminTokenPassword string   `toml:"admin_token_password"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "oddsmirror",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Engine: EngineConfig{
			StepSize:       0.01,
			Epsilon:        0.01,
			FeeBps:         200,
			LiquidityScale: 10_000,
		},
		Mirror: MirrorConfig{
			SpikeThreshold: 0.05,
			StabilizeNeed:  2,
			Failsafe:       duration{120 * time.Second},
		},
		Pipeline: PipelineConfig{
			Enabled:              true,
			PollInterval:         duration{60 * time.Second},
			BootstrapInterval:    duration{5 * time.Minute},
			ArchiveRetentionDays: 30,
			ArchiveCron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true, // HTTP API only
	"mirror": true, // background pipeline only
	"full":   true, // both
	"dev":    true, // both, on in-memory stores
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, mirror, full, dev)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Feed.GammaHost == "" {
		errs = append(errs, "feed: gamma_host must not be empty")
	}

	// Postgres and Redis are not used in dev mode.
	if strings.ToLower(c.Mode) != "dev" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 is optional; when a bucket is configured the region is required.
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when bucket is set")
	}

	if c.Engine.StepSize <= 0 || c.Engine.StepSize >= 1 {
		errs = append(errs, fmt.Sprintf("engine: step_size must be in (0,1), got %g", c.Engine.StepSize))
	}
	if c.Engine.Epsilon <= 0 {
		errs = append(errs, "engine: epsilon must be > 0")
	}
	if c.Engine.FeeBps < 0 || c.Engine.FeeBps >= 10_000 {
		errs = append(errs, fmt.Sprintf("engine: fee_bps must be in [0,10000), got %d", c.Engine.FeeBps))
	}
	if c.Engine.LiquidityScale <= 0 {
		errs = append(errs, "engine: liquidity_scale must be > 0")
	}

	if c.Mirror.SpikeThreshold <= 0 || c.Mirror.SpikeThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("mirror: spike_threshold must be in (0,1), got %g", c.Mirror.SpikeThreshold))
	}
	if c.Mirror.StabilizeNeed < 1 {
		errs = append(errs, "mirror: stabilize_need must be >= 1")
	}
	if c.Mirror.Failsafe.Duration <= 0 {
		errs = append(errs, "mirror: failsafe must be > 0")
	}

	if c.Pipeline.Enabled {
		if c.Pipeline.PollInterval.Duration <= 0 {
			errs = append(errs, "pipeline: poll_interval must be > 0")
		}
		if c.Pipeline.BootstrapInterval.Duration <= 0 {
			errs = append(errs, "pipeline: bootstrap_interval must be > 0")
		}
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.AdminTokenPath != "" && c.Server.AdminTokenPassword == "" {
			errs = append(errs, "server: admin_token_password is required when admin_token_path is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
