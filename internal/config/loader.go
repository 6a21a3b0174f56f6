package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSMIRROR_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ODDSMIRROR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.GammaHost, "ODDSMIRROR_FEED_GAMMA_HOST")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ODDSMIRROR_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ODDSMIRROR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ODDSMIRROR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ODDSMIRROR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ODDSMIRROR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ODDSMIRROR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ODDSMIRROR_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ODDSMIRROR_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ODDSMIRROR_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ODDSMIRROR_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ODDSMIRROR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSMIRROR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSMIRROR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSMIRROR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ODDSMIRROR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ODDSMIRROR_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ODDSMIRROR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ODDSMIRROR_S3_REGION")
	setStr(&cfg.S3.Bucket, "ODDSMIRROR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ODDSMIRROR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ODDSMIRROR_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ODDSMIRROR_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ODDSMIRROR_S3_FORCE_PATH_STYLE")

	// ── Engine ──
	setFloat64(&cfg.Engine.StepSize, "ODDSMIRROR_ENGINE_STEP_SIZE")
	setFloat64(&cfg.Engine.Epsilon, "ODDSMIRROR_ENGINE_EPSILON")
	setInt(&cfg.Engine.FeeBps, "ODDSMIRROR_ENGINE_FEE_BPS")
	setFloat64(&cfg.Engine.LiquidityScale, "ODDSMIRROR_ENGINE_LIQUIDITY_SCALE")

	// ── Mirror ──
	setFloat64(&cfg.Mirror.SpikeThreshold, "ODDSMIRROR_MIRROR_SPIKE_THRESHOLD")
	setInt(&cfg.Mirror.StabilizeNeed, "ODDSMIRROR_MIRROR_STABILIZE_NEED")
	setDuration(&cfg.Mirror.Failsafe, "ODDSMIRROR_MIRROR_FAILSAFE")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "ODDSMIRROR_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.PollInterval, "ODDSMIRROR_PIPELINE_POLL_INTERVAL")
	setDuration(&cfg.Pipeline.BootstrapInterval, "ODDSMIRROR_PIPELINE_BOOTSTRAP_INTERVAL")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "ODDSMIRROR_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Pipeline.ArchiveCron, "ODDSMIRROR_PIPELINE_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ODDSMIRROR_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ODDSMIRROR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSMIRROR_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AdminToken, "ODDSMIRROR_SERVER_ADMIN_TOKEN")
	setStr(&cfg.Server.AdminTokenPath, "ODDSMIRROR_SERVER_ADMIN_TOKEN_PATH")
	setStr(&cfg.Server.AdminTokenPassword, "ODDSMIRROR_SERVER_ADMIN_TOKEN_PASSWORD")

	// ── Top-level ──
	setStr(&cfg.Mode, "ODDSMIRROR_MODE")
	setStr(&cfg.LogLevel, "ODDSMIRROR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
