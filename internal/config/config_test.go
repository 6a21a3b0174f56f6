package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Engine.StepSize = 0
	cfg.Mirror.SpikeThreshold = 2
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown mode")
	assert.ErrorContains(t, err, "step_size")
	assert.ErrorContains(t, err, "spike_threshold")
	assert.ErrorContains(t, err, "port")
}

func TestValidate_DevModeSkipsStores(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dev"
	cfg.Postgres = PostgresConfig{}
	cfg.Redis = RedisConfig{}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_DSNReplacesHostFields(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Host = ""
	cfg.Postgres.Port = 0
	cfg.Postgres.Database = ""

	require.Error(t, cfg.Validate())

	cfg.Postgres.DSN = "postgres://u:p@db:5432/oddsmirror"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_S3RegionRequiredWithBucket(t *testing.T) {
	cfg := Defaults()
	cfg.S3.Bucket = "archives"
	cfg.S3.Region = ""

	err := cfg.Validate()
	assert.ErrorContains(t, err, "s3: region")
}

func TestValidate_AdminTokenPathNeedsPassword(t *testing.T) {
	cfg := Defaults()
	cfg.Server.AdminTokenPath = "/etc/oddsmirror/admin.json"

	err := cfg.Validate()
	assert.ErrorContains(t, err, "admin_token_password")
}

func TestLoad_TOMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "mirror"
log_level = "debug"

[engine]
fee_bps = 150

[mirror]
failsafe = "90s"

[pipeline]
poll_interval = "30s"

[server]
cors_origins = ["https://app.example.com"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mirror", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 150, cfg.Engine.FeeBps)
	assert.Equal(t, 90*time.Second, cfg.Mirror.Failsafe.Duration)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.PollInterval.Duration)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.01, cfg.Engine.StepSize)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverridesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[redis]
addr = "fromfile:6379"
`), 0o600))

	t.Setenv("ODDSMIRROR_REDIS_ADDR", "fromenv:6379")
	t.Setenv("ODDSMIRROR_ENGINE_FEE_BPS", "300")
	t.Setenv("ODDSMIRROR_PIPELINE_POLL_INTERVAL", "15s")
	t.Setenv("ODDSMIRROR_SERVER_CORS_ORIGINS", "https://a.com, https://b.com")
	t.Setenv("ODDSMIRROR_POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fromenv:6379", cfg.Redis.Addr)
	assert.Equal(t, 300, cfg.Engine.FeeBps)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.PollInterval.Duration)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "pg-secret"
	cfg.Redis.Password = "redis-secret"
	cfg.S3.AccessKey = "AKIA123"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Server.AdminToken = "admin-token"
	cfg.Server.CORSOrigins = []string{"https://a.com"}

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.S3.AccessKey)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Server.AdminToken)

	// Empty fields stay empty rather than advertising a redaction.
	assert.Empty(t, red.Postgres.DSN)

	// The original is untouched, including through the copied slice.
	assert.Equal(t, "pg-secret", cfg.Postgres.Password)
	red.Server.CORSOrigins[0] = "mutated"
	assert.Equal(t, "https://a.com", cfg.Server.CORSOrigins[0])
}
