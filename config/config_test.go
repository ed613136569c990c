package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankboard/adapters/sqlx"
	"rankboard/core"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, AdapterMemory, cfg.Storage.Adapter)
	assert.Equal(t, core.DefaultRegistryKey, cfg.Ranking.RegistryKey)
	assert.True(t, cfg.Ranking.AsyncEvents)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RANKBOARD_ENV", "staging")
	t.Setenv("RANKBOARD_SERVER_ADDR", ":9999")
	t.Setenv("RANKBOARD_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("RANKBOARD_STORAGE_ADAPTER", "redis")
	t.Setenv("RANKBOARD_REDIS_ADDR", "cache:6379")
	t.Setenv("RANKBOARD_REDIS_DB", "2")
	t.Setenv("RANKBOARD_REGISTRY_KEY", "boards")
	t.Setenv("RANKBOARD_ASYNC_EVENTS", "false")
	t.Setenv("RANKBOARD_SECURITY_API_KEYS", "k1, k2")
	t.Setenv("RANKBOARD_LOG_ATTRIBUTES", "service=rankboard,region=eu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, AdapterRedis, cfg.Storage.Adapter)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "boards", cfg.Ranking.RegistryKey)
	assert.False(t, cfg.Ranking.AsyncEvents)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys)
	assert.Equal(t, map[string]string{"service": "rankboard", "region": "eu"}, cfg.Logging.Attributes)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("RANKBOARD_STORAGE_ADAPTER=file\nRANKBOARD_STORAGE_FILE_PATH=/tmp/boards.json\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("RANKBOARD_STORAGE_ADAPTER")
		_ = os.Unsetenv("RANKBOARD_STORAGE_FILE_PATH")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AdapterFile, cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/boards.json", cfg.Storage.File.Path)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RANKBOARD_SERVER_READ_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANKBOARD_SERVER_READ_TIMEOUT")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rankboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"environment": "testing",
		"server": {"address": ":9090"},
		"storage": {"adapter": "sql", "sql": {"driver": "sqlite", "dsn": "file::memory:"}},
		"ranking": {"registry_key": "ladders"}
	}`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, AdapterSQL, cfg.Storage.Adapter)
	assert.Equal(t, sqlx.DriverSQLite, cfg.Storage.SQL.Driver)
	assert.Equal(t, "ladders", cfg.Ranking.RegistryKey)
	// untouched defaults survive
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile("")
	assert.Error(t, err)

	yaml := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yaml, []byte("a: b"), 0o600))
	_, err = LoadFromFile(yaml)
	assert.ErrorContains(t, err, ".json")

	_, err = LoadFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "not accessible")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o600))
	_, err = LoadFromFile(broken)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "empty environment",
			mutate:  func(c *Config) { c.Environment = "" },
			wantErr: "environment cannot be empty",
		},
		{
			name:    "unknown adapter",
			mutate:  func(c *Config) { c.Storage.Adapter = "cassandra" },
			wantErr: "adapter must be one of",
		},
		{
			name: "file adapter without path",
			mutate: func(c *Config) {
				c.Storage.Adapter = AdapterFile
				c.Storage.File.Path = ""
			},
			wantErr: "file config",
		},
		{
			name: "redis adapter without addr",
			mutate: func(c *Config) {
				c.Storage.Adapter = AdapterRedis
				c.Storage.Redis.Addr = ""
			},
			wantErr: "redis config",
		},
		{
			name: "sql adapter with unknown driver",
			mutate: func(c *Config) {
				c.Storage.Adapter = AdapterSQL
				c.Storage.SQL.Driver = "oracle"
			},
			wantErr: "unsupported driver",
		},
		{
			name:    "blank registry key",
			mutate:  func(c *Config) { c.Ranking.RegistryKey = "  " },
			wantErr: "registry_key",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "level must be one of",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Server.WriteTimeout = 0 },
			wantErr: "write_timeout must be positive",
		},
		{
			name: "rate limit without budget",
			mutate: func(c *Config) {
				c.Security.EnableRateLimit = true
				c.Security.RateLimit.RequestsPerMinute = 0
			},
			wantErr: "requests_per_minute",
		},
		{
			name:    "blank api key",
			mutate:  func(c *Config) { c.Security.APIKeys = []string{"ok", " "} },
			wantErr: "api_keys[1] is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.SQL.DSN = "postgres://user:hunter2@db/rankboard"
	cfg.Storage.Redis.Password = "s3cret"
	cfg.Security.APIKeys = []string{"key-123"}

	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "s3cret")
	assert.NotContains(t, s, "key-123")
	assert.Contains(t, s, "[REDACTED]")

	// the receiver is left untouched
	assert.Equal(t, []string{"key-123"}, cfg.Security.APIKeys)
}
