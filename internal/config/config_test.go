package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
environment: production
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://admin.example.com"]

data:
  source: postgres

database:
  url: "postgres://localhost/vouchers?sslmode=disable"

auth:
  jwt_secret: "s3cret"
  token_ttl: 2h

storage:
  type: "local"
  local_path: "./test-data"

worker:
  schedule: "*/5 * * * *"
  lock_ttl: 90s

delivery:
  templates:
    sms: "Your code is {{ voucher.code }}"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, SourcePostgres, cfg.Data.Source)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "./test-data", cfg.Storage.LocalPath)
	assert.Equal(t, "*/5 * * * *", cfg.Worker.Schedule)
	assert.Equal(t, 90*time.Second, cfg.Worker.LockTTL)
	assert.Equal(t, "Your code is {{ voucher.code }}", cfg.Delivery.Templates.SMS)
	assert.False(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("{}"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, SourceMemory, cfg.Data.Source)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "viewer", cfg.Auth.DefaultRole)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "voucher-logs", cfg.Events.Topic)
	assert.Equal(t, "@every 1m", cfg.Worker.Schedule)
	assert.Equal(t, 30*time.Second, cfg.Console.StaleTime)
	assert.Equal(t, "memory", cfg.Console.CacheBackend)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0644)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://from-file"

	err := applyEnv(context.Background(), cfg, envconfig.MapLookuper(map[string]string{
		"DATABASE_URL":    "postgres://from-env",
		"DATA_SOURCE":     "postgres",
		"JWT_TTL":         "45m",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
		"REDIS_ADDR":      "localhost:6379",
		"WORKER_LOCK_TTL": "10m",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-env", cfg.Database.URL)
	assert.Equal(t, SourcePostgres, cfg.Data.Source)
	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Worker.LockTTL)
	// untouched values keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "voucher-logs", cfg.Events.Topic)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Data.Source = SourcePostgres }, "database.url"},
		{"unknown source", func(c *Config) { c.Data.Source = "sqlite" }, "data.source"},
		{"production without secret", func(c *Config) { c.Environment = "production" }, "jwt_secret"},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, "s3_bucket"},
		{"redis cache without addr", func(c *Config) { c.Console.CacheBackend = "redis" }, "redis.addr"},
		{"twilio without sender", func(c *Config) { c.Delivery.Twilio.AccountSID = "AC1" }, "twilio.from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
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
