package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Data sources.
const (
	SourcePostgres = "postgres"
	SourceMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Environment string         `yaml:"environment" env:"APP_ENV"`
	LogLevel    string         `yaml:"log_level" env:"LOG_LEVEL"`
	Server      ServerConfig   `yaml:"server"`
	Data        DataConfig     `yaml:"data"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Auth        AuthConfig     `yaml:"auth"`
	Storage     StorageConfig  `yaml:"storage"`
	Delivery    DeliveryConfig `yaml:"delivery"`
	Events      EventsConfig   `yaml:"events"`
	Worker      WorkerConfig   `yaml:"worker"`
	Console     ConsoleConfig  `yaml:"console"`
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port" env:"SERVER_PORT"`
	Host           string        `yaml:"host" env:"SERVER_HOST"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
}

// GetHost returns the server host, listening on all interfaces in containers.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DataConfig selects where the backend keeps its records.
type DataConfig struct {
	// Source is "postgres" or "memory" (seeded mock data).
	Source string `yaml:"source" env:"DATA_SOURCE"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL           string `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns  int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns  int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	MigrationsDir string `yaml:"migrations_dir" env:"MIGRATIONS_DIR"`
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// AuthConfig holds token and login settings
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"JWT_TTL"`
	DefaultRole    string        `yaml:"default_role" env:"AUTH_DEFAULT_ROLE"`
	LoginPerMinute int           `yaml:"login_per_minute" env:"AUTH_LOGIN_PER_MINUTE"`
	LoginBurst     int           `yaml:"login_burst" env:"AUTH_LOGIN_BURST"`
	PruneInterval  time.Duration `yaml:"prune_interval" env:"AUTH_PRUNE_INTERVAL"`
}

// StorageConfig holds object storage configuration for QR images
type StorageConfig struct {
	Type       string `yaml:"type" env:"STORAGE_TYPE"` // "local" or "s3"
	LocalPath  string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
	PublicURL  string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	S3Bucket   string `yaml:"s3_bucket" env:"STORAGE_S3_BUCKET"`
	S3Prefix   string `yaml:"s3_prefix" env:"STORAGE_S3_PREFIX"`
	AWSRegion  string `yaml:"aws_region" env:"AWS_REGION"`
	AWSProfile string `yaml:"aws_profile" env:"AWS_PROFILE"` // Empty uses the default credential chain
}

// DeliveryConfig holds voucher delivery settings
type DeliveryConfig struct {
	Twilio    TwilioConfig    `yaml:"twilio"`
	SES       SESConfig       `yaml:"ses"`
	Templates TemplatesConfig `yaml:"templates"`
}

// TwilioConfig holds SMS credentials. Empty AccountSID disables SMS.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	From       string `yaml:"from" env:"TWILIO_FROM"`
}

// SESConfig holds e-mail settings. Empty From disables e-mail.
type SESConfig struct {
	Region  string `yaml:"region" env:"SES_REGION"`
	Profile string `yaml:"profile" env:"SES_PROFILE"`
	From    string `yaml:"from" env:"SES_FROM"`
}

// TemplatesConfig holds liquid message templates.
type TemplatesConfig struct {
	SMS          string `yaml:"sms"`
	EmailSubject string `yaml:"email_subject"`
	EmailBody    string `yaml:"email_body"`
}

// EventsConfig holds audit event publishing settings. No brokers disables it.
type EventsConfig struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic      string   `yaml:"topic" env:"KAFKA_TOPIC"`
	BufferSize int      `yaml:"buffer_size" env:"KAFKA_BUFFER_SIZE"`
}

// WorkerConfig holds background sweeper settings
type WorkerConfig struct {
	Schedule  string        `yaml:"schedule" env:"WORKER_SCHEDULE"`
	LockTTL   time.Duration `yaml:"lock_ttl" env:"WORKER_LOCK_TTL"`
	BatchSize int           `yaml:"batch_size" env:"WORKER_BATCH_SIZE"`
}

// ConsoleConfig holds settings for the console client
type ConsoleConfig struct {
	APIBaseURL   string        `yaml:"api_base_url" env:"API_BASE_URL"`
	StaleTime    time.Duration `yaml:"stale_time" env:"CONSOLE_STALE_TIME"`
	SessionFile  string        `yaml:"session_file" env:"CONSOLE_SESSION_FILE"`
	CacheBackend string        `yaml:"cache_backend" env:"CONSOLE_CACHE_BACKEND"` // "memory" or "redis"
	CachePrefix  string        `yaml:"cache_prefix" env:"CONSOLE_CACHE_PREFIX"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(context.Background(), cfg, envconfig.OsLookuper()); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func applyEnv(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         l,
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Data.Source == "" {
		c.Data.Source = SourceMemory
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.Auth.DefaultRole == "" {
		c.Auth.DefaultRole = "viewer"
	}
	if c.Auth.LoginPerMinute == 0 {
		c.Auth.LoginPerMinute = 10
	}
	if c.Auth.LoginBurst == 0 {
		c.Auth.LoginBurst = 5
	}
	if c.Auth.PruneInterval == 0 {
		c.Auth.PruneInterval = 15 * time.Minute
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.LocalPath == "" {
		c.Storage.LocalPath = "./data/objects"
	}
	if c.Storage.AWSRegion == "" {
		c.Storage.AWSRegion = "us-west-2"
	}
	if c.Delivery.SES.Region == "" {
		c.Delivery.SES.Region = c.Storage.AWSRegion
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "voucher-logs"
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = 1024
	}
	if c.Worker.Schedule == "" {
		c.Worker.Schedule = "@every 1m"
	}
	if c.Worker.LockTTL == 0 {
		c.Worker.LockTTL = 5 * time.Minute
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 500
	}
	if c.Console.APIBaseURL == "" {
		c.Console.APIBaseURL = "http://localhost:8080"
	}
	if c.Console.StaleTime == 0 {
		c.Console.StaleTime = 30 * time.Second
	}
	if c.Console.SessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Console.SessionFile = dir + "/voucher-console/session.json"
		} else {
			c.Console.SessionFile = ".voucher-session.json"
		}
	}
	if c.Console.CacheBackend == "" {
		c.Console.CacheBackend = "memory"
	}
	if c.Console.CachePrefix == "" {
		c.Console.CachePrefix = "voucher-console:query:"
	}
}

// Validate rejects unusable combinations.
func (c *Config) Validate() error {
	var errs []string
	switch c.Data.Source {
	case SourceMemory:
	case SourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "database.url is required for the postgres data source")
		}
	default:
		errs = append(errs, fmt.Sprintf("data.source %q must be postgres or memory", c.Data.Source))
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, "auth.jwt_secret is required outside development")
	}
	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, "storage.s3_bucket is required for s3 storage")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.type %q must be local or s3", c.Storage.Type))
	}
	if c.Console.CacheBackend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required for the redis cache backend")
	}
	if c.Delivery.Twilio.AccountSID != "" && c.Delivery.Twilio.From == "" {
		errs = append(errs, "delivery.twilio.from is required when twilio is configured")
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}
