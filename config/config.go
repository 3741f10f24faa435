package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Log          LogConfig          `yaml:"log"`
	Timezone     string             `yaml:"timezone"`
	Notification NotificationConfig `yaml:"notification"`
	Retention    RetentionConfig    `yaml:"retention"`
	Machines     []MachineSeed      `yaml:"machines"`

	Location *time.Location `yaml:"-"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Mode               string   `yaml:"mode"` // gin mode: release, debug, test
	RequestIPHeader    string   `yaml:"request_ip_header"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	EnforceOwnerIP     *bool    `yaml:"enforce_owner_ip"`
}

// DatabaseConfig holds the database connection configuration.
// A DSN prefixed with "sqlite:" opens SQLite, anything else is handed to the postgres driver.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"` // silent, error, warn, info
	SeedOnStart            bool   `yaml:"seed_on_start"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// NotificationConfig holds the event worker pool and the optional outbound brokers.
type NotificationConfig struct {
	WorkerPoolSize int      `yaml:"worker_pool_size"`
	QueueSize      int      `yaml:"queue_size"`
	RedisURL       string   `yaml:"redis_url"`
	RedisChannel   string   `yaml:"redis_channel"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	KafkaTopic     string   `yaml:"kafka_topic"`
}

// RetentionConfig controls history pruning by age.
type RetentionConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	KeepDays        int           `yaml:"keep_days"`
}

// MachineSeed describes a machine created when the machine table is empty.
type MachineSeed struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// OwnerIPEnforced reports whether only the IP that started a session may finish it.
func (s ServerConfig) OwnerIPEnforced() bool {
	return s.EnforceOwnerIP == nil || *s.EnforceOwnerIP
}

// Load reads the configuration from the given path. A .env file in the working
// directory is loaded first, and a handful of environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied and an in-memory SQLite database.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.DSN = "sqlite:file::memory:?cache=shared"
	applyEnv(cfg)
	// Defaults cannot fail without a user supplied timezone.
	_ = cfg.applyDefaults()
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Notification.RedisURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Notification.KafkaBrokers = strings.Split(v, ",")
	}
	if os.Getenv("APP_ENV") == "development" {
		cfg.Log.Development = true
	}
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3002
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Ho_Chi_Minh"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.Notification.WorkerPoolSize <= 0 {
		cfg.Notification.WorkerPoolSize = 1
	}
	if cfg.Notification.QueueSize <= 0 {
		cfg.Notification.QueueSize = 64
	}
	if cfg.Notification.RedisChannel == "" {
		cfg.Notification.RedisChannel = "laundry-events"
	}
	if cfg.Notification.KafkaTopic == "" {
		cfg.Notification.KafkaTopic = "laundry-events"
	}

	if cfg.Retention.IntervalSeconds <= 0 {
		cfg.Retention.IntervalSeconds = 6 * 60 * 60
	}
	cfg.Retention.Interval = time.Duration(cfg.Retention.IntervalSeconds) * time.Second
	if cfg.Retention.KeepDays <= 0 {
		cfg.Retention.KeepDays = 90
	}
	return nil
}
