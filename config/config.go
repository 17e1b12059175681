package config

import (
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Queue     QueueConfig     `yaml:"queue"`
	Retention RetentionConfig `yaml:"retention"`
	Log       LogConfig       `yaml:"log"`
	Salons    []SalonSeed     `yaml:"salons"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	ReleaseMode        bool     `yaml:"release_mode"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// RedisConfig enables cross-instance queue locks. An empty Addr keeps locks in-process.
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	LockTTLSeconds int           `yaml:"lock_ttl_seconds"`
	LockTTL        time.Duration `yaml:"-"`
}

// QueueConfig tunes the queue engine.
type QueueConfig struct {
	TokenFloor             int64         `yaml:"token_floor"`
	InitialOrderIndex      int64         `yaml:"initial_order_index"`
	PhoneRegion            string        `yaml:"phone_region"`
	HistoryLimit           int           `yaml:"history_limit"`
	CatalogCacheTTLSeconds int           `yaml:"catalog_cache_ttl_seconds"`
	CatalogCacheTTL        time.Duration `yaml:"-"`
}

// RetentionConfig controls the history sweeper.
type RetentionConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	MaxAgeHours     int           `yaml:"max_age_hours"`
	MaxAge          time.Duration `yaml:"-"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// SalonSeed describes one location and its service menu.
type SalonSeed struct {
	ID   string        `yaml:"id"`
	Name string        `yaml:"name"`
	Menu []ServiceSeed `yaml:"menu"`
}

// ServiceSeed is one menu item of a salon.
type ServiceSeed struct {
	Name            string `yaml:"name"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Price           string `yaml:"price"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
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
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if dsn := os.Getenv("QUEUED_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr := os.Getenv("QUEUED_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if port := os.Getenv("QUEUED_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		} else {
			log.WithError(err).WithField("value", port).Warn("ignoring invalid QUEUED_PORT")
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Redis.LockTTLSeconds <= 0 {
		cfg.Redis.LockTTLSeconds = 10
	}
	cfg.Redis.LockTTL = time.Duration(cfg.Redis.LockTTLSeconds) * time.Second

	if cfg.Queue.TokenFloor <= 0 {
		cfg.Queue.TokenFloor = 100
	}
	if cfg.Queue.InitialOrderIndex == 0 {
		cfg.Queue.InitialOrderIndex = 1
	}
	if cfg.Queue.HistoryLimit <= 0 {
		cfg.Queue.HistoryLimit = 50
	}
	if cfg.Queue.CatalogCacheTTLSeconds <= 0 {
		cfg.Queue.CatalogCacheTTLSeconds = 60
	}
	cfg.Queue.CatalogCacheTTL = time.Duration(cfg.Queue.CatalogCacheTTLSeconds) * time.Second

	if cfg.Retention.IntervalSeconds <= 0 {
		cfg.Retention.IntervalSeconds = 3600
	}
	cfg.Retention.Interval = time.Duration(cfg.Retention.IntervalSeconds) * time.Second
	if cfg.Retention.MaxAgeHours <= 0 {
		log.Warn("retention.max_age_hours is not set or invalid, defaulting to 720")
		cfg.Retention.MaxAgeHours = 720
	}
	cfg.Retention.MaxAge = time.Duration(cfg.Retention.MaxAgeHours) * time.Hour

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
