package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Badge      BadgeConfig      `yaml:"badge"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// WorkerPoolConfig holds the configuration for the delivery worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys and payload assets for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	IconPath   string `yaml:"icon_path"`
	BadgePath  string `yaml:"badge_path"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// BadgeConfig holds the badge watcher poll settings.
type BadgeConfig struct {
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	PollInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// MetricsConfig holds the metrics flush settings.
type MetricsConfig struct {
	FlushIntervalSeconds int           `yaml:"flush_interval_seconds"`
	FlushInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
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

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.IconPath == "" {
		cfg.Push.IconPath = "/icons/icon-192.png"
	}
	if cfg.Push.BadgePath == "" {
		cfg.Push.BadgePath = "/icons/badge-72.png"
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Badge.PollIntervalSeconds <= 0 {
		cfg.Badge.PollIntervalSeconds = 15
	}
	cfg.Badge.PollInterval = time.Duration(cfg.Badge.PollIntervalSeconds) * time.Second

	if cfg.Metrics.FlushIntervalSeconds <= 0 {
		cfg.Metrics.FlushIntervalSeconds = 60
	}
	cfg.Metrics.FlushInterval = time.Duration(cfg.Metrics.FlushIntervalSeconds) * time.Second

	return &cfg, nil
}
