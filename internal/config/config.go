package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/replies-relay/pkg/replies"
)

// maxConfirmBatch is the service's cap on reply ids per confirm request.
const maxConfirmBatch = 100

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	RepliesBaseURI        string        `mapstructure:"replies_base_uri"`
	RepliesAPIKey         string        `mapstructure:"replies_api_key"`
	RepliesAPISecret      string        `mapstructure:"replies_api_secret"`
	RepliesUserAgent      string        `mapstructure:"replies_user_agent"`
	RepliesTimeoutSeconds int64         `mapstructure:"replies_timeout_seconds"`
	RepliesTimeout        time.Duration `mapstructure:"-"`

	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	ConfirmBatchSize    int           `mapstructure:"confirm_batch_size"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	MetricsAddr         string        `mapstructure:"metrics_addr"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "replies-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("replies_base_uri", replies.DefaultBaseURI)
	v.SetDefault("replies_api_key", "")
	v.SetDefault("replies_api_secret", "")
	v.SetDefault("replies_user_agent", replies.DefaultUserAgent)
	v.SetDefault("replies_timeout_seconds", int64(replies.DefaultTimeout/time.Second))
	v.SetDefault("poll_interval", 60) // seconds
	v.SetDefault("confirm_batch_size", maxConfirmBatch)
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/replies.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives durations.
func (cfg *Config) finalize() error {
	if cfg.RepliesTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid replies_timeout_seconds (must be positive seconds)")
	}
	cfg.RepliesTimeout = time.Duration(cfg.RepliesTimeoutSeconds) * time.Second

	if cfg.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.ConfirmBatchSize <= 0 || cfg.ConfirmBatchSize > maxConfirmBatch {
		return fmt.Errorf("invalid confirm_batch_size (must be between 1 and %d)", maxConfirmBatch)
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}

// RepliesConfig returns the SDK configuration derived from cfg.
func (cfg *Config) RepliesConfig() replies.Config {
	return replies.Config{
		BaseURI:   cfg.RepliesBaseURI,
		Username:  cfg.RepliesAPIKey,
		Password:  cfg.RepliesAPISecret,
		UserAgent: cfg.RepliesUserAgent,
		Timeout:   cfg.RepliesTimeout,
	}
}

// Redacted returns a copy safe to log.
func (cfg *Config) Redacted() Config {
	out := *cfg
	if out.RepliesAPISecret != "" {
		out.RepliesAPISecret = "***"
	}
	if key := out.RepliesAPIKey; len(key) > 4 {
		out.RepliesAPIKey = key[:4] + strings.Repeat("*", len(key)-4)
	}
	return out
}
