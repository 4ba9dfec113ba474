package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ServiceNowURL          string        `mapstructure:"servicenow_url"`
	ServiceNowUsername     string        `mapstructure:"servicenow_username"`
	ServiceNowPassword     string        `mapstructure:"servicenow_password"`
	ServiceNowTable        string        `mapstructure:"servicenow_table"`
	RequestTimeoutSeconds  int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout         time.Duration `mapstructure:"-"`
	ChangeShortDescription string        `mapstructure:"change_short_description"`

	SinksFile          string `mapstructure:"sinks_file"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

var envKeys = []string{
	"app_name",
	"app_env",
	"log_level",
	"servicenow_url",
	"servicenow_username",
	"servicenow_password",
	"servicenow_table",
	"request_timeout_seconds",
	"change_short_description",
	"sinks_file",
	"aws_access_key_id",
	"aws_secret_access_key",
	"storage_type",
	"bbolt_path",
	"storage_ttl_seconds",
	"storage_cleanup_interval_seconds",
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "snow-change-connector")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("servicenow_table", "change_request")
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("change_short_description", "created by snow-change-connector")
	v.SetDefault("sinks_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/connector.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about; credentials have no default.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	cfg.ServiceNowURL = strings.TrimSpace(cfg.ServiceNowURL)
	cfg.ServiceNowUsername = strings.TrimSpace(cfg.ServiceNowUsername)
	cfg.ServiceNowTable = strings.TrimSpace(cfg.ServiceNowTable)

	if cfg.ServiceNowURL == "" {
		return fmt.Errorf("servicenow_url is required")
	}
	if !strings.HasPrefix(cfg.ServiceNowURL, "http://") && !strings.HasPrefix(cfg.ServiceNowURL, "https://") {
		return fmt.Errorf("invalid servicenow_url %q (must be http or https)", cfg.ServiceNowURL)
	}
	if cfg.ServiceNowUsername == "" {
		return fmt.Errorf("servicenow_username is required")
	}
	if cfg.ServiceNowPassword == "" {
		return fmt.Errorf("servicenow_password is required")
	}
	if cfg.ServiceNowTable == "" {
		return fmt.Errorf("servicenow_table is required")
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

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

// Redacted returns a copy safe to log.
func (cfg Config) Redacted() Config {
	if cfg.ServiceNowPassword != "" {
		cfg.ServiceNowPassword = "***"
	}
	if cfg.AWSSecretAccessKey != "" {
		cfg.AWSSecretAccessKey = "***"
	}
	return cfg
}
