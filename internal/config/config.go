// Package config provides configuration management for the journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Journal       JournalConfig      `mapstructure:"journal"`
	Backend       BackendConfig      `mapstructure:"backend"`
	UI            UIConfig           `mapstructure:"ui"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// JournalConfig holds the core journal settings.
type JournalConfig struct {
	UserID        string `mapstructure:"user_id"`
	DBPath        string `mapstructure:"db_path"`
	ReportDir     string `mapstructure:"report_dir"`
	CacheDir      string `mapstructure:"cache_dir"`
	DailyWrapTime string `mapstructure:"daily_wrap_time"`
}

// BackendConfig describes the bias-state backend. The tier flags exist so a
// partially provisioned backend can be reproduced locally.
type BackendConfig struct {
	DBPath           string `mapstructure:"db_path"`
	RPCProvisioned   bool   `mapstructure:"rpc_provisioned"`
	ViewProvisioned  bool   `mapstructure:"view_provisioned"`
	TableProvisioned bool   `mapstructure:"table_provisioned"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Level   string        `mapstructure:"level"` // all, wraps_only, errors_only
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/edgeday"
	}
	return filepath.Join(home, ".config", "edgeday")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	cfg.applyDefaults(configDir)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("journal.daily_wrap_time", "21:00")
	v.SetDefault("backend.rpc_provisioned", true)
	v.SetDefault("backend.view_provisioned", true)
	v.SetDefault("backend.table_provisioned", true)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("notifications.level", "all")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir, name)
		}
		return err
	}
	return v.Unmarshal(target)
}

func (c *Config) applyDefaults(configDir string) {
	if c.Journal.UserID == "" {
		c.Journal.UserID = "local"
	}
	if c.Journal.DBPath == "" {
		c.Journal.DBPath = filepath.Join(configDir, "journal.db")
	}
	if c.Journal.ReportDir == "" {
		c.Journal.ReportDir = filepath.Join(configDir, "reports")
	}
	if c.Journal.CacheDir == "" {
		c.Journal.CacheDir = filepath.Join(configDir, "cache")
	}
	if c.Backend.DBPath == "" {
		c.Backend.DBPath = filepath.Join(configDir, "backend.db")
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(configDir, "logs", "edgeday.log")
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EDGEDAY_USER_ID"); v != "" {
		cfg.Journal.UserID = v
	}
	if v := os.Getenv("EDGEDAY_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("EDGEDAY_WRAP_TIME"); v != "" {
		cfg.Journal.DailyWrapTime = v
	}
	if v := os.Getenv("EDGEDAY_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
	if v := os.Getenv("EDGEDAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validateWrapTime(c.Journal.DailyWrapTime); err != nil {
		return err
	}

	switch c.Notifications.Level {
	case "", "all", "wraps_only", "errors_only":
	default:
		return fmt.Errorf("invalid notification level: %s (must be 'all', 'wraps_only' or 'errors_only')", c.Notifications.Level)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func validateWrapTime(wrapTime string) error {
	parts := strings.Split(wrapTime, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid daily_wrap_time %q, want HH:MM", wrapTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid daily_wrap_time hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid daily_wrap_time minute %q", parts[1])
	}
	return nil
}
