// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	addr := cfg.Server.Address
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// NotificationsConfig holds unmatched-transaction alert settings
type NotificationsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Channel            string        `yaml:"channel"` // "webhook", "smtp", or "log"
	UnmatchedThreshold int           `yaml:"unmatched_threshold"`
	Recipients         []string      `yaml:"recipients"`
	ThrottleWindow     time.Duration `yaml:"throttle_window"`
	Webhook            WebhookConfig `yaml:"webhook"`
	SMTP               SMTPConfig    `yaml:"smtp"`
}

// WebhookConfig holds webhook delivery settings
type WebhookConfig struct {
	URL        string `yaml:"url"`
	MaxRetries int    `yaml:"max_retries"`
}

// SMTPConfig holds email delivery settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging   LoggingConfig `yaml:"logging"`
	SentryDSN string        `yaml:"sentry_dsn"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${SMTP_PASSWORD})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("RECONCILE_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		Notifications: NotificationsConfig{
			Enabled:            getEnvBool("RECONCILE_NOTIFY_ENABLED", true),
			Channel:            getEnv("RECONCILE_NOTIFY_CHANNEL", "log"),
			UnmatchedThreshold: getEnvInt("RECONCILE_UNMATCHED_THRESHOLD", 5),
			Recipients:         splitRecipients(os.Getenv("RECONCILE_NOTIFY_RECIPIENTS")),
			Webhook: WebhookConfig{
				URL: os.Getenv("RECONCILE_WEBHOOK_URL"),
			},
			SMTP: SMTPConfig{
				Host:     os.Getenv("RECONCILE_SMTP_HOST"),
				Port:     getEnvInt("RECONCILE_SMTP_PORT", 587),
				From:     os.Getenv("RECONCILE_SMTP_FROM"),
				Username: os.Getenv("RECONCILE_SMTP_USERNAME"),
				Password: os.Getenv("RECONCILE_SMTP_PASSWORD"),
			},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
			SentryDSN: os.Getenv("SENTRY_DSN"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills in zero values that have sensible defaults
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "reconcile.db"
	}
	if c.Notifications.Channel == "" {
		c.Notifications.Channel = "log"
	}
	if c.Notifications.UnmatchedThreshold == 0 {
		c.Notifications.UnmatchedThreshold = 5
	}
	if c.Notifications.ThrottleWindow == 0 {
		c.Notifications.ThrottleWindow = time.Hour
	}
	if c.Notifications.Webhook.MaxRetries == 0 {
		c.Notifications.Webhook.MaxRetries = 3
	}
	if c.Notifications.SMTP.Port == 0 {
		c.Notifications.SMTP.Port = 587
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate checks settings that would fail at runtime if left wrong
func (c *Config) Validate() error {
	switch c.Notifications.Channel {
	case "webhook":
		if c.Notifications.Enabled && c.Notifications.Webhook.URL == "" {
			return fmt.Errorf("notifications.webhook.url is required for the webhook channel")
		}
	case "smtp":
		if c.Notifications.Enabled && c.Notifications.SMTP.Host == "" {
			return fmt.Errorf("notifications.smtp.host is required for the smtp channel")
		}
	case "log":
	default:
		return fmt.Errorf("unknown notification channel %q", c.Notifications.Channel)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable with a fallback default
func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// splitRecipients parses a comma-separated recipient list
func splitRecipients(raw string) []string {
	if raw == "" {
		return nil
	}
	var recipients []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
