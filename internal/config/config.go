// Package config loads and validates FitLetter configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	OrderingTransactional = "transactional"
	OrderingBurnFirst     = "burn-first"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"FITLETTER_ADDR"`
	// Env is "development" or "production"; production turns on Secure cookies.
	Env     string `mapstructure:"FITLETTER_ENV"`
	DBPath  string `mapstructure:"FITLETTER_DB_PATH"`
	BaseURL string `mapstructure:"FITLETTER_BASE_URL"`

	LogLevel  string `mapstructure:"FITLETTER_LOG_LEVEL"`
	LogFormat string `mapstructure:"FITLETTER_LOG_FORMAT"`

	BcryptCost int           `mapstructure:"FITLETTER_BCRYPT_COST"`
	SessionTTL time.Duration `mapstructure:"FITLETTER_SESSION_TTL"`
	ResetTTL   time.Duration `mapstructure:"FITLETTER_RESET_TTL"`
	// ResetOrdering is "transactional" or "burn-first".
	ResetOrdering string `mapstructure:"FITLETTER_RESET_ORDERING"`
	// SweepInterval is how often the server purges expired sessions and
	// reset tokens. Zero disables the in-process sweep.
	SweepInterval time.Duration `mapstructure:"FITLETTER_SWEEP_INTERVAL"`

	PostmarkToken string `mapstructure:"FITLETTER_POSTMARK_TOKEN"`
	FromEmail     string `mapstructure:"FITLETTER_FROM_EMAIL"`
	SMTPHost      string `mapstructure:"FITLETTER_SMTP_HOST"`
	SMTPPort      int    `mapstructure:"FITLETTER_SMTP_PORT"`
	SMTPUsername  string `mapstructure:"FITLETTER_SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"FITLETTER_SMTP_PASSWORD"`

	// RedisURL enables the shared rate limiter; empty means in-memory.
	RedisURL     string        `mapstructure:"FITLETTER_REDIS_URL"`
	RateLimit    int           `mapstructure:"FITLETTER_RATE_LIMIT"`
	RateWindow   time.Duration `mapstructure:"FITLETTER_RATE_WINDOW"`
	// TrustedProxy keys rate limits on CF-Connecting-IP/X-Forwarded-For.
	// Only set it behind a proxy that overwrites those headers.
	TrustedProxy bool          `mapstructure:"FITLETTER_TRUSTED_PROXY"`

	S3Endpoint          string `mapstructure:"FITLETTER_S3_ENDPOINT"`
	S3Bucket            string `mapstructure:"FITLETTER_S3_BUCKET"`
	S3Region            string `mapstructure:"FITLETTER_S3_REGION"`
	S3AccessKey         string `mapstructure:"FITLETTER_S3_ACCESS_KEY"`
	S3SecretKey         string `mapstructure:"FITLETTER_S3_SECRET_KEY"`
	BackupPassphrase    string `mapstructure:"FITLETTER_BACKUP_PASSPHRASE"`
	BackupRetentionDays int    `mapstructure:"FITLETTER_BACKUP_RETENTION_DAYS"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing file

	v.AutomaticEnv()

	v.SetDefault("FITLETTER_ADDR", ":8080")
	v.SetDefault("FITLETTER_ENV", "development")
	v.SetDefault("FITLETTER_DB_PATH", "fitletter.db")
	v.SetDefault("FITLETTER_BASE_URL", "http://localhost:8080")
	v.SetDefault("FITLETTER_LOG_LEVEL", "info")
	v.SetDefault("FITLETTER_LOG_FORMAT", "text")
	v.SetDefault("FITLETTER_BCRYPT_COST", 12)
	v.SetDefault("FITLETTER_SESSION_TTL", "168h")
	v.SetDefault("FITLETTER_RESET_TTL", "30m")
	v.SetDefault("FITLETTER_RESET_ORDERING", OrderingTransactional)
	v.SetDefault("FITLETTER_SWEEP_INTERVAL", "1h")
	v.SetDefault("FITLETTER_POSTMARK_TOKEN", "")
	v.SetDefault("FITLETTER_FROM_EMAIL", "")
	v.SetDefault("FITLETTER_SMTP_HOST", "")
	v.SetDefault("FITLETTER_SMTP_PORT", 587)
	v.SetDefault("FITLETTER_SMTP_USERNAME", "")
	v.SetDefault("FITLETTER_SMTP_PASSWORD", "")
	v.SetDefault("FITLETTER_REDIS_URL", "")
	v.SetDefault("FITLETTER_RATE_LIMIT", 10)
	v.SetDefault("FITLETTER_RATE_WINDOW", "1m")
	v.SetDefault("FITLETTER_TRUSTED_PROXY", false)
	v.SetDefault("FITLETTER_S3_ENDPOINT", "")
	v.SetDefault("FITLETTER_S3_BUCKET", "")
	v.SetDefault("FITLETTER_S3_REGION", "")
	v.SetDefault("FITLETTER_S3_ACCESS_KEY", "")
	v.SetDefault("FITLETTER_S3_SECRET_KEY", "")
	v.SetDefault("FITLETTER_BACKUP_PASSPHRASE", "")
	v.SetDefault("FITLETTER_BACKUP_RETENTION_DAYS", 30)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("config: FITLETTER_ADDR must be set")
	}
	if c.DBPath == "" {
		return errors.New("config: FITLETTER_DB_PATH must be set")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: FITLETTER_BCRYPT_COST must be between 4 and 31")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: FITLETTER_SESSION_TTL must be positive")
	}
	if c.ResetTTL <= 0 {
		return errors.New("config: FITLETTER_RESET_TTL must be positive")
	}
	if c.ResetOrdering != OrderingTransactional && c.ResetOrdering != OrderingBurnFirst {
		return fmt.Errorf("config: FITLETTER_RESET_ORDERING must be %q or %q", OrderingTransactional, OrderingBurnFirst)
	}
	if c.SweepInterval < 0 {
		return errors.New("config: FITLETTER_SWEEP_INTERVAL must not be negative")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("config: FITLETTER_RATE_LIMIT and FITLETTER_RATE_WINDOW must be positive")
	}
	return nil
}

func (c *Config) Production() bool { return c.Env == "production" }

// MailTransport reports which mail transport is set up: "postmark", "smtp" or "".
func (c *Config) MailTransport() string {
	switch {
	case c.PostmarkToken != "":
		return "postmark"
	case c.SMTPHost != "":
		return "smtp"
	}
	return ""
}

// BackupConfigured reports whether S3 backups can run.
func (c *Config) BackupConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.BackupPassphrase != ""
}
