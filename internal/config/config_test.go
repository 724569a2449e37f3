package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadNoFile(t *testing.T) (*Config, error) {
	t.Helper()
	return LoadFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadNoFile(t)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, "fitletter.db", cfg.DBPath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTTL)
	assert.Equal(t, OrderingTransactional, cfg.ResetOrdering)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.False(t, cfg.TrustedProxy)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
	assert.Equal(t, "", cfg.MailTransport())
	assert.False(t, cfg.BackupConfigured())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FITLETTER_ADDR", ":9090")
	t.Setenv("FITLETTER_ENV", "production")
	t.Setenv("FITLETTER_BCRYPT_COST", "10")
	t.Setenv("FITLETTER_RESET_ORDERING", "burn-first")
	t.Setenv("FITLETTER_SESSION_TTL", "24h")
	t.Setenv("FITLETTER_SMTP_HOST", "smtp.example.com")
	t.Setenv("FITLETTER_TRUSTED_PROXY", "true")

	cfg, err := loadNoFile(t)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.Production())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, OrderingBurnFirst, cfg.ResetOrdering)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "smtp", cfg.MailTransport())
	assert.True(t, cfg.TrustedProxy)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FITLETTER_DB_PATH=/tmp/from-file.db\nFITLETTER_POSTMARK_TOKEN=pm-token\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, "postmark", cfg.MailTransport())
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FITLETTER_DB_PATH=/tmp/from-file.db\n"), 0o600))
	t.Setenv("FITLETTER_DB_PATH", "/tmp/from-env.db")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bcrypt too low", "FITLETTER_BCRYPT_COST", "3"},
		{"bcrypt too high", "FITLETTER_BCRYPT_COST", "32"},
		{"unknown ordering", "FITLETTER_RESET_ORDERING", "whenever"},
		{"zero session ttl", "FITLETTER_SESSION_TTL", "0s"},
		{"negative sweep", "FITLETTER_SWEEP_INTERVAL", "-1m"},
		{"zero rate limit", "FITLETTER_RATE_LIMIT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := loadNoFile(t)
			assert.Error(t, err)
		})
	}
}

func TestBackupConfigured(t *testing.T) {
	cfg := &Config{S3Bucket: "b", S3AccessKey: "a", S3SecretKey: "s", BackupPassphrase: "p"}
	assert.True(t, cfg.BackupConfigured())
	cfg.BackupPassphrase = ""
	assert.False(t, cfg.BackupConfigured())
}
