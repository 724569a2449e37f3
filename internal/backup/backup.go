// Package backup takes encrypted SQLite snapshots and stores them in
// S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

// ErrNotConfigured is returned when S3 credentials or the passphrase are missing.
var ErrNotConfigured = errors.New("backup: not configured")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration.
type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	RetentionDays int
}

// Manager runs, prunes and restores encrypted backups.
type Manager struct {
	cfg    Config
	db     *sql.DB
	store  *store.BackupStore
	client s3Client
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a backup manager. The S3 client is only built when the
// storage config is complete; otherwise every operation returns ErrNotConfigured.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:    cfg,
		db:     db,
		store:  bs,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if cfg.S3.complete() {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether backups can run.
func (m *Manager) Configured() bool {
	return m.client != nil && m.cfg.Passphrase != ""
}

// Run checkpoints the WAL, encrypts the database file and uploads it. The
// backups row tracks progress and records failures.
func (m *Manager) Run(ctx context.Context) (*model.Backup, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}

	now := m.now()
	filename := fmt.Sprintf("fitletter-%s.db.enc", now.Format("2006-01-02T150405Z"))
	s3Key := "backups/" + filename

	record, err := m.store.Create(filename, s3Key, now)
	if err != nil {
		return nil, fmt.Errorf("create backup record: %w", err)
	}
	if err := m.store.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		return nil, err
	}

	size, err := m.upload(ctx, s3Key)
	if err != nil {
		if uerr := m.store.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "id", record.ID, "error", uerr)
		}
		return nil, err
	}

	if err := m.store.UpdateCompleted(record.ID, size, m.now()); err != nil {
		return nil, err
	}
	m.logger.Info("backup completed", "id", record.ID, "key", s3Key, "size_bytes", size)
	return m.store.GetByID(record.ID)
}

func (m *Manager) upload(ctx context.Context, key string) (int64, error) {
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return 0, fmt.Errorf("wal checkpoint: %w", err)
	}

	plaintext, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return 0, fmt.Errorf("read database: %w", err)
	}

	sealed, err := Encrypt(plaintext, m.cfg.Passphrase)
	if err != nil {
		return 0, fmt.Errorf("encrypt: %w", err)
	}

	size := int64(len(sealed))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return 0, fmt.Errorf("upload to s3: %w", err)
	}
	return size, nil
}

// Prune deletes backups older than the retention period from the table and
// the bucket. S3 delete failures are logged and do not stop the sweep.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	if m.client == nil {
		return 0, ErrNotConfigured
	}

	before := m.now().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.store.DeleteOlderThan(before)
	if err != nil {
		return 0, fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete backup object", "key", key, "error", err)
		}
	}
	return len(keys), nil
}

// Restore downloads and decrypts a backup into dstPath, then runs an
// integrity check on it. The live database is never touched.
func (m *Manager) Restore(ctx context.Context, backupID int64, dstPath string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	record, err := m.store.GetByID(backupID)
	if err != nil {
		return fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return fmt.Errorf("backup %d not found", backupID)
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	plaintext, err := Decrypt(sealed, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}
	if err := os.WriteFile(dstPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}

	return checkIntegrity(ctx, dstPath)
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// List returns the most recent backups, newest first.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.store.List(limit)
}
