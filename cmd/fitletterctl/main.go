// Command fitletterctl runs one-shot maintenance jobs against the FitLetter
// database: expired-row sweeps and encrypted S3 backups.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/backup"
	"github.com/dukerupert/fitletter/internal/config"
	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/logging"
	"github.com/dukerupert/fitletter/internal/store"
)

const usage = `usage: fitletterctl <command> [flags]

commands:
  sweep          delete expired sessions and reset tokens
  backup         upload an encrypted database snapshot to S3
  backup-prune   delete backups older than the retention period
  backup-list    list recent backups
  restore        download and decrypt a backup to a file (-id, -out)
`

var errBackupNotConfigured = errors.New("backups require FITLETTER_S3_BUCKET, FITLETTER_S3_ACCESS_KEY, FITLETTER_S3_SECRET_KEY and FITLETTER_BACKUP_PASSPHRASE")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string) error {
	switch cmd {
	case "backup", "backup-prune", "restore":
		if !cfg.BackupConfigured() {
			return errBackupNotConfigured
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		DBPath:        cfg.DBPath,
		Passphrase:    cfg.BackupPassphrase,
		RetentionDays: cfg.BackupRetentionDays,
	}, db, store.NewBackupStore(db), logger.With("component", "backup"))

	switch cmd {
	case "sweep":
		m := auth.NewManager(auth.NewSQLBackend(db), auth.NewBcryptHasher(cfg.BcryptCost), auth.DefaultConfig(), logger.With("component", "auth"))
		return m.Sweep(ctx)

	case "backup":
		b, err := backups.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("backup %d uploaded to %s (%d bytes)\n", b.ID, b.S3Key, b.SizeBytes)
		return nil

	case "backup-prune":
		n, err := backups.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d backups\n", n)
		return nil

	case "backup-list":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		limit := fs.Int("n", 20, "number of backups to show")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := backups.List(*limit)
		if err != nil {
			return err
		}
		for _, b := range list {
			fmt.Printf("%d\t%s\t%s\t%d\t%s\n", b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Status, b.SizeBytes, b.S3Key)
		}
		return nil

	case "restore":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		id := fs.Int64("id", 0, "backup id")
		out := fs.String("out", "", "output path for the restored database")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == 0 || *out == "" {
			return fmt.Errorf("restore requires -id and -out")
		}
		if err := backups.Restore(ctx, *id, *out); err != nil {
			return err
		}
		fmt.Printf("backup %d restored to %s\n", *id, *out)
		return nil
	}

	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}
