package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/config"
	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/email"
	"github.com/dukerupert/fitletter/internal/logging"
	"github.com/dukerupert/fitletter/internal/middleware"
	"github.com/dukerupert/fitletter/internal/server"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := auth.NewManager(
		auth.NewSQLBackend(db),
		auth.NewBcryptHasher(cfg.BcryptCost),
		authConfig(cfg),
		logger.With("component", "auth"),
		mailerOption(cfg, logger),
	)

	limiter, memLimiter := newLimiter(cfg, logger)

	srv := server.New(db, manager, limiter, server.Config{
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		TrustProxy: cfg.TrustedProxy,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	if cfg.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := manager.Sweep(cleanupCtx); err != nil {
						slog.Error("sweep", "error", err)
					}
					if memLimiter != nil {
						memLimiter.Cleanup()
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		slog.Info("fitletter starting", "addr", cfg.Addr, "env", cfg.Env, "reset_ordering", cfg.ResetOrdering)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	manager.Wait()
}

func authConfig(cfg *config.Config) auth.Config {
	ac := auth.DefaultConfig()
	ac.SessionTTL = cfg.SessionTTL
	ac.ResetTTL = cfg.ResetTTL
	ac.Secure = cfg.Production()
	ac.BaseURL = cfg.BaseURL
	ac.Ordering = auth.ResetOrdering(cfg.ResetOrdering)
	return ac
}

// mailerOption picks Postmark, then SMTP. With neither, reset links are logged.
func mailerOption(cfg *config.Config, logger *slog.Logger) auth.Option {
	switch cfg.MailTransport() {
	case "postmark":
		return auth.WithMailer(email.NewClient(cfg.PostmarkToken, cfg.FromEmail))
	case "smtp":
		return auth.WithMailer(email.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail))
	}
	logger.Warn("no mail transport configured, reset links will be logged")
	return func(*auth.Manager) {}
}

// newLimiter returns a Redis-backed limiter when FITLETTER_REDIS_URL is set
// and reachable, else an in-memory one. The second result is non-nil only in
// the in-memory case and needs periodic Cleanup.
func newLimiter(cfg *config.Config, logger *slog.Logger) (middleware.Limiter, *middleware.RateLimiter) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("parse redis url, falling back to in-memory rate limiting", "error", err)
		} else {
			client := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Error("redis unreachable, falling back to in-memory rate limiting", "error", err)
				client.Close()
			} else {
				return middleware.NewRedisLimiter(client, ""), nil
			}
		}
	}
	rl := middleware.NewRateLimiter()
	return rl, rl
}
