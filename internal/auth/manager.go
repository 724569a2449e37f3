package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ResetOrdering selects how ConsumeReset sequences its writes.
type ResetOrdering string

const (
	// OrderingTransactional marks the token used, updates the password and
	// revokes sessions inside one transaction.
	OrderingTransactional ResetOrdering = "transactional"
	// OrderingBurnFirst marks the token used before touching the password,
	// without a transaction. A failure in between leaves the token burned
	// and the password unchanged.
	OrderingBurnFirst ResetOrdering = "burn-first"
)

func (o ResetOrdering) Valid() bool {
	return o == OrderingTransactional || o == OrderingBurnFirst
}

const (
	DefaultCookieName = "fitletter_session"
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultResetTTL   = 30 * time.Minute
	DefaultLoginPath  = "/login"

	resetMailTimeout = 15 * time.Second
)

type Config struct {
	CookieName string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	// Secure sets the Secure attribute on the session cookie.
	Secure    bool
	LoginPath string
	// BaseURL prefixes password reset links.
	BaseURL  string
	Ordering ResetOrdering
}

func DefaultConfig() Config {
	return Config{
		CookieName: DefaultCookieName,
		SessionTTL: DefaultSessionTTL,
		ResetTTL:   DefaultResetTTL,
		LoginPath:  DefaultLoginPath,
		Ordering:   OrderingTransactional,
	}
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Manager owns sessions, credentials and password resets.
type Manager struct {
	backend Backend
	hasher  Hasher
	mailer  Mailer
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string

	mail sync.WaitGroup
}

type Option func(*Manager)

// WithMailer sets the reset-link transport. Without one, links are logged.
func WithMailer(m Mailer) Option {
	return func(mgr *Manager) { mgr.mailer = m }
}

func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

func NewManager(backend Backend, hasher Hasher, cfg Config, logger *slog.Logger, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = def.ResetTTL
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if !cfg.Ordering.Valid() {
		cfg.Ordering = def.Ordering
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		backend: backend,
		hasher:  hasher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Config() Config { return m.cfg }

// Wait blocks until reset emails already queued have been handed to the
// mailer. Call it on shutdown.
func (m *Manager) Wait() { m.mail.Wait() }

// Sweep deletes expired sessions and reset tokens.
func (m *Manager) Sweep(ctx context.Context) error {
	sessions, err := m.CleanupExpiredSessions(ctx)
	if err != nil {
		return err
	}
	resets, err := m.CleanupExpiredResets(ctx)
	if err != nil {
		return err
	}
	m.logger.Info("sweep complete", "sessions_deleted", sessions, "resets_deleted", resets)
	return nil
}

// CleanupExpiredSessions bulk-deletes sessions whose expiry has passed.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := m.backend.Stores().Sessions.DeleteExpired(m.now())
	if err != nil {
		return 0, newError(KindDB, "cleanup sessions", "", err)
	}
	return n, nil
}

// CleanupExpiredResets bulk-deletes reset tokens whose expiry has passed.
func (m *Manager) CleanupExpiredResets(ctx context.Context) (int64, error) {
	n, err := m.backend.Stores().Resets.DeleteExpired(m.now())
	if err != nil {
		return 0, newError(KindDB, "cleanup resets", "", err)
	}
	return n, nil
}

// compareDummy spends the same work as a real password check so unknown
// emails are not distinguishable by response time.
func (m *Manager) compareDummy(password string) {
	m.dummyOnce.Do(func() {
		h, err := m.hasher.Hash("fitletter-timing-equalizer")
		if err != nil {
			m.logger.Warn("dummy hash", "error", err)
			return
		}
		m.dummyHash = h
	})
	if m.dummyHash != "" {
		_, _ = m.hasher.Verify(password, m.dummyHash)
	}
}
