package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var errInjected = errors.New("injected failure")

// memBackend is an in-memory Backend. InTx snapshots state and restores it
// when fn fails.
type memBackend struct {
	mu         sync.Mutex
	nextUserID int64
	users      map[int64]model.User
	sessions   map[string]model.Session
	resets     map[string]model.PasswordReset

	// failure injection
	failUpdatePassword bool
	failSessionCreate  bool
	failSessionLookup  bool
	skipEmailLookup    bool
	// staleLookups makes GetValid and GetUsable return rows without
	// filtering on expiry or use.
	staleLookups       bool
}

func newMemBackend() *memBackend {
	return &memBackend{
		users:    map[int64]model.User{},
		sessions: map[string]model.Session{},
		resets:   map[string]model.PasswordReset{},
	}
}

func (b *memBackend) Stores() Stores {
	return Stores{Users: memUsers{b}, Sessions: memSessions{b}, Resets: memResets{b}}
}

func (b *memBackend) InTx(ctx context.Context, fn func(Stores) error) error {
	b.mu.Lock()
	users, sessions, resets := maps.Clone(b.users), maps.Clone(b.sessions), maps.Clone(b.resets)
	b.mu.Unlock()

	if err := fn(b.Stores()); err != nil {
		b.mu.Lock()
		b.users, b.sessions, b.resets = users, sessions, resets
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *memBackend) reset(token string) (model.PasswordReset, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resets[token]
	return r, ok
}

func (b *memBackend) sessionCount(userID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type memUsers struct{ b *memBackend }

func (s memUsers) Create(email, name, passwordHash string, createdAt time.Time) (*model.User, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, u := range s.b.users {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("insert user: %w", store.ErrConflict)
		}
	}
	s.b.nextUserID++
	u := model.User{ID: s.b.nextUserID, Email: email, PasswordHash: passwordHash, CreatedAt: createdAt}
	if name != "" {
		u.Name = &name
	}
	s.b.users[u.ID] = u
	return &u, nil
}

func (s memUsers) GetByID(id int64) (*model.User, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	u, ok := s.b.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s memUsers) GetByEmail(email string) (*model.User, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.skipEmailLookup {
		return nil, nil
	}
	for _, u := range s.b.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s memUsers) UpdatePasswordHash(id int64, passwordHash string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failUpdatePassword {
		return errInjected
	}
	u := s.b.users[id]
	u.PasswordHash = passwordHash
	s.b.users[id] = u
	return nil
}

func (s memUsers) Delete(id int64) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.users, id)
	for tok, sess := range s.b.sessions {
		if sess.UserID == id {
			delete(s.b.sessions, tok)
		}
	}
	for tok, r := range s.b.resets {
		if r.UserID == id {
			delete(s.b.resets, tok)
		}
	}
	return nil
}

type memSessions struct{ b *memBackend }

func (s memSessions) Create(token string, userID int64, expiresAt, createdAt time.Time) (*model.Session, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failSessionCreate {
		return nil, errInjected
	}
	if _, ok := s.b.sessions[token]; ok {
		return nil, fmt.Errorf("insert session: %w", store.ErrConflict)
	}
	sess := model.Session{Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: createdAt}
	s.b.sessions[token] = sess
	return &sess, nil
}

func (s memSessions) GetValid(token string, now time.Time) (*model.Session, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failSessionLookup {
		return nil, errInjected
	}
	sess, ok := s.b.sessions[token]
	if !ok || (!s.b.staleLookups && !sess.ValidAt(now)) {
		return nil, nil
	}
	return &sess, nil
}

func (s memSessions) Delete(token string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.sessions, token)
	return nil
}

func (s memSessions) DeleteByUserID(userID int64) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for tok, sess := range s.b.sessions {
		if sess.UserID == userID {
			delete(s.b.sessions, tok)
		}
	}
	return nil
}

func (s memSessions) DeleteExpired(now time.Time) (int64, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	var n int64
	for tok, sess := range s.b.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.b.sessions, tok)
			n++
		}
	}
	return n, nil
}

type memResets struct{ b *memBackend }

func (s memResets) Create(token string, userID int64, expiresAt, now time.Time) (*model.PasswordReset, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for tok, r := range s.b.resets {
		if r.UserID == userID && r.UsedAt == nil {
			used := now
			r.UsedAt = &used
			s.b.resets[tok] = r
		}
	}
	r := model.PasswordReset{Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: now}
	s.b.resets[token] = r
	return &r, nil
}

func (s memResets) GetUsable(token string, now time.Time) (*model.PasswordReset, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	r, ok := s.b.resets[token]
	if !ok || (!s.b.staleLookups && !r.UsableAt(now)) {
		return nil, nil
	}
	return &r, nil
}

func (s memResets) MarkUsed(token string, at time.Time) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	r, ok := s.b.resets[token]
	if !ok || r.UsedAt != nil {
		return false, nil
	}
	r.UsedAt = &at
	s.b.resets[token] = r
	return true, nil
}

func (s memResets) DeleteExpired(now time.Time) (int64, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	var n int64
	for tok, r := range s.b.resets {
		if r.ExpiresAt.Before(now) {
			delete(s.b.resets, tok)
			n++
		}
	}
	return n, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, link: link})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}
	}
	return f.sent[len(f.sent)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	m       *Manager
	backend *memBackend
	clock   *fakeClock
	mailer  *fakeMailer
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = "https://fitletter.test"
	for _, fn := range mutate {
		fn(&cfg)
	}
	env := &testEnv{
		backend: newMemBackend(),
		clock:   &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		mailer:  &fakeMailer{},
	}
	env.m = NewManager(env.backend, NewBcryptHasher(bcrypt.MinCost), cfg, discardLogger(),
		WithClock(env.clock.Now), WithMailer(env.mailer))
	t.Cleanup(env.m.Wait)
	return env
}
