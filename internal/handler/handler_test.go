package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (c *captureMailer) SendPasswordReset(_ context.Context, _, link string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = append(c.links, link)
	return nil
}

func (c *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.links, "no reset link sent")
	u, err := url.Parse(c.links[len(c.links)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type testApp struct {
	manager      *auth.Manager
	mailer       *captureMailer
	authH        *AuthHandler
	resumeH      *ResumeHandler
	letterH      *LetterHandler
	applicationH *ApplicationHandler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &captureMailer{}
	m := auth.NewManager(auth.NewSQLBackend(db), auth.NewBcryptHasher(bcrypt.MinCost), auth.DefaultConfig(), logger,
		auth.WithMailer(mailer))
	resumes := store.NewResumeStore(db)

	return &testApp{
		manager:      m,
		mailer:       mailer,
		authH:        NewAuthHandler(m, logger),
		resumeH:      NewResumeHandler(resumes, logger),
		letterH:      NewLetterHandler(store.NewLetterStore(db), resumes, logger),
		applicationH: NewApplicationHandler(store.NewApplicationStore(db), logger),
	}
}

func (a *testApp) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := a.manager.SignUp(t.Context(), email, "correct horse", "Test User")
	require.NoError(t, err)
	return u
}

type reqOption func(*http.Request)

func asUser(u *model.User) reqOption {
	return func(r *http.Request) {
		*r = *r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{User: u}))
	}
}

func withID(id int64) reqOption {
	return func(r *http.Request) { r.SetPathValue("id", strconv.FormatInt(id, 10)) }
}

func do(h http.HandlerFunc, method, body string, opts ...reqOption) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", rd)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func cookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	return nil
}
