package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/handler"
	"github.com/dukerupert/fitletter/internal/middleware"
	"github.com/dukerupert/fitletter/internal/store"
)

// Config tunes the public auth endpoints' rate limit.
type Config struct {
	RateLimit  int
	RateWindow time.Duration
	// TrustProxy keys the limit on CF-Connecting-IP/X-Forwarded-For. Leave it
	// off unless a proxy in front of the server overwrites those headers.
	TrustProxy bool
}

type Server struct {
	db           *sql.DB
	manager      *auth.Manager
	authH        *handler.AuthHandler
	resumeH      *handler.ResumeHandler
	letterH      *handler.LetterHandler
	applicationH *handler.ApplicationHandler
	limiter      middleware.Limiter
	cfg          Config
	logger       *slog.Logger
}

func New(db *sql.DB, manager *auth.Manager, limiter middleware.Limiter, cfg Config, logger *slog.Logger) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	resumeStore := store.NewResumeStore(db)

	return &Server{
		db:           db,
		manager:      manager,
		authH:        handler.NewAuthHandler(manager, logger.With("component", "auth")),
		resumeH:      handler.NewResumeHandler(resumeStore, logger.With("component", "resume")),
		letterH:      handler.NewLetterHandler(store.NewLetterStore(db), resumeStore, logger.With("component", "letter")),
		applicationH: handler.NewApplicationHandler(store.NewApplicationStore(db), logger.With("component", "application")),
		limiter:      limiter,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.SignUp))
	outerMux.HandleFunc("POST /api/auth/signin", s.rateLimitedHandler(s.authH.SignIn))
	outerMux.HandleFunc("POST /api/auth/forgot-password", s.rateLimitedHandler(s.authH.ForgotPassword))
	outerMux.HandleFunc("POST /api/auth/reset-password", s.rateLimitedHandler(s.authH.ResetPassword))
	outerMux.HandleFunc("POST /api/auth/signout", s.authH.SignOut)
	outerMux.HandleFunc("GET "+s.manager.Config().LoginPath, s.authH.LoginPage)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.manager)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	clientIP := middleware.ClientIP(s.cfg.TrustProxy)
	keyFunc := func(r *http.Request) string {
		return "auth:" + clientIP(r)
	}
	rl := middleware.RateLimit(s.limiter, keyFunc, s.cfg.RateLimit, s.cfg.RateWindow, s.logger.With("component", "ratelimit"))
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("DELETE /api/account", s.authH.DeleteAccount)

	mux.HandleFunc("GET /api/resumes", s.resumeH.List)
	mux.HandleFunc("POST /api/resumes", s.resumeH.Create)
	mux.HandleFunc("GET /api/resumes/{id}", s.resumeH.Get)
	mux.HandleFunc("PUT /api/resumes/{id}", s.resumeH.Update)
	mux.HandleFunc("DELETE /api/resumes/{id}", s.resumeH.Delete)

	mux.HandleFunc("GET /api/letters", s.letterH.List)
	mux.HandleFunc("POST /api/letters", s.letterH.Create)
	mux.HandleFunc("DELETE /api/letters/{id}", s.letterH.Delete)

	mux.HandleFunc("GET /api/applications", s.applicationH.List)
	mux.HandleFunc("POST /api/applications", s.applicationH.Create)
	mux.HandleFunc("PATCH /api/applications/{id}/status", s.applicationH.UpdateStatus)
	mux.HandleFunc("DELETE /api/applications/{id}", s.applicationH.Delete)
}
