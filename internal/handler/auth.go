package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/middleware"
	"github.com/dukerupert/fitletter/internal/model"
)

type AuthHandler struct {
	manager *auth.Manager
	logger  *slog.Logger
}

func NewAuthHandler(m *auth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{manager: m, logger: logger}
}

type userResponse struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type userEnvelope struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// fail logs the detailed error and writes only its public form.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	pe := auth.Public(err)
	level := slog.LevelWarn
	if pe.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, op,
		"kind", string(auth.KindOf(err)),
		"error", err,
		"request_id", middleware.RequestID(r.Context()),
	)
	writeJSON(w, pe.Status, pe)
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.manager.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(w, r, "sign up", err)
		return
	}
	if _, err := h.manager.CreateSession(w, user.ID); err != nil {
		h.fail(w, r, "sign up session", err)
		return
	}

	writeJSON(w, http.StatusOK, userEnvelope{Success: true, User: toUserResponse(user)})
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "sign in", err)
		return
	}
	if _, err := h.manager.CreateSession(w, user.ID); err != nil {
		h.fail(w, r, "sign in session", err)
		return
	}

	writeJSON(w, http.StatusOK, userEnvelope{Success: true, User: toUserResponse(user)})
}

type loginResponse struct {
	SignIn         string `json:"signin"`
	SignUp         string `json:"signup"`
	ForgotPassword string `json:"forgot_password"`
}

// LoginPage is where unauthenticated browsers are redirected. It lists the
// endpoints that establish a session.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, loginResponse{
		SignIn:         "POST /api/auth/signin",
		SignUp:         "POST /api/auth/signup",
		ForgotPassword: "POST /api/auth/forgot-password",
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.manager.InvalidateSession(w, r)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ForgotPassword replies with the same body whether or not the account
// exists, and whether or not issuing the token worked.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.manager.RequestReset(r.Context(), req.Email); err != nil {
		h.logger.Error("request reset", "error", err, "request_id", middleware.RequestID(r.Context()))
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.manager.ConsumeReset(r.Context(), req.Token, req.Password); err != nil {
		h.fail(w, r, "reset password", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.User(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(u)})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.DeleteAccount(r.Context(), w, auth.UserID(r.Context())); err != nil {
		h.fail(w, r, "delete account", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
