package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

type ResumeHandler struct {
	resumeStore *store.ResumeStore
	logger      *slog.Logger
}

func NewResumeHandler(rs *store.ResumeStore, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{resumeStore: rs, logger: logger}
}

type resumeRequest struct {
	Title        string          `json:"title" validate:"required"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email" validate:"omitempty,email"`
	LinkedInURL  *string         `json:"linkedin_url" validate:"omitempty,url"`
	PortfolioURL *string         `json:"portfolio_url" validate:"omitempty,url"`
	Summary      string          `json:"summary"`
	Skills       json.RawMessage `json:"skills"`
	Experiences  json.RawMessage `json:"experiences"`
	Projects     json.RawMessage `json:"projects"`
	Education    json.RawMessage `json:"education"`
}

func (req resumeRequest) toModel(userID int64) *model.Resume {
	return &model.Resume{
		UserID:       userID,
		Title:        req.Title,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		LinkedInURL:  req.LinkedInURL,
		PortfolioURL: req.PortfolioURL,
		Summary:      req.Summary,
		Skills:       req.Skills,
		Experiences:  req.Experiences,
		Projects:     req.Projects,
		Education:    req.Education,
	}
}

func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	resumes, err := h.resumeStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list resumes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list resumes")
		return
	}
	writeJSON(w, http.StatusOK, resumes)
}

func (h *ResumeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	resume, err := h.resumeStore.Create(req.toModel(auth.UserID(r.Context())))
	if err != nil {
		h.logger.Error("create resume", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create resume")
		return
	}
	writeJSON(w, http.StatusCreated, resume)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	resume, err := h.resumeStore.GetByID(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get resume", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get resume")
		return
	}
	if resume == nil {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req resumeRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	m := req.toModel(auth.UserID(r.Context()))
	m.ID = id
	resume, err := h.resumeStore.Update(m, time.Now())
	if err != nil {
		h.logger.Error("update resume", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update resume")
		return
	}
	if resume == nil {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.resumeStore.Delete(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("delete resume", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete resume")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
