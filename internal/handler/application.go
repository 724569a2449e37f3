package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

type ApplicationHandler struct {
	applicationStore *store.ApplicationStore
	logger           *slog.Logger
}

func NewApplicationHandler(as *store.ApplicationStore, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{applicationStore: as, logger: logger}
}

type applicationRequest struct {
	JobTitle     string     `json:"job_title" validate:"required"`
	Company      string     `json:"company" validate:"required"`
	Status       string     `json:"status" validate:"omitempty,application_status"`
	URL          *string    `json:"url" validate:"omitempty,url"`
	Requirements *string    `json:"requirements"`
	Deadline     *time.Time `json:"deadline"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,application_status"`
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list applications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	app, err := h.applicationStore.Create(&model.Application{
		UserID:       auth.UserID(r.Context()),
		JobTitle:     req.JobTitle,
		Company:      req.Company,
		Status:       model.ApplicationStatus(req.Status),
		URL:          req.URL,
		Requirements: req.Requirements,
		Deadline:     req.Deadline,
	})
	if err != nil {
		h.logger.Error("create application", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create application")
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req statusRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	app, err := h.applicationStore.UpdateStatus(id, auth.UserID(r.Context()), model.ApplicationStatus(req.Status))
	if err != nil {
		h.logger.Error("update application status", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update application")
		return
	}
	if app == nil {
		writeError(w, http.StatusNotFound, "application not found")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.applicationStore.Delete(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("delete application", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete application")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "application not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
