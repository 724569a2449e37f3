package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fitletter/internal/auth"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

type LetterHandler struct {
	letterStore *store.LetterStore
	resumeStore *store.ResumeStore
	logger      *slog.Logger
}

func NewLetterHandler(ls *store.LetterStore, rs *store.ResumeStore, logger *slog.Logger) *LetterHandler {
	return &LetterHandler{letterStore: ls, resumeStore: rs, logger: logger}
}

type letterRequest struct {
	ResumeID int64  `json:"resume_id" validate:"required"`
	JobTitle string `json:"job_title" validate:"required"`
	Company  string `json:"company" validate:"required"`
	JobDesc  string `json:"job_desc" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Tone     string `json:"tone"`
	ATSScore *int   `json:"ats_score" validate:"omitempty,min=0,max=100"`
}

func (h *LetterHandler) List(w http.ResponseWriter, r *http.Request) {
	letters, err := h.letterStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list letters", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list letters")
		return
	}
	writeJSON(w, http.StatusOK, letters)
}

// Create saves a letter against one of the caller's own resumes.
func (h *LetterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req letterRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := auth.UserID(r.Context())
	resume, err := h.resumeStore.GetByID(req.ResumeID, userID)
	if err != nil {
		h.logger.Error("get resume for letter", "resume_id", req.ResumeID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create letter")
		return
	}
	if resume == nil {
		writeError(w, http.StatusNotFound, "resume not found")
		return
	}

	letter, err := h.letterStore.Create(&model.Letter{
		UserID:   userID,
		ResumeID: resume.ID,
		JobTitle: req.JobTitle,
		Company:  req.Company,
		JobDesc:  req.JobDesc,
		Content:  req.Content,
		Tone:     req.Tone,
		ATSScore: req.ATSScore,
	})
	if err != nil {
		h.logger.Error("create letter", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create letter")
		return
	}
	writeJSON(w, http.StatusCreated, letter)
}

func (h *LetterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.letterStore.Delete(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("delete letter", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete letter")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "letter not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
