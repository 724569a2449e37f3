package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type ResumeStore struct {
	db database.DBTX
}

func NewResumeStore(db database.DBTX) *ResumeStore {
	return &ResumeStore{db: db}
}

func scanResume(s scanner) (*model.Resume, error) {
	var (
		r                                        model.Resume
		linkedin, portfolio                      sql.NullString
		skills, experiences, projects, education string
		createdAt                                int64
		updatedAt                                sql.NullInt64
	)
	err := s.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Name, &r.Phone, &r.Email, &linkedin, &portfolio,
		&r.Summary, &skills, &experiences, &projects, &education, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.LinkedInURL = fromNullString(linkedin)
	r.PortfolioURL = fromNullString(portfolio)
	r.Skills = json.RawMessage(skills)
	r.Experiences = json.RawMessage(experiences)
	r.Projects = json.RawMessage(projects)
	r.Education = json.RawMessage(education)
	r.CreatedAt = fromUnix(createdAt)
	r.UpdatedAt = fromNullUnix(updatedAt)
	return &r, nil
}

const resumeCols = `id, user_id, title, name, phone, email, linkedin_url, portfolio_url, summary,
	skills, experiences, projects, education, created_at, updated_at`

// jsonOr returns raw as text, or def when raw is empty.
func jsonOr(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}

func (s *ResumeStore) Create(r *model.Resume) (*model.Resume, error) {
	result, err := s.db.Exec(
		`INSERT INTO resumes (user_id, title, name, phone, email, linkedin_url, portfolio_url, summary,
			skills, experiences, projects, education)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Title, r.Name, r.Phone, r.Email,
		toNullString(r.LinkedInURL), toNullString(r.PortfolioURL), r.Summary,
		jsonOr(r.Skills, "{}"), jsonOr(r.Experiences, "[]"), jsonOr(r.Projects, "[]"), jsonOr(r.Education, "[]"),
	)
	if err != nil {
		return nil, fmt.Errorf("insert resume: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, r.UserID)
}

// GetByID returns the resume only if it belongs to userID.
func (s *ResumeStore) GetByID(id, userID int64) (*model.Resume, error) {
	row := s.db.QueryRow(`SELECT `+resumeCols+` FROM resumes WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanResume(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return r, nil
}

// ListByUser returns the user's resumes, newest first.
func (s *ResumeStore) ListByUser(userID int64) ([]model.Resume, error) {
	rows, err := s.db.Query(
		`SELECT `+resumeCols+` FROM resumes WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []model.Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	return resumes, rows.Err()
}

// Update overwrites every editable field. It returns nil when the resume
// does not exist or belongs to someone else.
func (s *ResumeStore) Update(r *model.Resume, now time.Time) (*model.Resume, error) {
	result, err := s.db.Exec(
		`UPDATE resumes SET title = ?, name = ?, phone = ?, email = ?, linkedin_url = ?, portfolio_url = ?,
			summary = ?, skills = ?, experiences = ?, projects = ?, education = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.Title, r.Name, r.Phone, r.Email, toNullString(r.LinkedInURL), toNullString(r.PortfolioURL),
		r.Summary, jsonOr(r.Skills, "{}"), jsonOr(r.Experiences, "[]"), jsonOr(r.Projects, "[]"), jsonOr(r.Education, "[]"),
		unix(now), r.ID, r.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update resume: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(r.ID, r.UserID)
}

// Delete reports whether a row owned by userID was removed.
func (s *ResumeStore) Delete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM resumes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete resume: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
