package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type ApplicationStore struct {
	db database.DBTX
}

func NewApplicationStore(db database.DBTX) *ApplicationStore {
	return &ApplicationStore{db: db}
}

func scanApplication(s scanner) (*model.Application, error) {
	var (
		a                 model.Application
		url, requirements sql.NullString
		deadline          sql.NullInt64
		createdAt         int64
	)
	err := s.Scan(&a.ID, &a.UserID, &a.JobTitle, &a.Company, &a.Status, &url, &requirements, &deadline, &createdAt)
	if err != nil {
		return nil, err
	}
	a.URL = fromNullString(url)
	a.Requirements = fromNullString(requirements)
	a.Deadline = fromNullUnix(deadline)
	a.CreatedAt = fromUnix(createdAt)
	return &a, nil
}

const applicationCols = `id, user_id, job_title, company, status, url, requirements, deadline, created_at`

func (s *ApplicationStore) Create(a *model.Application) (*model.Application, error) {
	status := a.Status
	if status == "" {
		status = model.ApplicationSaved
	}
	result, err := s.db.Exec(
		`INSERT INTO applications (user_id, job_title, company, status, url, requirements, deadline)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.JobTitle, a.Company, status,
		toNullString(a.URL), toNullString(a.Requirements), toNullUnix(a.Deadline),
	)
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, a.UserID)
}

func (s *ApplicationStore) GetByID(id, userID int64) (*model.Application, error) {
	row := s.db.QueryRow(`SELECT `+applicationCols+` FROM applications WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// ListByUser returns the user's applications, newest first.
func (s *ApplicationStore) ListByUser(userID int64) ([]model.Application, error) {
	rows, err := s.db.Query(
		`SELECT `+applicationCols+` FROM applications WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateStatus returns nil when no application with id belongs to userID.
func (s *ApplicationStore) UpdateStatus(id, userID int64, status model.ApplicationStatus) (*model.Application, error) {
	result, err := s.db.Exec(
		`UPDATE applications SET status = ? WHERE id = ? AND user_id = ?`,
		status, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id, userID)
}

func (s *ApplicationStore) Delete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM applications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
