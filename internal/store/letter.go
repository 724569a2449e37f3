package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
)

type LetterStore struct {
	db database.DBTX
}

func NewLetterStore(db database.DBTX) *LetterStore {
	return &LetterStore{db: db}
}

func scanLetter(s scanner) (*model.Letter, error) {
	var (
		l         model.Letter
		atsScore  sql.NullInt64
		createdAt int64
	)
	err := s.Scan(&l.ID, &l.UserID, &l.ResumeID, &l.JobTitle, &l.Company, &l.JobDesc,
		&l.Content, &l.Tone, &atsScore, &createdAt)
	if err != nil {
		return nil, err
	}
	if atsScore.Valid {
		v := int(atsScore.Int64)
		l.ATSScore = &v
	}
	l.CreatedAt = fromUnix(createdAt)
	return &l, nil
}

const letterCols = `id, user_id, resume_id, job_title, company, job_desc, content, tone, ats_score, created_at`

func (s *LetterStore) Create(l *model.Letter) (*model.Letter, error) {
	var ats sql.NullInt64
	if l.ATSScore != nil {
		ats = sql.NullInt64{Int64: int64(*l.ATSScore), Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO letters (user_id, resume_id, job_title, company, job_desc, content, tone, ats_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.ResumeID, l.JobTitle, l.Company, l.JobDesc, l.Content, l.Tone, ats,
	)
	if err != nil {
		return nil, fmt.Errorf("insert letter: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+letterCols+` FROM letters WHERE id = ?`, id)
	return scanLetter(row)
}

// ListByUser returns the user's letters, newest first.
func (s *LetterStore) ListByUser(userID int64) ([]model.Letter, error) {
	rows, err := s.db.Query(
		`SELECT `+letterCols+` FROM letters WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	defer rows.Close()

	letters := []model.Letter{}
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan letter: %w", err)
		}
		letters = append(letters, *l)
	}
	return letters, rows.Err()
}

func (s *LetterStore) Delete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM letters WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete letter: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
