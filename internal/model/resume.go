package model

import (
	"encoding/json"
	"time"
)

type Resume struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Title        string          `json:"title"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	LinkedInURL  *string         `json:"linkedin_url"`
	PortfolioURL *string         `json:"portfolio_url"`
	Summary      string          `json:"summary"`
	Skills       json.RawMessage `json:"skills"`
	Experiences  json.RawMessage `json:"experiences"`
	Projects     json.RawMessage `json:"projects"`
	Education    json.RawMessage `json:"education"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at"`
}
