package model

import "time"

type ApplicationStatus string

const (
	ApplicationSaved        ApplicationStatus = "Saved"
	ApplicationApplied      ApplicationStatus = "Applied"
	ApplicationInterviewing ApplicationStatus = "Interviewing"
	ApplicationOffer        ApplicationStatus = "Offer"
	ApplicationRejected     ApplicationStatus = "Rejected"
)

// Valid reports whether s is one of the known pipeline stages.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSaved, ApplicationApplied, ApplicationInterviewing, ApplicationOffer, ApplicationRejected:
		return true
	}
	return false
}

// Application tracks a job the user is pursuing.
type Application struct {
	ID           int64             `json:"id"`
	UserID       int64             `json:"user_id"`
	JobTitle     string            `json:"job_title"`
	Company      string            `json:"company"`
	Status       ApplicationStatus `json:"status"`
	URL          *string           `json:"url"`
	Requirements *string           `json:"requirements"`
	Deadline     *time.Time        `json:"deadline"`
	CreatedAt    time.Time         `json:"created_at"`
}
