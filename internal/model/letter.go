package model

import "time"

// Letter is a saved cover letter generated against one of the user's resumes.
type Letter struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ResumeID  int64     `json:"resume_id"`
	JobTitle  string    `json:"job_title"`
	Company   string    `json:"company"`
	JobDesc   string    `json:"job_desc"`
	Content   string    `json:"content"`
	Tone      string    `json:"tone"`
	ATSScore  *int      `json:"ats_score"`
	CreatedAt time.Time `json:"created_at"`
}
