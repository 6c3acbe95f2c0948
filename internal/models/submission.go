package models

import "time"

// SubmissionKind selects which form produced a submission record.
type SubmissionKind string

const (
	KindSurvey      SubmissionKind = "survey"
	KindPreregister SubmissionKind = "preregister"
	KindContact     SubmissionKind = "contact"
)

// FormSubmission is one append-only record of a user-submitted form.
// Records are never updated or deleted; only the fields relevant to the
// submission kind are populated.
type FormSubmission struct {
	Kind      SubmissionKind `json:"kind"`
	Role      string         `json:"role,omitempty"`
	Interests []string       `json:"interests,omitempty"`
	Feedback  string         `json:"feedback,omitempty"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email,omitempty"`
	Message   string         `json:"message,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
