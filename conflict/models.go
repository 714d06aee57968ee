package conflict

import "time"

// Status represents the lifecycle of a conflict case. This subsystem only
// ever writes open; resolution happens elsewhere on the platform.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// Priority orders open cases for the platform team.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Record mirrors the conflicts table. A record exists exactly when its
// originating review carried a low rating, and is created in the same
// transaction as that review.
type Record struct {
	ID                string
	ReviewID          string
	EventID           string
	ComplainantClubID string
	RespondentClubID  string
	Status            Status
	Priority          Priority
	CreatedAt         time.Time
}

// CreateParams contains write parameters for opening a case.
type CreateParams struct {
	ReviewID          string
	EventID           string
	ComplainantClubID string
	RespondentClubID  string
	Priority          Priority
}
