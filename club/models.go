package club

import "time"

// Profile captures the subset of club data exposed via the public API layer.
type Profile struct {
	ID        string
	Name      string
	City      string
	Verified  bool
	CreatedAt time.Time
}

// Admin identifies a staff member who receives feedback-token notifications
// on behalf of a club.
type Admin struct {
	Name  string
	Email string
}
