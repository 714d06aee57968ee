package event

import "time"

// Event mirrors the events table columns this service touches.
type Event struct {
	ID         string
	HostClubID string
	Title      string
	StartsAt   time.Time
	EndsAt     *time.Time
	CreatedAt  time.Time
}

// ConcludedEvent is the projection the token issuer works from: the host club
// plus every distinct guest club that took part.
type ConcludedEvent struct {
	ID           string
	HostClubID   string
	GuestClubIDs []string
}

// Filters narrows event listings.
type Filters struct {
	HostClubID string
	Page       int
	PageSize   int
}
