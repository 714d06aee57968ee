package review

import (
	"context"
	"errors"
)

// ErrUnauthorized signals the caller's scope does not cover the requested
// listing.
var ErrUnauthorized = errors.New("review: caller not authorized for this query")

// Scope is the caller's authorization, built by the transport layer from the
// verified identity. The query service trusts it and never infers scope from
// data.
type Scope struct {
	Elevated bool
	ClubID   string
}

// Lister abstracts the listing read path for the service.
type Lister interface {
	List(ctx context.Context, filters Filters) ([]Item, error)
}

// Query exposes filtered views of reviews and their linked conflicts to
// authorized callers. Read-only; no side effects.
type Query struct {
	repo Lister
}

// NewQuery builds a Query service using the provided repository.
func NewQuery(repo Lister) *Query {
	return &Query{repo: repo}
}

// List returns reviews matching the filters, newest first. Elevated callers
// may query across all clubs; everyone else must filter by the club they
// represent.
func (q *Query) List(ctx context.Context, scope Scope, filters Filters) ([]Item, error) {
	if !scope.Elevated {
		if filters.TargetClubID == "" {
			return nil, ErrUnauthorized
		}
		if filters.TargetClubID != scope.ClubID {
			return nil, ErrUnauthorized
		}
	}
	return q.repo.List(ctx, filters)
}
