package event

import (
	"context"
	"time"
)

// Reader abstracts repository operations for the service.
type Reader interface {
	GetByID(ctx context.Context, id string) (Event, error)
	List(ctx context.Context, filters Filters) ([]Event, int, error)
	FindConcludedBetween(ctx context.Context, from, to time.Time) ([]ConcludedEvent, error)
}

// ListResult bundles a page of events with the unpaged total.
type ListResult struct {
	Items []Event
	Total int
}

// Service exposes business-level event operations.
type Service struct {
	repo Reader
}

// NewService builds a Service using the provided repository.
func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// GetByID returns the event for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns events matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// FindConcludedBetween exposes the issuance window query.
func (s *Service) FindConcludedBetween(ctx context.Context, from, to time.Time) ([]ConcludedEvent, error) {
	return s.repo.FindConcludedBetween(ctx, from, to)
}
