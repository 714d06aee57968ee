package club

import "context"

// DirectoryReader abstracts repository operations for the service.
type DirectoryReader interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context, limit int) ([]Profile, error)
	AdminsOf(ctx context.Context, clubID string) ([]Admin, error)
}

// Service exposes business-level club directory operations.
type Service struct {
	repo DirectoryReader
}

// NewService builds a Service using the provided repository.
func NewService(repo DirectoryReader) *Service {
	return &Service{repo: repo}
}

// GetByID returns the club profile for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns up to limit club profiles.
func (s *Service) List(ctx context.Context, limit int) ([]Profile, error) {
	return s.repo.List(ctx, limit)
}

// AdminsOf returns the notification recipients for a club.
func (s *Service) AdminsOf(ctx context.Context, clubID string) ([]Admin, error) {
	return s.repo.AdminsOf(ctx, clubID)
}
