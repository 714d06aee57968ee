package club

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested club does not exist.
var ErrNotFound = errors.New("club: not found")

// Repository provides read access to club profiles and their administrators.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a club profile by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	const query = `
		SELECT id, name, city, verified, created_at
		FROM clubs
		WHERE id = $1
	`

	var profile Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.City,
		&profile.Verified,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("club: query by id: %w", err)
	}

	return profile, nil
}

// List fetches up to limit club profiles ordered by name.
func (r *Repository) List(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	const query = `
		SELECT id, name, city, verified, created_at
		FROM clubs
		ORDER BY name ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("club: list: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0, limit)
	for rows.Next() {
		var profile Profile
		if err := rows.Scan(&profile.ID, &profile.Name, &profile.City, &profile.Verified, &profile.CreatedAt); err != nil {
			return nil, fmt.Errorf("club: scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("club: iterate profiles: %w", err)
	}

	return profiles, nil
}

// AdminsOf returns the administrators of a club who should be notified when
// the club is issued a feedback token.
func (r *Repository) AdminsOf(ctx context.Context, clubID string) ([]Admin, error) {
	const query = `
		SELECT full_name, email
		FROM users
		WHERE club_id = $1 AND role = 'club_admin'
		ORDER BY full_name ASC
	`

	rows, err := r.pool.Query(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("club: query admins: %w", err)
	}
	defer rows.Close()

	admins := make([]Admin, 0, 4)
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("club: scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("club: iterate admins: %w", err)
	}

	return admins, nil
}
