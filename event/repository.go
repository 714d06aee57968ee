package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested event does not exist.
var ErrNotFound = errors.New("event: not found")

// Repository provides read access to events and their participant rosters.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches an event by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Event, error) {
	const query = `
		SELECT id, host_club_id, title, starts_at, ends_at, created_at
		FROM events
		WHERE id = $1
	`

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("event: query by id: %w", err)
	}
	return ev, nil
}

// List returns events matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters Filters) ([]Event, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	base := `SELECT id, host_club_id, title, starts_at, ends_at, created_at FROM events`
	where := " WHERE 1=1"
	args := []any{}

	if filters.HostClubID != "" {
		where += fmt.Sprintf(" AND host_club_id=$%d", len(args)+1)
		args = append(args, filters.HostClubID)
	}

	query := fmt.Sprintf("%s%s ORDER BY starts_at DESC LIMIT %d OFFSET %d",
		base, where, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("event: list: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("event: scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("event: iterate: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM events" + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("event: count: %w", err)
	}

	return events, total, nil
}

// FindConcludedBetween returns every event whose end boundary (start boundary
// when no end is set) falls in [from, to), with the deduplicated guest roster
// minus the host itself. Events without guests are omitted: there is nothing
// to issue feedback for.
func (r *Repository) FindConcludedBetween(ctx context.Context, from, to time.Time) ([]ConcludedEvent, error) {
	const query = `
		SELECT e.id, e.host_club_id,
		       COALESCE(array_agg(DISTINCT p.club_id) FILTER (
		           WHERE p.club_id IS NOT NULL AND p.club_id <> e.host_club_id
		       ), '{}')
		FROM events e
		LEFT JOIN event_participants p ON p.event_id = e.id
		WHERE COALESCE(e.ends_at, e.starts_at) >= $1
		  AND COALESCE(e.ends_at, e.starts_at) < $2
		GROUP BY e.id, e.host_club_id
		ORDER BY e.id
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("event: query concluded: %w", err)
	}
	defer rows.Close()

	concluded := make([]ConcludedEvent, 0, 8)
	for rows.Next() {
		var ce ConcludedEvent
		if err := rows.Scan(&ce.ID, &ce.HostClubID, &ce.GuestClubIDs); err != nil {
			return nil, fmt.Errorf("event: scan concluded: %w", err)
		}
		if len(ce.GuestClubIDs) == 0 {
			continue
		}
		concluded = append(concluded, ce)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event: iterate concluded: %w", err)
	}

	return concluded, nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var ev Event
	return ev, row.Scan(
		&ev.ID,
		&ev.HostClubID,
		&ev.Title,
		&ev.StartsAt,
		&ev.EndsAt,
		&ev.CreatedAt,
	)
}
