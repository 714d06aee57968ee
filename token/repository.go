package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals no token matches the presented secret.
	ErrNotFound = errors.New("token: not found")
	// ErrAlreadyUsed signals the token has been consumed.
	ErrAlreadyUsed = errors.New("token: already used")
	// ErrExpired signals the token's validity window has passed.
	ErrExpired = errors.New("token: expired")
	// ErrDuplicatePair signals a live token already exists for the directed
	// (event, issuer, target) triple. The partial unique index raises it when
	// two issuer runs race past the existence check.
	ErrDuplicatePair = errors.New("token: live token already exists for pair")
)

// PGRepository implements token persistence backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed token repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ExistsLive reports whether an unused token exists for the directed pair.
func (r *PGRepository) ExistsLive(ctx context.Context, eventID, issuerClubID, targetClubID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM feedback_tokens
			WHERE event_id = $1 AND issuer_club_id = $2 AND target_club_id = $3 AND NOT used
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, eventID, issuerClubID, targetClubID).Scan(&exists); err != nil {
		return false, fmt.Errorf("token: check live pair: %w", err)
	}
	return exists, nil
}

// Create inserts a freshly minted token. A lost race against another issuer
// run surfaces as ErrDuplicatePair via the live-pair unique index.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Token, error) {
	const insertSQL = `
		INSERT INTO feedback_tokens (id, secret_hash, event_id, issuer_club_id, target_club_id, expires_at)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING id, secret_hash, event_id, issuer_club_id, target_club_id, expires_at, used, created_at
	`

	tok, err := scanToken(r.pool.QueryRow(ctx, insertSQL,
		params.ID,
		params.SecretHash,
		params.EventID,
		params.IssuerClubID,
		params.TargetClubID,
		params.ExpiresAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Token{}, ErrDuplicatePair
		}
		return Token{}, fmt.Errorf("token: create: %w", err)
	}

	return tok, nil
}

// GetByHashForUpdate loads the token matching the secret hash inside the
// caller's transaction, locking the row so concurrent redemptions serialize.
func (r *PGRepository) GetByHashForUpdate(ctx context.Context, tx pgx.Tx, secretHash string) (Token, error) {
	const query = `
		SELECT id, secret_hash, event_id, issuer_club_id, target_club_id, expires_at, used, created_at
		FROM feedback_tokens
		WHERE secret_hash = $1
		FOR UPDATE
	`

	tok, err := scanToken(tx.QueryRow(ctx, query, secretHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("token: get by hash: %w", err)
	}
	return tok, nil
}

// Consume flips the used flag inside the caller's transaction. The
// compare-and-set on used guarantees a second consumer sees ErrAlreadyUsed
// even if it somehow bypassed the row lock.
func (r *PGRepository) Consume(ctx context.Context, tx pgx.Tx, tokenID string) error {
	tag, err := tx.Exec(ctx, `UPDATE feedback_tokens SET used = TRUE WHERE id = $1 AND NOT used`, tokenID)
	if err != nil {
		return fmt.Errorf("token: consume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

func scanToken(row pgx.Row) (Token, error) {
	var tok Token
	return tok, row.Scan(
		&tok.ID,
		&tok.SecretHash,
		&tok.EventID,
		&tok.IssuerClubID,
		&tok.TargetClubID,
		&tok.ExpiresAt,
		&tok.Used,
		&tok.CreatedAt,
	)
}
