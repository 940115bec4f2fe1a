// Package refreshtokens provides a PostgreSQL-backed session store for the
// refresh tokens issued by the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/dbx"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session row. A duplicate token string yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rt *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (token, user_id, user_email, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, rt.Token, rt.UserID, rt.UserEmail, rt.ExpiresAt).
		Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return rt, nil
}

// FindByToken returns the session for the given token string.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, user_email, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`
	return r.findOne(ctx, query, token)
}

// FindByTokenAndOwnerEmail returns the session only when it is owned by email.
// A token owned by someone else is reported as common.ErrorNotFound.
func (r *PostgresRepository) FindByTokenAndOwnerEmail(ctx context.Context, token, email string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, user_email, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND user_email = $2
	`
	return r.findOne(ctx, query, token, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, args ...any) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.UserEmail, &rt.CreatedAt, &rt.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// Delete removes a session by id. Concurrent deletes of the same row are
// serialized by the database; only one of them observes an affected row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now and
// returns the number of removed rows.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
