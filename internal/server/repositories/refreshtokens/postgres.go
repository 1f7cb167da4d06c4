// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/server/models"
)

// PostgresRepository implements refresh token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token record.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tokenID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the record for tokenID.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, tokenID string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token_id, user_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_id = $1
	`
	t := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, tokenID).
		Scan(&t.ID, &t.TokenID, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Revoke flips revoked to true for an unrevoked record.
func (r *PostgresRepository) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token_id = $1 AND NOT revoked
	`
	res, err := r.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
