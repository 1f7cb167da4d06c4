// Package files stores metadata of user uploads in PostgreSQL.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts file and sets its CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, user_id, storage_key, content_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.UserID, file.StorageKey, file.ContentType, file.Status).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns the files owned by userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.File, error) {
	query := ` SELECT id, user_id, storage_key, content_type, status, created_at from files
		WHERE user_id=$1 ORDER BY created_at DESC
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.UserID, &item.StorageKey, &item.ContentType, &item.Status, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the file id owned by userID, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, userID int64, id string) (*models.File, error) {
	query := ` SELECT id, user_id, storage_key, content_type, status, created_at from files
		WHERE id=$1 and user_id=$2
		`

	result := &models.File{}
	if err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&result.ID, &result.UserID, &result.StorageKey, &result.ContentType, &result.Status, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return result, nil
}

// MarkUploaded sets status='uploaded' for the file id owned by userID.
// Exactly one row must be affected; none means common.ErrorNotFound.
func (r *PostgresRepository) MarkUploaded(ctx context.Context, userID int64, id string) error {
	query := `update files set status='uploaded' where id=$1 and user_id=$2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark uploaded: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch ra {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
}
