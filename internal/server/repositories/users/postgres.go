// Package users stores user accounts in PostgreSQL.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in the server-assigned fields. A duplicate
// email yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password, is_superuser, is_verified)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, nullString(user.PasswordHash), user.IsSuperuser, user.IsVerified).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password, is_superuser, is_verified, created_at, updated_at FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &password, &user.IsSuperuser, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.PasswordHash = password.String

	return user, nil
}

// MarkVerified sets is_verified for the user with email. Setting it again
// is not an error.
func (r *PostgresRepository) MarkVerified(ctx context.Context, email string) error {
	query :=
		`UPDATE users SET is_verified = TRUE, updated_at = now()
		 WHERE email = $1
		 `

	res, err := r.db.ExecContext(ctx, query, email)
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

// List returns every user ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT id, email, is_superuser, is_verified, created_at, updated_at FROM users
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.IsSuperuser, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
