package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
)

// UserService holds the administrative user operations.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher}
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// CreateSuperuser creates a verified superuser. An existing email yields
// ErrUserExists.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  true,
		IsVerified:   true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}
