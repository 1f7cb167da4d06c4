package users

import (
	"context"

	"github.com/dmitrijs2005/moi/internal/server/models"
)

// Repository is the credential store. Lookups by email are exact
// (case-sensitive) matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, email string) error
	List(ctx context.Context) ([]*models.User, error)
}
