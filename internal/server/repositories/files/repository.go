package files

import (
	"context"

	"github.com/dmitrijs2005/moi/internal/server/models"
)

// Repository stores file metadata. Lookups are scoped to the owning user so a
// foreign file is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, file *models.File) error
	ListByUser(ctx context.Context, userID int64) ([]*models.File, error)
	GetByID(ctx context.Context, userID int64, id string) (*models.File, error)
	MarkUploaded(ctx context.Context, userID int64, id string) error
}
