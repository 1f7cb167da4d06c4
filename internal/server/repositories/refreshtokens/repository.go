// Package refreshtokens declares the server-side repository contract for
// the refresh token records that back session rotation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moi/internal/server/models"
)

// Repository defines operations for recording, retrieving, and revoking
// issued refresh tokens. Records are keyed by the JWT id (jti).
type Repository interface {
	// Create records a refresh token issued to userID.
	Create(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error

	// Find looks up a record by jti. Implementations return
	// common.ErrorNotFound when it is absent.
	Find(ctx context.Context, tokenID string) (*models.RefreshToken, error)

	// Revoke marks an unrevoked record as revoked. It returns
	// common.ErrorNotFound when no unrevoked record with tokenID exists,
	// so concurrent rotations of the same token cannot both succeed.
	Revoke(ctx context.Context, tokenID string) error
}
