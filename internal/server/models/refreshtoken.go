package models

import "time"

// RefreshToken records one issued refresh JWT, identified by its jti.
// Revoked only ever goes from false to true.
type RefreshToken struct {
	ID        int64
	TokenID   string
	UserID    int64
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
