// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash is empty when no password is set.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsSuperuser  bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
