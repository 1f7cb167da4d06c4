// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrForbidden  = errors.New("not enough permissions")

	// Credential errors.
	ErrInvalidCredentials          = errors.New("invalid credentials")
	ErrCouldNotValidateCredentials = errors.New("could not validate credentials")
	ErrInvalidRefreshToken         = errors.New("invalid refresh token")
	ErrVerificationRequired        = errors.New("verification required")

	// Token decoding errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrInvalidTokenPayload = errors.New("invalid token payload")

	// Account errors.
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)
