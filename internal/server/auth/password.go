package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher hashes and verifies passwords with bcrypt. At most
// `workers` hash operations run at once; callers wait for a free slot or
// for their context to end.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher builds a hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost, and fewer than one worker means one.
func NewPasswordHasher(cost, workers int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. An empty hash (user without
// password) yields common.ErrInvalidCredentials.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if hash == "" {
		return false, common.ErrInvalidCredentials
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}
