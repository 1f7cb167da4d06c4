package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
)

// CurrentUser is the principal resolved from an access token.
type CurrentUser struct {
	ID          int64
	Email       string
	IsVerified  bool
	IsSuperuser bool
}

// IdentityResolver turns access tokens into users.
type IdentityResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
}

func NewIdentityResolver(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec) *IdentityResolver {
	return &IdentityResolver{db: db, repomanager: m, codec: codec}
}

// Resolve decodes an access token and loads its user. Any decoding failure,
// an empty subject or an unknown user is ErrCouldNotValidateCredentials.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*CurrentUser, error) {
	if token == "" {
		return nil, common.ErrCouldNotValidateCredentials
	}
	claims, err := r.codec.Decode(token, auth.KindAccess)
	if err != nil || claims.Subject == "" {
		return nil, common.ErrCouldNotValidateCredentials
	}

	user, err := r.repomanager.Users(r.db).GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrCouldNotValidateCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	return &CurrentUser{
		ID:          user.ID,
		Email:       user.Email,
		IsVerified:  user.IsVerified,
		IsSuperuser: user.IsSuperuser,
	}, nil
}

// ResolveVerified is Resolve for endpoints that require a verified email.
func (r *IdentityResolver) ResolveVerified(ctx context.Context, token string) (*CurrentUser, error) {
	u, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !u.IsVerified {
		return nil, common.ErrVerificationRequired
	}
	return u, nil
}
