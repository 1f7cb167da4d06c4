// Package services contains server-side business logic. This file implements
// SessionService, which handles registration, login, refresh-token rotation,
// logout and email verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/logging"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/config"
	"github.com/dmitrijs2005/moi/internal/server/mailer"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// MailQueue accepts mail for asynchronous, at-most-once delivery.
type MailQueue interface {
	Submit(msg mailer.Message) bool
}

// UserData is the public part of a user returned with a session.
type UserData struct {
	ID         int64
	Email      string
	IsVerified bool
}

// Session is a freshly minted access/refresh token pair.
type Session struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
	User           UserData
}

// SessionService provides authentication-related operations:
// - Register: create users and send the verification email
// - Login: verify credentials and mint tokens
// - Refresh: rotate refresh tokens and mint new access tokens
// - VerifyEmail / ResendVerification: the email verification flow
type SessionService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	codec           *auth.Codec
	hasher          PasswordHasher
	mail            MailQueue
	projectName     string
	verificationURL string
	logger          logging.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher PasswordHasher,
	mail MailQueue, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:              db,
		repomanager:     m,
		codec:           codec,
		hasher:          hasher,
		mail:            mail,
		projectName:     cfg.ProjectName,
		verificationURL: cfg.VerificationURL,
		logger:          logger.With("module", "sessions"),
	}
}

// Register creates an unverified user and queues a verification email.
// The result does not depend on the email being delivered.
func (s *SessionService) Register(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrUserExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.sendVerification(ctx, user.Email)
	return user, nil
}

// Login checks email and password and, on success, returns a new Session.
// An unknown email and a wrong password are both ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issueSession(ctx, s.db, user)
}

// Refresh validates a refresh token, revokes it and returns a new Session
// in one transaction. A token that was already rotated or revoked is
// rejected with ErrInvalidRefreshToken.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidRefreshToken
	}
	claims, err := s.codec.Decode(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	var session *Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)

		record, err := repoTx.Find(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if record.Revoked || record.UserID != user.ID {
			return common.ErrInvalidRefreshToken
		}

		if err := repoTx.Revoke(ctx, claims.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return fmt.Errorf("error revoking refresh token: %w", err)
		}

		var genErr error
		session, genErr = s.issueSession(ctx, tx, user)
		return genErr
	}); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout revokes the presented refresh token if it can be decoded. It never
// fails; revocation errors are logged.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.codec.Decode(refreshToken, auth.KindRefresh)
	if err != nil || claims.ID == "" {
		return
	}
	err = s.repomanager.RefreshTokens(s.db).Revoke(ctx, claims.ID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "failed to revoke refresh token on logout", "error", err)
	}
}

// VerifyEmail marks the token's subject as verified. Verifying an already
// verified user succeeds.
func (s *SessionService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.codec.Decode(token, auth.KindVerify)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidTokenType
	}
	if claims.Subject == "" {
		return common.ErrInvalidTokenPayload
	}

	if err := s.repomanager.Users(s.db).MarkVerified(ctx, claims.Subject); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("error verifying user: %w", err)
	}
	return nil
}

// ResendVerification queues a new verification email for an unverified
// user. Unknown and already verified emails are ignored without error.
func (s *SessionService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}
	if user.IsVerified {
		return nil
	}
	s.sendVerification(ctx, user.Email)
	return nil
}

// --- helpers below ---

func (s *SessionService) issueSession(ctx context.Context, db dbx.DBTX, user *models.User) (*Session, error) {
	access, accessExp, err := s.codec.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, jti, refreshExp, err := s.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, jti, refreshExp); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &Session{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
		User:           UserData{ID: user.ID, Email: user.Email, IsVerified: user.IsVerified},
	}, nil
}

func (s *SessionService) sendVerification(ctx context.Context, email string) {
	token, _, err := s.codec.IssueVerification(email)
	if err != nil {
		s.logger.Error(ctx, "failed to issue verification token", "email", email, "error", err)
		return
	}
	msg, err := mailer.VerificationMessage(s.projectName, email, s.verificationURL+token)
	if err != nil {
		s.logger.Error(ctx, "failed to render verification email", "email", email, "error", err)
		return
	}
	s.mail.Submit(msg)
}
