package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verifyPrefix = "http://localhost:8000/auth/verify?token="

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, verifyPrefix)
	require.GreaterOrEqual(t, i, 0, "verification link missing")
	rest := body[i+len(verifyPrefix):]
	end := strings.IndexAny(rest, `"<`)
	require.Greater(t, end, 0)
	return rest[:end]
}

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	mail := &fakeMailQueue{}
	codec := newCodec(t, 24*time.Hour)
	s := newSessionService(t, db, rm, mail, codec)

	u, err := s.Register(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsVerified)
	assert.NotEqual(t, "pw", u.PasswordHash)

	sent := mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "Email Verification for moi", sent[0].Subject)

	claims, err := codec.Decode(tokenFromLink(t, sent[0].HTMLBody), auth.KindVerify)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
}

func TestRegister_Duplicate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	mail := &fakeMailQueue{}
	s := newSessionService(t, db, rm, mail, newCodec(t, time.Hour))

	_, err := s.Register(context.Background(), "alice@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrUserExists)
	assert.Empty(t, mail.sent())
}

func TestRegister_RacingInsertIsDuplicate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.createErr = common.ErrorAlreadyExists
	s := newSessionService(t, db, rm, &fakeMailQueue{}, newCodec(t, time.Hour))

	_, err := s.Register(context.Background(), "alice@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrUserExists)
}

func TestRegister_SucceedsWhenMailIsDropped(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newSessionService(t, db, rm, &fakeMailQueue{full: true}, newCodec(t, time.Hour))

	u, err := s.Register(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
}

func TestRegister_StoreError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.getErr = errBoom{}
	s := newSessionService(t, db, rm, &fakeMailQueue{}, newCodec(t, time.Hour))

	_, err := s.Register(context.Background(), "alice@example.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrUserExists))
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	u := rm.u.put(&models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "pw"), IsVerified: true})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	session, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, UserData{ID: u.ID, Email: "alice@example.com", IsVerified: true}, session.User)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.AccessExpires, 2*time.Second)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), session.RefreshExpires, 2*time.Second)

	access, err := codec.Decode(session.AccessToken, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", access.Subject)

	refresh, err := codec.Decode(session.RefreshToken, auth.KindRefresh)
	require.NoError(t, err)
	rec, err := rm.r.Find(context.Background(), refresh.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, rec.UserID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "pw")})
	rm.u.put(&models.User{Email: "nopass@example.com"})
	s := newSessionService(t, db, rm, &fakeMailQueue{}, newCodec(t, time.Hour))

	cases := []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"ghost@example.com", "pw"},
		{"nopass@example.com", "pw"},
	}
	for _, tc := range cases {
		_, err := s.Login(context.Background(), tc.email, tc.password)
		assert.ErrorIs(t, err, common.ErrInvalidCredentials, tc.email)
	}
	assert.Equal(t, 0, rm.r.len())
}

func TestLogin_RefreshStoreError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "pw")})
	rm.r.createErr = errBoom{}
	s := newSessionService(t, db, rm, &fakeMailQueue{}, newCodec(t, time.Hour))

	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.Error(t, err)
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "pw")})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	first, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := s.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	oldClaims, _ := codec.Decode(first.RefreshToken, auth.KindRefresh)
	assert.True(t, rm.r.revoked(oldClaims.ID))
	newClaims, _ := codec.Decode(second.RefreshToken, auth.KindRefresh)
	assert.False(t, rm.r.revoked(newClaims.ID))

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_InvalidTokens(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	access, _, _ := codec.IssueAccess("alice@example.com")
	ghost, _, _, _ := codec.IssueRefresh("ghost@example.com")

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "garbage",
		"access token": access,
		"unknown user": ghost,
	} {
		_, err := s.Refresh(context.Background(), tok)
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken, name)
	}
}

func TestRefresh_UnrecordedToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	tok, _, _, _ := codec.IssueRefresh("alice@example.com")

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := s.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_TokenOfAnotherUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	bob := rm.u.put(&models.User{Email: "bob@example.com"})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	tok, jti, exp, _ := codec.IssueRefresh("alice@example.com")
	require.NoError(t, rm.r.Create(context.Background(), bob.ID, jti, exp))

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := s.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_BeginError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	tok, jti, exp, _ := codec.IssueRefresh("alice@example.com")
	require.NoError(t, rm.r.Create(context.Background(), 1, jti, exp))

	mock.ExpectBegin().WillReturnError(errors.New("begin fail"))
	_, err := s.Refresh(context.Background(), tok)
	require.Error(t, err)
	assert.False(t, rm.r.revoked(jti))
}

func TestLogout_RevokesPresentedToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "pw")})
	codec := newCodec(t, time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	session, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	s.Logout(context.Background(), session.RefreshToken)
	claims, _ := codec.Decode(session.RefreshToken, auth.KindRefresh)
	assert.True(t, rm.r.revoked(claims.ID))

	// no token, garbage and a second logout are all fine
	s.Logout(context.Background(), "")
	s.Logout(context.Background(), "garbage")
	s.Logout(context.Background(), session.RefreshToken)

	rm.r.revokeErr = errBoom{}
	s.Logout(context.Background(), session.RefreshToken)
}

func TestVerifyEmail_Idempotent(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	codec := newCodec(t, 24*time.Hour)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	tok, _, err := codec.IssueVerification("alice@example.com")
	require.NoError(t, err)

	require.NoError(t, s.VerifyEmail(context.Background(), tok))
	u, _ := rm.u.GetByEmail(context.Background(), "alice@example.com")
	assert.True(t, u.IsVerified)

	require.NoError(t, s.VerifyEmail(context.Background(), tok))
}

func TestVerifyEmail_Errors(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	codec := newCodec(t, 24*time.Hour)
	expiredCodec := newCodec(t, -time.Minute)
	s := newSessionService(t, db, rm, &fakeMailQueue{}, codec)

	expired, _, _ := expiredCodec.IssueVerification("alice@example.com")
	access, _, _ := codec.IssueAccess("alice@example.com")
	empty, _, _ := codec.IssueVerification("")
	ghost, _, _ := codec.IssueVerification("ghost@example.com")

	assert.ErrorIs(t, s.VerifyEmail(context.Background(), expired), common.ErrTokenExpired)
	assert.ErrorIs(t, s.VerifyEmail(context.Background(), access), common.ErrInvalidTokenType)
	assert.ErrorIs(t, s.VerifyEmail(context.Background(), "garbage"), common.ErrInvalidTokenType)
	assert.ErrorIs(t, s.VerifyEmail(context.Background(), empty), common.ErrInvalidTokenPayload)
	assert.ErrorIs(t, s.VerifyEmail(context.Background(), ghost), common.ErrUserNotFound)

	u, _ := rm.u.GetByEmail(context.Background(), "alice@example.com")
	assert.False(t, u.IsVerified)
}

func TestResendVerification(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.u.put(&models.User{Email: "alice@example.com"})
	rm.u.put(&models.User{Email: "done@example.com", IsVerified: true})
	mail := &fakeMailQueue{}
	s := newSessionService(t, db, rm, mail, newCodec(t, time.Hour))

	require.NoError(t, s.ResendVerification(context.Background(), "ghost@example.com"))
	require.NoError(t, s.ResendVerification(context.Background(), "done@example.com"))
	assert.Empty(t, mail.sent())

	require.NoError(t, s.ResendVerification(context.Background(), "alice@example.com"))
	sent := mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)

	rm.u.getErr = errBoom{}
	require.Error(t, s.ResendVerification(context.Background(), "alice@example.com"))
}
