package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/logging"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/config"
	"github.com/dmitrijs2005/moi/internal/server/mailer"
	"github.com/dmitrijs2005/moi/internal/server/models"
	filesrepo "github.com/dmitrijs2005/moi/internal/server/repositories/files"
	refreshtokensrepo "github.com/dmitrijs2005/moi/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/moi/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newCodec(t *testing.T, verificationTTL time.Duration) *auth.Codec {
	t.Helper()
	c, err := auth.NewCodec(auth.Options{
		Secret:          []byte("k"),
		Algorithm:       "HS256",
		AccessTTL:       time.Hour,
		RefreshTTL:      48 * time.Hour,
		VerificationTTL: verificationTTL,
	})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func testConfig() *config.Config {
	return &config.Config{
		ProjectName:     "moi",
		VerificationURL: "http://localhost:8000/auth/verify?token=",
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- fakes ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  int64

	getErr    error
	createErr error
	listErr   error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	cp := *u
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byEmail[u.Email] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) MarkVerified(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUsersRepo) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.User
	for _, u := range f.byEmail {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsersRepo) put(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = u
	return u
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	records map[string]*models.RefreshToken

	createErr error
	findErr   error
	revokeErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{records: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.records[tokenID] = &models.RefreshToken{TokenID: tokenID, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, tokenID string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.records[tokenID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeRefreshRepo) Revoke(_ context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	r, ok := f.records[tokenID]
	if !ok || r.Revoked {
		return common.ErrorNotFound
	}
	r.Revoked = true
	return nil
}

func (f *fakeRefreshRepo) revoked(tokenID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[tokenID]
	return ok && r.Revoked
}

func (f *fakeRefreshRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeFilesRepo struct {
	files map[string]*models.File

	createErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{files: map[string]*models.File{}}
}

func (f *fakeFilesRepo) Create(_ context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	file.CreatedAt = time.Now()
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeFilesRepo) ListByUser(_ context.Context, userID int64) ([]*models.File, error) {
	var out []*models.File
	for _, file := range f.files {
		if file.UserID == userID {
			cp := *file
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFilesRepo) GetByID(_ context.Context, userID int64, id string) (*models.File, error) {
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFilesRepo) MarkUploaded(_ context.Context, userID int64, id string) error {
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return common.ErrorNotFound
	}
	file.Status = models.FileStatusUploaded
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	f *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo(), f: newFakeFilesRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository                 { return m.f }

type fakeMailQueue struct {
	mu   sync.Mutex
	msgs []mailer.Message
	full bool
}

func (q *fakeMailQueue) Submit(msg mailer.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, msg)
	return true
}

func (q *fakeMailQueue) sent() []mailer.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]mailer.Message(nil), q.msgs...)
}

func newHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost, 2)
}

func newSessionService(t *testing.T, db *sql.DB, rm *fakeRepoManager, mail *fakeMailQueue, codec *auth.Codec) *SessionService {
	t.Helper()
	return NewSessionService(db, rm, codec, newHasher(), mail, testConfig(), logging.Nop())
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := newHasher().Hash(context.Background(), pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}
