package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/dbx"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/auth"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/config"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	refreshtokensrepo "github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/refreshtokens"
	usersrepo "github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nilUser bool
	getErr  error
	created int
	// createErr is returned by Create instead of storing the user.
	createErr error
}

func newFakeUsers(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byEmail: map[string]*models.User{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.created++
	cp := *u
	cp.ID = fmt.Sprintf("new%d", f.created)
	f.byEmail[cp.Email] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.nilUser {
		return nil, nil
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) remove(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byEmail, email)
}

// --- sessions ---

type fakeRefreshRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.RefreshToken // by id
	nextID int

	findErr   error
	createErr error
	deleteErr error

	// beforeDelete runs once, before the next Delete takes the lock.
	beforeDelete func()
}

func newFakeRefresh() *fakeRefreshRepo {
	return &fakeRefreshRepo{rows: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, rt *models.RefreshToken) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, r := range f.rows {
		if r.Token == rt.Token {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	cp := *rt
	cp.ID = fmt.Sprintf("s%d", f.nextID)
	cp.CreatedAt = time.Now()
	f.rows[cp.ID] = &cp
	rt.ID, rt.CreatedAt = cp.ID, cp.CreatedAt
	return rt, nil
}

func (f *fakeRefreshRepo) find(match func(*models.RefreshToken) bool) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.rows {
		if match(r) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return f.find(func(r *models.RefreshToken) bool { return r.Token == token })
}

func (f *fakeRefreshRepo) FindByTokenAndOwnerEmail(ctx context.Context, token, email string) (*models.RefreshToken, error) {
	return f.find(func(r *models.RefreshToken) bool { return r.Token == token && r.UserEmail == email })
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, id string) error {
	if hook := f.beforeDelete; hook != nil {
		f.beforeDelete = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.rows {
		if r.Expired(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshRepo) insert(rt models.RefreshToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rt.ID = fmt.Sprintf("s%d", f.nextID)
	f.rows[rt.ID] = &rt
}

func (f *fakeRefreshRepo) hasToken(token string) bool {
	_, err := f.FindByToken(context.Background(), token)
	return err == nil
}

func (f *fakeRefreshRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }

// --- collaborators ---

type fakeVerifier struct {
	secrets map[string]string
	err     error
}

func (v *fakeVerifier) Verify(ctx context.Context, identifier, secret string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	want, ok := v.secrets[identifier]
	return ok && want == secret, nil
}

// fakeHasher "hashes" by prefixing; secrets named "too-long" are rejected
// the way bcrypt rejects oversize input.
type fakeHasher struct {
	err error
}

func (h fakeHasher) Hash(secret string) ([]byte, error) {
	if h.err != nil {
		return nil, h.err
	}
	if secret == "too-long" {
		return nil, fmt.Errorf("%w: too long", common.ErrInvalidRequest)
	}
	return []byte("hashed:" + secret), nil
}

type fakePresence struct {
	mu           sync.Mutex
	disconnected []string
	err          error
}

func (p *fakePresence) Disconnected(ctx context.Context, subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnected = append(p.disconnected, subject)
	return p.err
}

type fakeExchange struct {
	mu       sync.Mutex
	entries  map[string]models.TokenPair
	n        int
	storeErr error
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{entries: map[string]models.TokenPair{}}
}

func (e *fakeExchange) Store(ctx context.Context, pair models.TokenPair) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.storeErr != nil {
		return "", e.storeErr
	}
	e.n++
	code := fmt.Sprintf("code-%d", e.n)
	e.entries[code] = pair
	return code, nil
}

func (e *fakeExchange) Redeem(ctx context.Context, code string) (*models.TokenPair, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code == "backend-down" {
		return nil, errors.New("redis down")
	}
	pair, ok := e.entries[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(e.entries, code)
	return &pair, nil
}

// --- fixture ---

const (
	aliceEmail  = "alice@example.com"
	aliceSecret = "correct horse"
	bobEmail    = "bob@example.com"
	bobSecret   = "battery staple"
)

type fixture struct {
	svc      *AuthService
	db       *sql.DB
	mock     sqlmock.Sqlmock
	users    *fakeUsersRepo
	sessions *fakeRefreshRepo
	presence *fakePresence
	exchange *fakeExchange
	verifier *fakeVerifier
	codec    *auth.Codec
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 7 * 24 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	codec, err := auth.NewCodec(auth.CodecConfig{Secret: []byte("k")})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	f := &fixture{
		db:   db,
		mock: mock,
		users: newFakeUsers(
			&models.User{ID: "u1", Email: aliceEmail},
			&models.User{ID: "u2", Email: bobEmail},
		),
		sessions: newFakeRefresh(),
		presence: &fakePresence{},
		exchange: newFakeExchange(),
		verifier: &fakeVerifier{secrets: map[string]string{aliceEmail: aliceSecret, bobEmail: bobSecret}},
		codec:    codec,
	}
	f.svc = f.newService(codec)
	return f
}

// newService builds another service over the same stores, e.g. with a
// differently clocked codec.
func (f *fixture) newService(codec *auth.Codec) *AuthService {
	return NewAuthService(f.db, &fakeRepoManager{u: f.users, r: f.sessions}, testConfig(), AuthDeps{
		Codec:    codec,
		Verifier: f.verifier,
		Hasher:   fakeHasher{},
		Exchange: f.exchange,
		Presence: f.presence,
	})
}

func (f *fixture) login(t *testing.T, email, secret string) *models.TokenPair {
	t.Helper()
	pair, err := f.svc.Login(context.Background(), email, secret)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	return pair
}

func (f *fixture) expectRotation() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}
