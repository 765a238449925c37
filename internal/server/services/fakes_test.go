package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/totpgate/internal/server/repositories/refreshtokens"
	secretsrepo "github.com/dmitrijs2005/totpgate/internal/server/repositories/secrets"
	sessionsrepo "github.com/dmitrijs2005/totpgate/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/totpgate/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// t0 sits on a step boundary: 1748779200 is divisible by 60.
var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// rfcSecret is the RFC 4226 test key "12345678901234567890" in Base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

// newTxDB returns a sqlmock DB. Transactions must be announced with
// expectCommit/expectRollback; repositories themselves are in-memory fakes.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("sql expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

// memStore mimics the relational schema closely enough for service tests:
// unique usernames, one secret per user, and sessions filtered on
// expires_at the way the SQL does.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    []*models.User
	secrets  map[string]*models.Secret
	sessions []*models.VerificationSession
	tokens   map[string]*models.RefreshToken
	locks    []string

	// errs makes the named operation fail every time; errsOnce only once.
	errs     map[string]error
	errsOnce map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		secrets:  map[string]*models.Secret{},
		tokens:   map[string]*models.RefreshToken{},
		errs:     map[string]error{},
		errsOnce: map[string]error{},
	}
}

func (s *memStore) fail(op string) error {
	if err, ok := s.errsOnce[op]; ok {
		delete(s.errsOnce, op)
		return err
	}
	return s.errs[op]
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// addUser inserts a user and, when secret is non-empty, its secret.
func (s *memStore) addUser(username, displayName, secret string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:          s.nextID("u"),
		UserName:    username,
		DisplayName: displayName,
		Salt:        []byte("salt-" + username),
		Verifier:    []byte("verifier-" + username),
	}
	s.users = append(s.users, u)
	if secret != "" {
		s.secrets[u.ID] = &models.Secret{UserID: u.ID, Secret: secret}
	}
	cp := *u
	return &cp
}

func (s *memStore) userByID(id string) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *memStore) withUsername(v *models.VerificationSession) *models.VerificationSession {
	cp := *v
	if u := s.userByID(v.TargetID); u != nil {
		cp.TargetUsername = u.UserName
	}
	return &cp
}

func (s *memStore) liveCount(requesterID, targetID string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.sessions {
		if v.RequesterID == requesterID && v.TargetID == targetID && v.ExpiresAt.After(now) {
			n++
		}
	}
	return n
}

func (s *memStore) allSessions() []models.VerificationSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VerificationSession, 0, len(s.sessions))
	for _, v := range s.sessions {
		out = append(out, *v)
	}
	return out
}

// ---- users ----

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.UserName == user.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.ID = r.s.nextID("u")
	cp := *user
	r.s.users = append(r.s.users, &cp)
	return user, nil
}

func (r memUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.GetUserByLogin"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// ---- secrets ----

type memSecrets struct{ s *memStore }

func (r memSecrets) Create(ctx context.Context, userID string, secret string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("secrets.Create"); err != nil {
		return err
	}
	if _, ok := r.s.secrets[userID]; ok {
		return errors.New("duplicate secret")
	}
	r.s.secrets[userID] = &models.Secret{UserID: userID, Secret: secret}
	return nil
}

func (r memSecrets) GetByUserID(ctx context.Context, userID string) (*models.Secret, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("secrets.GetByUserID"); err != nil {
		return nil, err
	}
	sec, ok := r.s.secrets[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *sec
	return &cp, nil
}

// ---- sessions ----

type memSessions struct{ s *memStore }

func (r memSessions) LockPair(ctx context.Context, requesterID, targetID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.LockPair"); err != nil {
		return err
	}
	r.s.locks = append(r.s.locks, sessionsrepo.PairLockKey(requesterID, targetID))
	return nil
}

func (r memSessions) InvalidateLive(ctx context.Context, requesterID, targetID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.InvalidateLive"); err != nil {
		return 0, err
	}
	var n int64
	for _, v := range r.s.sessions {
		if v.RequesterID == requesterID && v.TargetID == targetID && v.ExpiresAt.After(now) {
			v.ExpiresAt = now
			n++
		}
	}
	return n, nil
}

func (r memSessions) Create(ctx context.Context, v *models.VerificationSession) (*models.VerificationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Create"); err != nil {
		return nil, err
	}
	if v.RequesterID == v.TargetID {
		return nil, errors.New("check constraint violation")
	}
	v.ID = r.s.nextID("s")
	cp := *v
	r.s.sessions = append(r.s.sessions, &cp)
	return v, nil
}

func (r memSessions) FindLive(ctx context.Context, requesterID, targetID string, now time.Time) (*models.VerificationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.FindLive"); err != nil {
		return nil, err
	}
	var best *models.VerificationSession
	for _, v := range r.s.sessions {
		if v.RequesterID == requesterID && v.TargetID == targetID && v.ExpiresAt.After(now) {
			if best == nil || v.VerifiedAt.After(best.VerifiedAt) {
				best = v
			}
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return r.s.withUsername(best), nil
}

func (r memSessions) ListLiveByRequester(ctx context.Context, requesterID string, now time.Time) ([]*models.VerificationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.ListLiveByRequester"); err != nil {
		return nil, err
	}
	out := make([]*models.VerificationSession, 0)
	for _, v := range r.s.sessions {
		if v.RequesterID == requesterID && v.ExpiresAt.After(now) {
			out = append(out, r.s.withUsername(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VerifiedAt.After(out[j].VerifiedAt) })
	return out, nil
}

func (r memSessions) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.VerificationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.ListExpiredBefore"); err != nil {
		return nil, err
	}
	out := make([]*models.VerificationSession, 0)
	for _, v := range r.s.sessions {
		if v.ExpiresAt.Before(cutoff) {
			out = append(out, r.s.withUsername(v))
		}
	}
	return out, nil
}

func (r memSessions) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.DeleteExpiredBefore"); err != nil {
		return 0, err
	}
	kept := r.s.sessions[:0]
	var n int64
	for _, v := range r.s.sessions {
		if v.ExpiresAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, v)
	}
	r.s.sessions = kept
	return n, nil
}

// ---- refresh tokens ----

type memRefreshTokens struct{ s *memStore }

func (r memRefreshTokens) Create(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("refreshtokens.Create"); err != nil {
		return err
	}
	r.s.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (r memRefreshTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("refreshtokens.Find"); err != nil {
		return nil, err
	}
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memRefreshTokens) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("refreshtokens.Delete"); err != nil {
		return err
	}
	delete(r.s.tokens, token)
	return nil
}

func (r memRefreshTokens) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("refreshtokens.DeleteExpiredBefore"); err != nil {
		return 0, err
	}
	var n int64
	for k, t := range r.s.tokens {
		if t.Expires.Before(cutoff) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

// ---- manager ----

type memRepoManager struct{ s *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return memUsers{m.s} }
func (m memRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return memRefreshTokens{m.s}
}
func (m memRepoManager) Secrets(dbx.DBTX) secretsrepo.Repository   { return memSecrets{m.s} }
func (m memRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository { return memSessions{m.s} }
