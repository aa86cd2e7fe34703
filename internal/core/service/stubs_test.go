package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	findErr error
	// skipExistsChecks simulates a concurrent registration that slipped
	// past the existence checks.
	skipExistsChecks bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipExistsChecks {
		return false, nil
	}
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipExistsChecks {
		return false, nil
	}
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return nil, domain.ErrDuplicateUsername
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	created := cloneUser(user)
	created.ID = "id-" + user.Username
	r.users[user.Username] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) delete(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

type testHasher struct{}

func (testHasher) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h), err
}

func (testHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type stubRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *stubRecorder) Record(e domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *stubRecorder) types() []domain.AuthEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type stubRoleRepo struct {
	roles   map[domain.RoleName]*domain.Role
	ensured []domain.RoleName
}

func (r *stubRoleRepo) FindByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *stubRoleRepo) Ensure(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	r.ensured = append(r.ensured, name)
	if role, ok := r.roles[name]; ok {
		return role, nil
	}
	role := &domain.Role{ID: "r-" + string(name), Name: name}
	r.roles[name] = role
	return role, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testRoles() []domain.Role {
	return []domain.Role{
		{ID: "r-user", Name: domain.RoleUser},
		{ID: "r-mod", Name: domain.RoleModerator},
		{ID: "r-admin", Name: domain.RoleAdmin},
	}
}

func mustCatalog(strict bool) *RoleCatalog {
	c, err := NewRoleCatalog(testRoles(), strict)
	if err != nil {
		panic(err)
	}
	return c
}

func mustTokens(ttl time.Duration) *TokenService {
	s, err := NewTokenService(testSecret, ttl)
	if err != nil {
		panic(err)
	}
	return s
}

func roleNames(roles []domain.Role) map[domain.RoleName]bool {
	out := make(map[domain.RoleName]bool, len(roles))
	for _, r := range roles {
		out[r.Name] = true
	}
	return out
}
