package service

import (
	"context"
	"testing"
	"time"

	"slotswap-api/core/constants"
	"slotswap-api/core/errors"
	"slotswap-api/modules/auth/dto"
	"slotswap-api/modules/auth/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	user.ID = uuid.New()
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.users[email], nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := r.users[email]
	return ok, nil
}

type fakeCache struct {
	store       map[string]string
	blacklist   map[string]bool
	attempts    map[string]int64
	blockedKeys map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		store:       map[string]string{},
		blacklist:   map[string]bool{},
		attempts:    map[string]int64{},
		blockedKeys: map[string]bool{},
	}
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.store[key] = value
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return c.store[key], nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (c *fakeCache) AddToTokenBlacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	c.blacklist[tokenID] = true
	return nil
}

func (c *fakeCache) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return c.blacklist[tokenID], nil
}

func (c *fakeCache) IncrementLoginAttempt(ctx context.Context, identifier string) (int64, error) {
	c.attempts[identifier]++
	return c.attempts[identifier], nil
}

func (c *fakeCache) IsLoginBlocked(ctx context.Context, identifier string) (bool, error) {
	return c.blockedKeys[identifier] || c.attempts[identifier] >= constants.MaxLoginAttempts, nil
}

func (c *fakeCache) ResetLoginAttempts(ctx context.Context, identifier string) error {
	delete(c.attempts, identifier)
	return nil
}

func newTestService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeCache) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	repo := newFakeUserRepo()
	cache := newFakeCache()
	return NewAuthService(repo, cache), repo, cache
}

func registered(t *testing.T, svc *AuthService) *dto.AuthResponse {
	t.Helper()
	resp, appErr := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
		Name:     "Alice",
	})
	require.Nil(t, appErr)
	return resp
}

func TestRegister_IssuesTokensAndHandle(t *testing.T) {
	svc, repo, _ := newTestService(t)

	resp := registered(t, svc)

	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Contains(t, resp.User.Handle, "alice")

	stored := repo.users["alice@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered(t, svc)

	_, appErr := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "another-pass",
		Name:     "Alice Again",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyExists, appErr.Code)
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered(t, svc)

	resp, appErr := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})

	require.Nil(t, appErr)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
}

func TestLogin_WrongPasswordCountsAttempt(t *testing.T) {
	svc, _, cache := newTestService(t)
	registered(t, svc)

	_, appErr := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
	assert.Equal(t, int64(1), cache.attempts["alice@example.com"])
}

func TestLogin_BlockedAfterTooManyAttempts(t *testing.T) {
	svc, _, cache := newTestService(t)
	registered(t, svc)
	cache.blockedKeys["alice@example.com"] = true

	_, appErr := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestVerifyAccessToken_Success(t *testing.T) {
	svc, _, _ := newTestService(t)
	resp := registered(t, svc)

	claims, appErr := svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)

	require.Nil(t, appErr)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, constants.ScopeTokenAccess, claims.Scope)
}

func TestVerifyAccessToken_RejectsRefreshScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	resp := registered(t, svc)

	_, appErr := svc.VerifyAccessToken(context.Background(), resp.Tokens.RefreshToken)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	resp := registered(t, svc)

	claims, appErr := svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	require.Nil(t, appErr)

	require.Nil(t, svc.Logout(context.Background(), claims))

	_, appErr = svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestVerifyAccessToken_RejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, appErr := svc.VerifyAccessToken(context.Background(), "not-a-token")

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidTokenFormat, appErr.Code)
}
