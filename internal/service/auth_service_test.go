package service

import (
	"context"
	"testing"

	"tradenet/internal/apperr"
	"tradenet/internal/config"
	"tradenet/internal/dto"
	"tradenet/internal/model"
	"tradenet/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory UserRepository stub ────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	result := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func testAuthConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1, JWTRefreshHours: 2}
}

func seedEmployee(t *testing.T, repo *stubUserRepo, username, password string, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         "Test Employee",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	repo.users[u.ID] = u
	return u
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestLoginIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	seedEmployee(t, repo, "alice", "s3cret", true)
	svc := NewAuthService(repo, testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedEmployee(t, repo, "alice", "s3cret", true)
	svc := NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLoginDeactivatedEmployee(t *testing.T) {
	repo := newStubUserRepo()
	seedEmployee(t, repo, "bob", "s3cret", false)
	svc := NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "bob", Password: "s3cret"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRefreshRoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	seedEmployee(t, repo, "alice", "s3cret", true)
	svc := NewAuthService(repo, testAuthConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "alice", refreshed.User.Username)
}

func TestRefreshRejectedAfterDeactivation(t *testing.T) {
	repo := newStubUserRepo()
	u := seedEmployee(t, repo, "alice", "s3cret", true)
	svc := NewAuthService(repo, testAuthConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, repo.Deactivate(context.Background(), u.ID))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestCreateAndDeactivateUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testAuthConfig())
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "carol", Name: "Carol", Password: "longenough",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	id := uuid.MustParse(created.ID)
	require.NoError(t, svc.DeactivateUser(ctx, id))

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, svc.ReactivateUser(ctx, id))
	stored, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}
