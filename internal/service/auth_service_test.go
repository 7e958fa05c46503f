package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-vacancy-api/internal/models"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type stubUserStore struct {
	byEmail   map[string]*models.User
	byID      map[string]*models.User
	lastLogin map[string]time.Time
	logs      []models.AuditLog
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	s := &stubUserStore{
		byEmail:   make(map[string]*models.User),
		byID:      make(map[string]*models.User),
		lastLogin: make(map[string]time.Time),
	}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin[id] = ts
	return nil
}

func (s *stubUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

func authTestConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "course-vacancy-api"}
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u-1",
		Email:        "admin@example.org",
		PasswordHash: string(hash),
		FullName:     "Admin User",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	users := newStubUserStore(activeUser(t))
	svc := NewAuthService(users, nil, nil, authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret!", IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin@example.org", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	assert.Contains(t, users.lastLogin, "u-1")
	require.Len(t, users.logs, 1)
	assert.Equal(t, models.AuditActionLogin, users.logs[0].Action)
	assert.Equal(t, "10.0.0.1", users.logs[0].IPAddress)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newStubUserStore(activeUser(t)), nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.org", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := NewAuthService(newStubUserStore(user), nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret!"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	users := newStubUserStore(activeUser(t))
	issuer := NewAuthService(users, nil, nil, authTestConfig())

	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret!"})
	require.NoError(t, err)

	other := NewAuthService(users, nil, nil, AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), nil, nil, authTestConfig())
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestMe(t *testing.T) {
	user := activeUser(t)
	svc := NewAuthService(newStubUserStore(user), nil, nil, authTestConfig())

	info, err := svc.Me(context.Background(), &models.JWTClaims{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", info.Email)

	_, err = svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.Me(context.Background(), &models.JWTClaims{UserID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
