package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-market-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newSvc(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		JWTProvider:     jwt,
		RefreshTokenDur: 24 * time.Hour,
	})
}

func activeUser(password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &domain.User{
		UserID:       "u1",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enable:       true,
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "asha@example.com").Return(activeUser("secret-pass"), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "u1", domain.RoleUser, mock.Anything).Return("bearer", nil)

	result, err := newSvc(us, ss, jwt).Login(context.Background(), LoginRequest{
		Email: "asha@example.com", Password: "secret-pass",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer", result.Bearer)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "u1", result.Session.UserID)
	assert.NotNil(t, result.Session.User)
}

func TestLogin_WrongPassword(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "asha@example.com").Return(activeUser("secret-pass"), nil)

	_, err := newSvc(us, ss, jwt).Login(context.Background(), LoginRequest{
		Email: "asha@example.com", Password: "wrong",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("user not found: %w", domain.ErrNotFound))

	_, err := newSvc(us, ss, jwt).Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	u := activeUser("secret-pass")
	u.Enable = false
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(u, nil)

	_, err := newSvc(us, ss, jwt).Login(context.Background(), LoginRequest{
		Email: "asha@example.com", Password: "secret-pass",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Logout / GetCurrent ---

func TestLogout_DisablesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Update", mock.Anything, "s1", map[string]interface{}{fieldEnable: false}).Return(nil)

	require.NoError(t, newSvc(&mockUserStore{}, ss, &mockJWTSigner{}).Logout(context.Background(), "s1"))
	ss.AssertExpectations(t)
}

func TestGetCurrent_ExpiredSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: false}, nil)

	_, err := newSvc(&mockUserStore{}, ss, &mockJWTSigner{}).GetCurrent(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "s1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(activeUser("x"), nil)
	jwt.On("Sign", "u1", domain.RoleUser, "s1").Return("new-bearer", nil)

	bearer, newToken, err := newSvc(us, ss, jwt).Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	_, _, err := newSvc(&mockUserStore{}, ss, &mockJWTSigner{}).Refresh(context.Background(), "old-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	ss.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
