package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-market-nosql/internal/application/slugalloc"
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
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSlugService struct{ mock.Mock }

func (m *mockSlugService) Allocate(ctx context.Context, id slugalloc.Identity) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
func (m *mockSlugService) Reassign(ctx context.Context, userID, requested string) (string, error) {
	args := m.Called(ctx, userID, requested)
	return args.String(0), args.Error(1)
}
func (m *mockSlugService) Ensure(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, ss *mockSessionStore, sl *mockSlugService, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		SlugAllocator:   sl,
		JWTProvider:     jwt,
		RefreshTokenDur: 24 * time.Hour,
	})
}

func notFoundErr() error {
	return fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	us := new(mockUserStore)
	sl := new(mockSlugService)
	us.On("GetByEmail", mock.Anything, "asha@example.com").Return(nil, notFoundErr())
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	sl.On("Ensure", mock.Anything, mock.AnythingOfType("string")).Return("asha-rao", nil)

	svc := newService(us, nil, sl, nil)
	u, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email:       "asha@example.com",
		Password:    "secret-pass",
		FirstName:   "Asha",
		LastName:    "Rao",
		DateOfBirth: "2000-04-07",
		Phone:       "(512) 123-6789",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, "+15121236789", u.PhoneE164)
	assert.True(t, u.Enable)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)
	sl.AssertCalled(t, "Ensure", mock.Anything, u.UserID)
}

func TestRegister_EmailTaken(t *testing.T) {
	us := new(mockUserStore)
	us.On("GetByEmail", mock.Anything, "asha@example.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: "asha@example.com", Password: "secret-pass", FirstName: "Asha", LastName: "Rao",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_InvalidDateOfBirth(t *testing.T) {
	us := new(mockUserStore)
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())

	svc := newService(us, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: "asha@example.com", Password: "secret-pass", FirstName: "Asha", LastName: "Rao",
		DateOfBirth: "07/04/2000",
	})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_AllocationFailureFailsSignup(t *testing.T) {
	us := new(mockUserStore)
	sl := new(mockSlugService)
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	sl.On("Ensure", mock.Anything, mock.Anything).Return("", fmt.Errorf("allocate: %w", domain.ErrSlugExhausted))

	svc := newService(us, nil, sl, nil)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: "asha@example.com", Password: "secret-pass", FirstName: "Asha", LastName: "Rao",
	})

	assert.ErrorIs(t, err, domain.ErrSlugExhausted)
}

func TestRegisterWithSession_Success(t *testing.T) {
	us := new(mockUserStore)
	ss := new(mockSessionStore)
	sl := new(mockSlugService)
	jwt := new(mockJWTSigner)
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	sl.On("Ensure", mock.Anything, mock.Anything).Return("asha-rao", nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, domain.RoleUser, mock.Anything).Return("bearer-token", nil)

	svc := newService(us, ss, sl, jwt)
	sess, bearer, refresh, err := svc.RegisterWithSession(context.Background(), domain.CreateUserRequest{
		Email: "asha@example.com", Password: "secret-pass", FirstName: "Asha", LastName: "Rao",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", bearer)
	assert.NotEmpty(t, refresh)
	assert.True(t, sess.Enable)
	assert.NotNil(t, sess.User)
}

// --- Update ---

func TestUpdate_NameChangeAppendsHistory(t *testing.T) {
	us := new(mockUserStore)
	sl := new(mockSlugService)
	existing := &domain.User{
		UserID: "u1", FirstName: "Asha", LastName: "Rao", NameChangeCount: 1,
		NameChanges: []domain.NameChange{{PrevFirst: "Asha", PrevLast: "Rai", NewFirst: "Asha", NewLast: "Rao"}},
	}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		if updates[fieldLastName] != "Raju" {
			return false
		}
		if updates[fieldNameChangeCount] != 2 {
			return false
		}
		history, ok := updates[fieldNameChanges].([]domain.NameChange)
		return ok && len(history) == 2 && history[1].PrevLast == "Rao" && history[1].NewLast == "Raju"
	})).Return(nil)
	sl.On("Ensure", mock.Anything, "u1").Return("asha-rao", nil)
	sl.On("Reassign", mock.Anything, "u1", "asha-rao").Return("asha-rao", nil)

	newLast := "Raju"
	svc := newService(us, nil, sl, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{LastName: &newLast})

	require.NoError(t, err)
	us.AssertExpectations(t)
	sl.AssertExpectations(t)
}

func TestUpdate_NameChangeLimitReached(t *testing.T) {
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", FirstName: "Asha", LastName: "Rao", NameChangeCount: domain.MaxNameChanges,
	}, nil)

	newLast := "Raju"
	svc := newService(us, nil, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{LastName: &newLast})

	assert.ErrorIs(t, err, domain.ErrNameChangeLimit)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_SameNameDoesNotCount(t *testing.T) {
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", FirstName: "Asha", LastName: "Rao", NameChangeCount: domain.MaxNameChanges,
		District: "north",
	}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		_, counted := updates[fieldNameChangeCount]
		return !counted && updates[fieldDistrict] == "south"
	})).Return(nil)

	sameFirst := "Asha"
	district := "south"
	svc := newService(us, nil, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		FirstName: &sameFirst, District: &district,
	})

	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestUpdate_PhoneNormalized(t *testing.T) {
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FirstName: "Asha", LastName: "Rao"}, nil).Twice()
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		return updates[fieldPhoneE164] == "+15121236789"
	})).Return(nil)

	raw := "(512) 123-6789"
	svc := newService(us, nil, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Phone: &raw})

	require.NoError(t, err)
}

// --- TouchLocation ---

func TestTouchLocation_DeduplicatesAndPrepends(t *testing.T) {
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", RecentLocations: []string{"austin", "dallas", "houston"},
	}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldRecentLocations: []string{"dallas", "austin", "houston"},
	}).Return(nil)

	svc := newService(us, nil, nil, nil)
	require.NoError(t, svc.TouchLocation(context.Background(), "u1", "dallas"))
	us.AssertExpectations(t)
}

func TestTouchLocation_CapsList(t *testing.T) {
	old := make([]string, domain.MaxRecentLocations)
	for i := range old {
		old[i] = fmt.Sprintf("district-%d", i)
	}
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", RecentLocations: old}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		locations, ok := updates[fieldRecentLocations].([]string)
		return ok && len(locations) == domain.MaxRecentLocations && locations[0] == "new-place"
	})).Return(nil)

	svc := newService(us, nil, nil, nil)
	require.NoError(t, svc.TouchLocation(context.Background(), "u1", "new-place"))
}

func TestTouchLocation_EmptyIgnored(t *testing.T) {
	us := new(mockUserStore)
	svc := newService(us, nil, nil, nil)
	require.NoError(t, svc.TouchLocation(context.Background(), "u1", ""))
	us.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

// --- ChangePassword ---

func TestChangePassword_WrongCurrent(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)

	svc := newService(us, nil, nil, nil)
	err := svc.ChangePassword(context.Background(), "u1", "wrong-pass", "new-pass")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_DisablesSessions(t *testing.T) {
	us := new(mockUserStore)
	ss := new(mockSessionStore)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)
	ss.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	svc := newService(us, ss, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "u1"))
	ss.AssertExpectations(t)
}
