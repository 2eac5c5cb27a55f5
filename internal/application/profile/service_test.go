package profile

import (
	"context"
	"testing"

	"github.com/go-market-nosql/internal/application/slugalloc"
	"github.com/go-market-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) GetBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	args := m.Called(ctx, slug)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) Upsert(ctx context.Context, userID string, fields map[string]interface{}) error {
	return m.Called(ctx, userID, fields).Error(0)
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

func TestUpdate_SlugChangeDelegatesToAllocator(t *testing.T) {
	repo := &mockProfileStore{}
	slugs := &mockSlugService{}
	requested := "asha-rao-0704"
	slugs.On("Reassign", mock.Anything, "u1", requested).Return(requested, nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.Profile{UserID: "u1", SellerSlug: requested}, nil)

	svc := NewService(ServiceDeps{ProfileRepo: repo, SlugAllocator: slugs})
	p, err := svc.Update(context.Background(), "u1", domain.UpdateProfileRequest{SellerSlug: &requested})

	require.NoError(t, err)
	assert.Equal(t, requested, p.SellerSlug)
	slugs.AssertExpectations(t)
	repo.AssertNotCalled(t, "Upsert")
}

func TestUpdate_SlugFailureSurfaces(t *testing.T) {
	repo := &mockProfileStore{}
	slugs := &mockSlugService{}
	requested := "taken-handle"
	slugs.On("Reassign", mock.Anything, "u1", requested).Return("", domain.ErrConflict)

	svc := NewService(ServiceDeps{ProfileRepo: repo, SlugAllocator: slugs})
	_, err := svc.Update(context.Background(), "u1", domain.UpdateProfileRequest{SellerSlug: &requested})

	assert.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Get")
}

func TestUpdate_AvatarOnly(t *testing.T) {
	repo := &mockProfileStore{}
	slugs := &mockSlugService{}
	avatar := "https://cdn.example.com/a.jpg"
	repo.On("Upsert", mock.Anything, "u1", map[string]interface{}{fieldAvatar: avatar}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.Profile{UserID: "u1", Avatar: avatar}, nil)

	svc := NewService(ServiceDeps{ProfileRepo: repo, SlugAllocator: slugs})
	p, err := svc.Update(context.Background(), "u1", domain.UpdateProfileRequest{Avatar: &avatar})

	require.NoError(t, err)
	assert.Equal(t, avatar, p.Avatar)
	slugs.AssertNotCalled(t, "Reassign")
	repo.AssertExpectations(t)
}

func TestGetBySlug_NotFound(t *testing.T) {
	repo := &mockProfileStore{}
	repo.On("GetBySlug", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := NewService(ServiceDeps{ProfileRepo: repo, SlugAllocator: &mockSlugService{}})
	_, err := svc.GetBySlug(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
