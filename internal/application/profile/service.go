// Package profile serves the public seller profile: the derived display
// name, the avatar, and the seller handle. Handle changes are delegated to
// the allocator; this service never writes the reservation namespace itself.
package profile

import (
	"context"

	"github.com/go-market-nosql/internal/application/slugalloc"
	"github.com/go-market-nosql/internal/domain"
)

const fieldAvatar = "avatar"

type Service interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Profile, error)
	Upsert(ctx context.Context, userID string, fields map[string]interface{}) error
}

type service struct {
	repo  profileStore
	slugs slugalloc.Service
}

type ServiceDeps struct {
	ProfileRepo   profileStore
	SlugAllocator slugalloc.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.ProfileRepo, slugs: deps.SlugAllocator}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.Get(ctx, userID)
}

// GetBySlug resolves a public seller page by handle.
func (s *service) GetBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Update applies profile edits. A seller_slug edit runs the full
// reassignment path: validation, claim, adoption, listing propagation and
// release of the old handle. An empty seller_slug requests a fresh
// auto-allocated handle.
func (s *service) Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if req.SellerSlug != nil {
		if _, err := s.slugs.Reassign(ctx, userID, *req.SellerSlug); err != nil {
			return nil, err
		}
	}
	if req.Avatar != nil {
		if err := s.repo.Upsert(ctx, userID, map[string]interface{}{fieldAvatar: *req.Avatar}); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, userID)
}
