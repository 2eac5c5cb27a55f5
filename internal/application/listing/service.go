// Package listing owns marketplace items. Every listing carries denormalized
// owner fields (handle, display name, avatar) so public pages render without
// a join; the handle copy is kept current by the allocator's propagation
// sweep, not by this service.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-market-nosql/internal/application/slugalloc"
	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldPrice       = "price"
	fieldCategory    = "category"
	fieldLocation    = "location"
	fieldDescription = "description"
)

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string, limit int, cursor string) ([]domain.Listing, string, error)
	Marketplace(ctx context.Context, category string, limit int, cursor string) ([]domain.Listing, string, error)
	Update(ctx context.Context, ownerID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error)
	Delete(ctx context.Context, ownerID, listingID string) error
}

type listingStore interface {
	Put(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	Update(ctx context.Context, listingID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, listingID string) error
	QueryByOwner(ctx context.Context, ownerID string, limit int32, cursor string) ([]domain.Listing, string, error)
	ScanPage(ctx context.Context, category string, limit int32, cursor string) ([]domain.Listing, string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type locationRecorder interface {
	TouchLocation(ctx context.Context, userID, location string) error
}

type service struct {
	repo      listingStore
	users     userStore
	profiles  profileStore
	slugs     slugalloc.Service
	locations locationRecorder
}

type ServiceDeps struct {
	ListingRepo   listingStore
	UserRepo      userStore
	ProfileRepo   profileStore
	SlugAllocator slugalloc.Service
	UserService   locationRecorder
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.ListingRepo,
		users:     deps.UserRepo,
		profiles:  deps.ProfileRepo,
		slugs:     deps.SlugAllocator,
		locations: deps.UserService,
	}
}

// Create publishes a listing. The owner must have a verified email, and the
// listing snapshots the owner's handle, display name and avatar at publish
// time. Ensure guarantees a handle exists even for accounts that predate
// handle allocation.
func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error) {
	u, err := s.users.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		return nil, fmt.Errorf("email must be verified before publishing: %w", domain.ErrForbidden)
	}
	if !validCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, domain.ErrBadRequest)
	}

	ownerSlug, err := s.slugs.Ensure(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ownerName := ""
	ownerAvatar := ""
	if p, err := s.profiles.Get(ctx, ownerID); err == nil {
		ownerName = p.DisplayName
		ownerAvatar = p.Avatar
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	l := &domain.Listing{
		ListingID:   id.New(),
		OwnerID:     ownerID,
		OwnerSlug:   ownerSlug,
		OwnerName:   ownerName,
		OwnerAvatar: ownerAvatar,
		Title:       req.Title,
		Price:       req.Price,
		Category:    req.Category,
		Location:    req.Location,
		Description: req.Description,
		Images:      req.Images,
		HasImages:   len(req.Images) > 0,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, l); err != nil {
		return nil, err
	}
	if err := s.locations.TouchLocation(ctx, ownerID, req.Location); err != nil {
		slog.Warn("failed to record posting location", "user_id", ownerID, "err", err)
	}
	return l, nil
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.Enable {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	return l, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string, limit int, cursor string) ([]domain.Listing, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.QueryByOwner(ctx, ownerID, int32(limit), cursor)
}

func (s *service) Marketplace(ctx context.Context, category string, limit int, cursor string) ([]domain.Listing, string, error) {
	if limit < 1 {
		limit = 50
	}
	if category != "" && !validCategory(category) {
		return nil, "", fmt.Errorf("unknown category %q: %w", category, domain.ErrBadRequest)
	}
	return s.repo.ScanPage(ctx, category, int32(limit), cursor)
}

// Update edits the owner's own listing. The denormalized owner fields are
// not editable here; only the allocator's sweep rewrites owner_slug.
func (s *service) Update(ctx context.Context, ownerID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error) {
	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != ownerID {
		return nil, fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Price != nil {
		updates[fieldPrice] = *req.Price
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return nil, fmt.Errorf("unknown category %q: %w", *req.Category, domain.ErrBadRequest)
		}
		updates[fieldCategory] = *req.Category
	}
	if req.Location != nil {
		updates[fieldLocation] = *req.Location
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if len(updates) == 0 {
		return l, nil
	}
	if err := s.repo.Update(ctx, listingID, updates); err != nil {
		return nil, err
	}
	if req.Location != nil {
		if err := s.locations.TouchLocation(ctx, ownerID, *req.Location); err != nil {
			slog.Warn("failed to record posting location", "user_id", ownerID, "err", err)
		}
	}
	return s.repo.Get(ctx, listingID)
}

func (s *service) Delete(ctx context.Context, ownerID, listingID string) error {
	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}
	return s.repo.SoftDelete(ctx, listingID)
}

func validCategory(c string) bool {
	for _, known := range domain.ListingCategories {
		if c == known {
			return true
		}
	}
	return false
}
