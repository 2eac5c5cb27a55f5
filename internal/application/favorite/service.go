// Package favorite manages a user's saved listings.
package favorite

import (
	"context"
	"fmt"
	"time"

	"github.com/go-market-nosql/internal/domain"
)

type Service interface {
	Save(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	List(ctx context.Context, userID string) ([]domain.Listing, error)
}

type favoriteStore interface {
	Put(ctx context.Context, f *domain.Favorite) error
	Delete(ctx context.Context, userID, listingID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error)
}

type listingStore interface {
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
}

type service struct {
	repo     favoriteStore
	listings listingStore
}

type ServiceDeps struct {
	FavoriteRepo favoriteStore
	ListingRepo  listingStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.FavoriteRepo, listings: deps.ListingRepo}
}

// Save marks a listing as a favorite. Saving is idempotent; the composite
// key means a second save overwrites the first.
func (s *service) Save(ctx context.Context, userID, listingID string) error {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if !l.Enable {
		return fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	return s.repo.Put(ctx, &domain.Favorite{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *service) Remove(ctx context.Context, userID, listingID string) error {
	return s.repo.Delete(ctx, userID, listingID)
}

// List resolves the saved listings, dropping ones that have since been
// removed or disabled.
func (s *service) List(ctx context.Context, userID string) ([]domain.Listing, error) {
	favorites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings := make([]domain.Listing, 0, len(favorites))
	for _, f := range favorites {
		l, err := s.listings.Get(ctx, f.ListingID)
		if err != nil || !l.Enable {
			continue
		}
		listings = append(listings, *l)
	}
	return listings, nil
}
