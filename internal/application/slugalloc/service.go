// Package slugalloc is the single owner of seller handle allocation: candidate
// generation from the user's identity, the reservation claim protocol, handle
// reassignment, and propagation of the denormalized owner_slug to listings.
// Every call site that needs a handle goes through this service; nothing else
// writes the reservation namespace.
package slugalloc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/pkg/slug"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldSellerSlug  = "seller_slug"
	fieldDisplayName = "display_name"
)

// propagationPage is the largest page the store commits atomically; the
// sweep walks the owner's listings in pages of this size. DynamoDB caps
// a transaction at 100 action requests.
const propagationPage = 100

// randRounds bounds the randomized fallback before allocation gives up.
const randRounds = 10

// Identity carries the fields candidate generation draws from.
type Identity struct {
	UserID      string
	FirstName   string
	LastName    string
	DateOfBirth string // YYYY-MM-DD, may be empty
	Phone       string // raw, may be empty
	Email       string // last resort when the name fields are empty
}

type Service interface {
	Allocate(ctx context.Context, id Identity) (string, error)
	Reassign(ctx context.Context, userID, requested string) (string, error)
	Ensure(ctx context.Context, userID string) (string, error)
}

type reservationStore interface {
	Claim(ctx context.Context, slug, ownerID string) error
	Delete(ctx context.Context, slug string) error
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, userID string, fields map[string]interface{}) error
}

type listingStore interface {
	QueryIDsByOwner(ctx context.Context, ownerID string, limit int32, cursor string) ([]string, string, error)
	UpdateOwnerSlugPage(ctx context.Context, ids []string, newSlug string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	reservations reservationStore
	profiles     profileStore
	listings     listingStore
	users        userStore
	randInt      func(lo, hi int) int
}

type ServiceDeps struct {
	ReservationRepo reservationStore
	ProfileRepo     profileStore
	ListingRepo     listingStore
	UserRepo        userStore
	// RandInt overrides the random suffix source; nil uses math/rand.
	RandInt func(lo, hi int) int
}

func NewService(deps ServiceDeps) Service {
	ri := deps.RandInt
	if ri == nil {
		ri = func(lo, hi int) int { return lo + rand.Intn(hi-lo+1) }
	}
	return &service{
		reservations: deps.ReservationRepo,
		profiles:     deps.ProfileRepo,
		listings:     deps.ListingRepo,
		users:        deps.UserRepo,
		randInt:      ri,
	}
}

// Allocate walks the ordered candidate ladder and claims the first handle
// that is syntactically valid, aligned with the user's name, and free (or
// already owned by the user). It reserves the handle but does not adopt it
// onto the profile; the caller decides when to do that.
func (s *service) Allocate(ctx context.Context, id Identity) (string, error) {
	base1 := slug.Slugify(id.FirstName + " " + id.LastName)
	base2 := slug.Slugify(id.LastName + " " + id.FirstName)
	if base1 == "" && id.Email != "" {
		local, _, _ := strings.Cut(id.Email, "@")
		base1 = slug.Slugify(local)
		base2 = ""
	}

	for _, c := range candidates(base1, base2, id.DateOfBirth, id.Phone) {
		ok, err := s.tryClaim(ctx, c, id)
		if err != nil {
			return "", err
		}
		if ok {
			return c, nil
		}
	}

	for i := 0; i < randRounds; i++ {
		n := strconv.Itoa(s.randInt(100, 999))
		for _, base := range []string{base1, base2} {
			if base == "" {
				continue
			}
			c := base + "-" + n
			ok, err := s.tryClaim(ctx, c, id)
			if err != nil {
				return "", err
			}
			if ok {
				return c, nil
			}
		}
	}

	return "", fmt.Errorf("allocate handle for user %s: %w", id.UserID, domain.ErrSlugExhausted)
}

// Reassign moves a user to a new handle. When requested is empty the
// allocator picks one; otherwise the supplied candidate must pass the same
// syntax, alignment and availability checks. On a real change it claims the
// new handle, adopts it on the profile, rewrites every listing, and only
// then releases the old reservation (best effort).
func (s *service) Reassign(ctx context.Context, userID, requested string) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	id := Identity{
		UserID:      userID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: u.DateOfBirth,
		Phone:       u.Phone,
		Email:       u.Email,
	}

	old := ""
	p, err := s.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if p != nil {
		old = p.SellerSlug
	}

	display := slug.TitleCase(u.FirstName + " " + u.LastName)

	var newSlug string
	if requested != "" {
		if requested == old {
			// Nothing to move; still refresh the derived display name. The
			// held handle is not re-checked for alignment, so a name edit
			// never strands the user on an unrefreshable profile.
			return old, s.profiles.Upsert(ctx, userID, map[string]interface{}{
				fieldDisplayName: display,
			})
		}
		if !slug.Validate(requested) {
			return "", fmt.Errorf("handle %q is not valid: %w", requested, domain.ErrBadRequest)
		}
		if !slug.Aligned(requested, u.FirstName, u.LastName) {
			return "", fmt.Errorf("handle %q does not match your name: %w", requested, domain.ErrBadRequest)
		}
		if err := s.reservations.Claim(ctx, requested, userID); err != nil {
			return "", err
		}
		newSlug = requested
	} else {
		newSlug, err = s.Allocate(ctx, id)
		if err != nil {
			return "", err
		}
		if newSlug == old {
			return old, s.profiles.Upsert(ctx, userID, map[string]interface{}{
				fieldDisplayName: display,
			})
		}
	}

	if err := s.profiles.Upsert(ctx, userID, map[string]interface{}{
		fieldSellerSlug:  newSlug,
		fieldDisplayName: display,
	}); err != nil {
		return "", err
	}

	if err := s.propagate(ctx, userID, newSlug); err != nil {
		return "", err
	}

	// The new handle is already authoritative; a stale reservation for the
	// old one is a leak, not a correctness problem.
	if old != "" {
		if err := s.reservations.Delete(ctx, old); err != nil {
			slog.Warn("failed to release old handle reservation", "slug", old, "user_id", userID, "err", err)
		}
	}
	return newSlug, nil
}

// Ensure returns the user's current handle, allocating and adopting one when
// the profile has none yet. Listing creation calls this so every published
// listing carries an owner handle.
func (s *service) Ensure(ctx context.Context, userID string) (string, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if p != nil && p.SellerSlug != "" {
		return p.SellerSlug, nil
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	newSlug, err := s.Allocate(ctx, Identity{
		UserID:      userID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: u.DateOfBirth,
		Phone:       u.Phone,
		Email:       u.Email,
	})
	if err != nil {
		return "", err
	}
	if err := s.profiles.Upsert(ctx, userID, map[string]interface{}{
		fieldSellerSlug:  newSlug,
		fieldDisplayName: slug.TitleCase(u.FirstName + " " + u.LastName),
	}); err != nil {
		return "", err
	}
	return newSlug, nil
}

// propagate rewrites the denormalized owner_slug on every listing the user
// owns, one atomic page at a time. Each page commits all-or-nothing; the
// sweep as a whole does not, and a failure stops at the last committed page.
func (s *service) propagate(ctx context.Context, ownerID, newSlug string) error {
	cursor := ""
	for {
		ids, next, err := s.listings.QueryIDsByOwner(ctx, ownerID, propagationPage, cursor)
		if err != nil {
			return fmt.Errorf("propagate handle: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.listings.UpdateOwnerSlugPage(ctx, ids, newSlug); err != nil {
			return fmt.Errorf("propagate handle: %w", err)
		}
		if len(ids) < propagationPage || next == "" {
			return nil
		}
		cursor = next
	}
}

// candidates returns the ordered ladder before the randomized fallback:
// the two name orders, then each with a DDMM birth code, then with the
// phone's last four digits appended to the code (or alone when no birth
// date is known).
func candidates(base1, base2, dob, phone string) []string {
	var out []string
	add := func(c string) {
		if c != "" {
			out = append(out, c)
		}
	}
	add(base1)
	add(base2)

	code := slug.DDMM(dob)
	last4 := slug.Last4(phone)
	switch {
	case code != "" && last4 != "":
		addSuffixed(&out, base1, base2, code)
		addSuffixed(&out, base1, base2, code+last4)
	case code != "":
		addSuffixed(&out, base1, base2, code)
	case last4 != "":
		addSuffixed(&out, base1, base2, last4)
	}
	return out
}

func addSuffixed(out *[]string, base1, base2, suffix string) {
	if base1 != "" {
		*out = append(*out, base1+"-"+suffix)
	}
	if base2 != "" {
		*out = append(*out, base2+"-"+suffix)
	}
}

// tryClaim attempts one candidate. Invalid or misaligned candidates are
// skipped without touching the store; a claim lost to another owner advances
// the ladder; any other store error aborts the whole allocation.
func (s *service) tryClaim(ctx context.Context, candidate string, id Identity) (bool, error) {
	if !slug.Validate(candidate) {
		return false, nil
	}
	if !slug.Aligned(candidate, id.FirstName, id.LastName) {
		return false, nil
	}
	err := s.reservations.Claim(ctx, candidate, id.UserID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	return false, err
}
