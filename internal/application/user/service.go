package user

import (
	"context"
	"fmt"
	"time"

	"github.com/go-market-nosql/internal/application/slugalloc"
	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/pkg/id"
	"github.com/go-market-nosql/internal/pkg/phone"
	pkgtoken "github.com/go-market-nosql/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName       = "first_name"
	fieldLastName        = "last_name"
	fieldDateOfBirth     = "date_of_birth"
	fieldDistrict        = "district"
	fieldPhone           = "phone"
	fieldPhoneE164       = "phone_e164"
	fieldPasswordHash    = "password_hash"
	fieldNameChangeCount = "name_change_count"
	fieldNameChanges     = "name_change_history"
	fieldRecentLocations = "recent_locations"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	TouchLocation(ctx context.Context, userID, location string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type service struct {
	repo            userStore
	sessionRepo     sessionStore
	slugs           slugalloc.Service
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	SlugAllocator   slugalloc.Service
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:            deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		slugs:           deps.SlugAllocator,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

// Register creates the private account record, then allocates a seller handle
// and adopts it onto a fresh public profile. A handle allocation failure
// fails the signup after the account record is written; the account is
// reachable via login and Ensure assigns it a handle on first listing.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if req.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", req.DateOfBirth); err != nil {
			return nil, fmt.Errorf("date_of_birth must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  req.DateOfBirth,
		District:     req.District,
		Phone:        req.Phone,
		PhoneE164:    phone.E164(req.Phone),
		Role:         domain.RoleUser,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	if _, err := s.slugs.Ensure(ctx, u.UserID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error) {
	u, err := s.Register(ctx, req)
	if err != nil {
		return nil, "", "", err
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, "", "", err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, "", "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, "", "", err
	}
	sess.User = u
	return sess, bearer, refreshToken, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// Update applies partial edits to the private profile. A first or last name
// edit counts against the lifetime cap and is appended to the name change
// log; when either name changes the derived display name and, via the
// allocator's same-slug path, the public profile are refreshed.
func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	nameChanged := false
	newFirst, newLast := u.FirstName, u.LastName
	if req.FirstName != nil && *req.FirstName != u.FirstName {
		newFirst = *req.FirstName
		updates[fieldFirstName] = newFirst
		nameChanged = true
	}
	if req.LastName != nil && *req.LastName != u.LastName {
		newLast = *req.LastName
		updates[fieldLastName] = newLast
		nameChanged = true
	}
	if nameChanged {
		if u.NameChangeCount >= domain.MaxNameChanges {
			return nil, fmt.Errorf("name can be changed at most %d times: %w", domain.MaxNameChanges, domain.ErrNameChangeLimit)
		}
		updates[fieldNameChangeCount] = u.NameChangeCount + 1
		updates[fieldNameChanges] = append(u.NameChanges, domain.NameChange{
			PrevFirst: u.FirstName,
			PrevLast:  u.LastName,
			NewFirst:  newFirst,
			NewLast:   newLast,
			ChangedAt: time.Now().UTC(),
		})
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth != "" {
			if _, err := time.Parse("2006-01-02", *req.DateOfBirth); err != nil {
				return nil, fmt.Errorf("date_of_birth must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
			}
		}
		updates[fieldDateOfBirth] = *req.DateOfBirth
	}
	if req.District != nil {
		updates[fieldDistrict] = *req.District
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
		updates[fieldPhoneE164] = phone.E164(*req.Phone)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	if nameChanged {
		// Same-handle reassignment: keeps the slug, refreshes the derived
		// display name on the public profile.
		cur, err := s.slugs.Ensure(ctx, userID)
		if err != nil {
			return nil, err
		}
		if _, err := s.slugs.Reassign(ctx, userID, cur); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.sessionRepo.SoftDeleteByUser(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

// TouchLocation records a posting location, most recent first, deduplicated,
// capped at MaxRecentLocations. An empty location is ignored.
func (s *service) TouchLocation(ctx context.Context, userID, location string) error {
	if location == "" {
		return nil
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	locations := make([]string, 0, len(u.RecentLocations)+1)
	locations = append(locations, location)
	for _, l := range u.RecentLocations {
		if l == location {
			continue
		}
		locations = append(locations, l)
		if len(locations) == domain.MaxRecentLocations {
			break
		}
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldRecentLocations: locations})
}
