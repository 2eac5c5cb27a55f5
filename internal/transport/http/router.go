package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-market-nosql/internal/application/auth"
	"github.com/go-market-nosql/internal/application/favorite"
	fileapp "github.com/go-market-nosql/internal/application/file"
	"github.com/go-market-nosql/internal/application/listing"
	"github.com/go-market-nosql/internal/application/profile"
	"github.com/go-market-nosql/internal/application/session"
	"github.com/go-market-nosql/internal/application/slugalloc"
	"github.com/go-market-nosql/internal/application/user"
	"github.com/go-market-nosql/internal/config"
	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-market-nosql/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	// The handle allocator is constructed first; registration, profile edits
	// and listing publication all depend on it.
	slugSvc := slugalloc.NewService(slugalloc.ServiceDeps{
		ReservationRepo: deps.SlugRepo,
		ProfileRepo:     deps.ProfileRepo,
		ListingRepo:     deps.ListingRepo,
		UserRepo:        deps.UserRepo,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		SlugAllocator:   slugSvc,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	profileSvc := profile.NewService(profile.ServiceDeps{
		ProfileRepo:   deps.ProfileRepo,
		SlugAllocator: slugSvc,
	})
	listingSvc := listing.NewService(listing.ServiceDeps{
		ListingRepo:   deps.ListingRepo,
		UserRepo:      deps.UserRepo,
		ProfileRepo:   deps.ProfileRepo,
		SlugAllocator: slugSvc,
		UserService:   userSvc,
	})
	favoriteSvc := favorite.NewService(favorite.ServiceDeps{
		FavoriteRepo: deps.FavoriteRepo,
		ListingRepo:  deps.ListingRepo,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		SessionRepo:      deps.SessionRepo,
		Mailer:           deps.Mailer,
		SMSSender:        deps.SMSSender,
		JWTProvider:      deps.JWTProvider,
		RefreshTokenDur:  cfg.RefreshTokenExpiry,
	})
	fileSvc := fileapp.NewService(deps.S3Store, deps.FileRepo)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	profileH := handler.NewProfileHandler(profileSvc, listingSvc)
	listingH := handler.NewListingHandler(listingSvc)
	favoriteH := handler.NewFavoriteHandler(favoriteSvc)
	fileH := handler.NewFileHandler(fileSvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)
	emailH := handler.NewEmailConfirmHandler(authSvc)
	phoneH := handler.NewPhoneConfirmHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/request", pwH.Request)
		r.With(sensitiveRL.Limit).Post("/password-recovery/validate-otp", pwH.ValidateOTP)

		// Public marketplace surface
		r.Get("/listings", listingH.Marketplace)
		r.Get("/listings/{id}", listingH.Get)
		r.Get("/sellers/{slug}", profileH.SellerPage)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/users/change-password", userH.ChangePassword)

			r.Get("/profile", profileH.GetOwn)
			r.Put("/profile", profileH.Update)

			r.Post("/listings", listingH.Create)
			r.Get("/listings/own", listingH.ListOwn)
			r.Put("/listings/{id}", listingH.Update)
			r.Delete("/listings/{id}", listingH.Delete)

			r.Get("/favorites", favoriteH.List)
			r.Post("/favorites/{id}", favoriteH.Save)
			r.Delete("/favorites/{id}", favoriteH.Remove)

			r.Post("/files", fileH.Upload)
			r.Post("/files/listing-image", fileH.UploadListingImage)
			r.Post("/files/avatar", fileH.UploadAvatar)
			r.Get("/files/{id}", fileH.Download)
			r.Delete("/files/{id}", fileH.Delete)

			r.Post("/password-recovery/change-password", pwH.ChangePassword)
			r.Post("/confirm-email", emailH.Action)
			r.Post("/confirm-phone", phoneH.Action)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
