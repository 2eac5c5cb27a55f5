package http

import (
	"github.com/go-market-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-market-nosql/internal/infrastructure/jwt"
	s3infra "github.com/go-market-nosql/internal/infrastructure/s3"
	"github.com/go-market-nosql/internal/infrastructure/smtp"
	"github.com/go-market-nosql/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. The application
// services each declare their own narrow store interfaces; the concrete repos
// here satisfy all of them.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	ProfileRepo      *dynamo.ProfileRepo
	ListingRepo      *dynamo.ListingRepo
	SlugRepo         *dynamo.SlugRepo
	SessionRepo      *dynamo.SessionRepo
	FavoriteRepo     *dynamo.FavoriteRepo
	FileRepo         *dynamo.FileRepo
	VerificationRepo *dynamo.VerificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
