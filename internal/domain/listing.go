package domain

import "time"

// Categories accepted for marketplace listings.
var ListingCategories = []string{
	"Electronics", "Fashion", "Home", "Vehicles", "Sports", "Books", "Toys", "Other",
}

// Listing is one marketplace item. Owner fields other than OwnerID are
// denormalized copies of the seller's public profile; OwnerSlug is rewritten
// by the slug propagation sweep whenever the seller's handle changes.
type Listing struct {
	ListingID   string         `json:"id" dynamodbav:"listing_id"`
	OwnerID     string         `json:"owner_id" dynamodbav:"owner_id"`
	OwnerSlug   string         `json:"owner_slug" dynamodbav:"owner_slug"`
	OwnerName   string         `json:"owner_name" dynamodbav:"owner_name"`
	OwnerAvatar string         `json:"owner_avatar,omitempty" dynamodbav:"owner_avatar"`
	Title       string         `json:"title" dynamodbav:"title"`
	Price       float64        `json:"price" dynamodbav:"price"`
	Category    string         `json:"category" dynamodbav:"category"`
	Location    string         `json:"location" dynamodbav:"location"`
	Description string         `json:"description" dynamodbav:"description"`
	Images      []ListingImage `json:"images,omitempty" dynamodbav:"images"`
	HasImages   bool           `json:"has_images" dynamodbav:"has_images"`
	Enable      bool           `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time      `json:"updated" dynamodbav:"updated_at"`
}

type ListingImage struct {
	OriginalURL  string `json:"original_url" dynamodbav:"original_url"`
	OptimizedURL string `json:"optimized_url,omitempty" dynamodbav:"optimized_url"`
}

type CreateListingRequest struct {
	Title       string         `json:"title" validate:"required"`
	Price       float64        `json:"price" validate:"gte=0"`
	Category    string         `json:"category"`
	Location    string         `json:"location"`
	Description string         `json:"description" validate:"required"`
	Images      []ListingImage `json:"images" validate:"min=1,max=5"`
}

type UpdateListingRequest struct {
	Title       *string  `json:"title"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
}

// Favorite marks a listing saved by a user. PK: user_id, SK: listing_id.
type Favorite struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ListingID string    `json:"listing_id" dynamodbav:"listing_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
