package domain

import "time"

// Profile is the public seller profile. DisplayName is always derived from
// the private first/last name and is never independently editable.
type Profile struct {
	UserID      string    `json:"id" dynamodbav:"user_id"`
	DisplayName string    `json:"display_name" dynamodbav:"display_name"`
	Avatar      string    `json:"avatar,omitempty" dynamodbav:"avatar"`
	SellerSlug  string    `json:"seller_slug" dynamodbav:"seller_slug"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// SlugReservation is one document in the global handle namespace.
// Keyed by the slug string itself; at most one owner per slug at any time.
type SlugReservation struct {
	Slug      string    `json:"slug" dynamodbav:"slug"`
	OwnerID   string    `json:"owner_id" dynamodbav:"owner_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type UpdateProfileRequest struct {
	SellerSlug *string `json:"seller_slug"`
	Avatar     *string `json:"avatar"`
}
