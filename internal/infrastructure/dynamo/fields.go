package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldOwnerSlug        = "owner_slug"
	fieldOwnerName        = "owner_name"
	fieldOwnerAvatar      = "owner_avatar"
	fieldDisplayName      = "display_name"
	fieldSellerSlug       = "seller_slug"
	fieldAvatar           = "avatar"
	fieldUpdatedAt        = "updated_at"
)
