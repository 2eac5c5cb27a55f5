package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// MaxNameChanges is the lifetime cap on first/last name edits.
const MaxNameChanges = 3

// MaxRecentLocations bounds the recent-locations list, most recent first.
const MaxRecentLocations = 20

// User is the private profile, visible only to its owner.
type User struct {
	UserID          string       `json:"id" dynamodbav:"user_id"`
	Email           string       `json:"email" dynamodbav:"email"`
	PasswordHash    string       `json:"-" dynamodbav:"password_hash"`
	Role            string       `json:"role" dynamodbav:"role"`
	FirstName       string       `json:"first_name" dynamodbav:"first_name"`
	LastName        string       `json:"last_name" dynamodbav:"last_name"`
	DateOfBirth     string       `json:"date_of_birth" dynamodbav:"date_of_birth"` // YYYY-MM-DD
	District        string       `json:"district" dynamodbav:"district"`
	Phone           string       `json:"phone" dynamodbav:"phone"`           // raw user input
	PhoneE164       string       `json:"phone_e164" dynamodbav:"phone_e164"` // normalized
	EmailVerified   bool         `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified   bool         `json:"phone_verified" dynamodbav:"phone_verified"`
	NameChangeCount int          `json:"name_change_count" dynamodbav:"name_change_count"`
	NameChanges     []NameChange `json:"name_change_history,omitempty" dynamodbav:"name_change_history"`
	RecentLocations []string     `json:"recent_locations,omitempty" dynamodbav:"recent_locations"`
	Enable          bool         `json:"enable" dynamodbav:"enable"`
	DeletedAt       *time.Time   `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt       time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time    `json:"updated" dynamodbav:"updated_at"`
}

// NameChange is one entry in the append-only name edit log.
type NameChange struct {
	PrevFirst string    `json:"prev_first" dynamodbav:"prev_first"`
	PrevLast  string    `json:"prev_last" dynamodbav:"prev_last"`
	NewFirst  string    `json:"new_first" dynamodbav:"new_first"`
	NewLast   string    `json:"new_last" dynamodbav:"new_last"`
	ChangedAt time.Time `json:"changed_at" dynamodbav:"changed_at"`
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth"` // expected format: YYYY-MM-DD
	District    string `json:"district"`
	Phone       string `json:"phone"`
}

type UpdateUserRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"` // expected format: YYYY-MM-DD
	District    *string `json:"district"`
	Phone       *string `json:"phone"`
}
