package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile extends an identity with a display username and the admin flag.
// The row is keyed by the identity id; a missing row is tolerated everywhere
// and replaced by FallbackProfile.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Profile model
func (Profile) TableName() string {
	return "profiles"
}

// FallbackProfile is the profile substituted when an identity has no profile
// row yet (the row is created after registration and may lag behind).
func FallbackProfile(identityID uuid.UUID, email string) *Profile {
	return &Profile{
		ID:       identityID,
		Username: email,
		IsAdmin:  false,
	}
}
