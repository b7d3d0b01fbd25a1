package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated principal owned by the identity provider.
// Application code only ever holds a read-only reference to it.
type Identity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for Identity model
func (Identity) TableName() string {
	return "identities"
}
