package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proposal statuses. A proposal only ever moves forward:
// pending -> approved -> completed.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
)

// Categories is the closed set of proposal categories.
var Categories = []string{"Autos", "Haus", "Güter", "Kleidung", "Tattoos", "Schmuck"}

// Proposal represents a member-submitted item/price suggestion
type Proposal struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	Category    string          `gorm:"size:50;not null" json:"category"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string         `gorm:"size:1024" json:"image_url,omitempty"`
	Status      string          `gorm:"size:20;default:pending;index" json:"status"` // pending, approved, completed
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
}

// TableName specifies the table name for Proposal model
func (Proposal) TableName() string {
	return "proposals"
}

// ValidCategory reports whether c is one of the fixed proposal categories.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}
