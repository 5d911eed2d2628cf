package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a known buyer. DiscountPct applies to every sale that
// references the customer. DebtBalance is read-only from the engine's
// perspective; only the accounts-receivable flow mutates it.
type Customer struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	TaxID       *string        `gorm:"size:50;uniqueIndex" json:"tax_id,omitempty"`
	Phone       *string        `gorm:"size:50" json:"phone,omitempty"`
	DiscountPct float64        `gorm:"default:0" json:"discount_pct"`
	DebtBalance int64          `gorm:"default:0" json:"-"` // Stored in cents
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sales []Sale `gorm:"foreignKey:CustomerID" json:"-"`
}

// MarshalJSON converts cents to decimal for API responses
func (c Customer) MarshalJSON() ([]byte, error) {
	type Alias Customer
	return json.Marshal(&struct {
		Alias
		DebtBalance float64 `json:"debt_balance"`
	}{
		Alias:       Alias(c),
		DebtBalance: float64(c.DebtBalance) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
