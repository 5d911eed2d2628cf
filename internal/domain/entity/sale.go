package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Sale represents one completed customer transaction. Created atomically with
// its lines and stock adjustments; immutable once committed except for the
// Invoiced flag (set exactly once by the invoicing collaborator) and voiding.
// Invariant: Total == SubTotal - DiscountTotal + SurchargeTotal.
type Sale struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptNo      string             `gorm:"size:100;unique;not null" json:"receipt_no"`
	CashierID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"cashier_id"`
	CustomerID     *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	PaymentMethod  enum.PaymentMethod `gorm:"not null;index" json:"payment_method"`
	PaymentRef     *string            `gorm:"size:100" json:"payment_ref,omitempty"`
	Status         enum.SaleStatus    `gorm:"default:0;index" json:"status"`
	SubTotal       int64              `gorm:"default:0" json:"-"` // Stored in cents
	DiscountTotal  int64              `gorm:"default:0" json:"-"` // Stored in cents
	SurchargeTotal int64              `gorm:"default:0" json:"-"` // Stored in cents
	Total          int64              `gorm:"default:0" json:"-"` // Stored in cents
	AmountPaid     int64              `gorm:"default:0" json:"-"` // Stored in cents
	Change         int64              `gorm:"default:0" json:"-"` // Stored in cents
	Invoiced       bool               `gorm:"default:false" json:"invoiced"`
	CreatedAt      time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Cashier  User       `gorm:"foreignKey:CashierID" json:"-"`
	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines    []SaleLine `gorm:"foreignKey:SaleID" json:"lines,omitempty"`
}

// MarshalJSON converts cents to decimal for API responses
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		SubTotal       float64 `json:"sub_total"`
		DiscountTotal  float64 `json:"discount_total"`
		SurchargeTotal float64 `json:"surcharge_total"`
		Total          float64 `json:"total"`
		AmountPaid     float64 `json:"amount_paid"`
		Change         float64 `json:"change"`
	}{
		Alias:          Alias(s),
		SubTotal:       float64(s.SubTotal) / 100,
		DiscountTotal:  float64(s.DiscountTotal) / 100,
		SurchargeTotal: float64(s.SurchargeTotal) / 100,
		Total:          float64(s.Total) / 100,
		AmountPaid:     float64(s.AmountPaid) / 100,
		Change:         float64(s.Change) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SaleLine represents a priced line item. ProductID is nil for manual/ad-hoc
// amount entries; those lines never touch the stock counter.
type SaleLine struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Description string         `gorm:"size:255;not null" json:"description"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	UnitPrice   int64          `gorm:"not null" json:"-"` // Stored in cents
	LineTotal   int64          `gorm:"not null" json:"-"` // Stored in cents
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sale    Sale     `gorm:"foreignKey:SaleID" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// MarshalJSON converts cents to decimal for API responses
func (l SaleLine) MarshalJSON() ([]byte, error) {
	type Alias SaleLine
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		LineTotal float64 `json:"line_total"`
	}{
		Alias:     Alias(l),
		UnitPrice: float64(l.UnitPrice) / 100,
		LineTotal: float64(l.LineTotal) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale line
func (l *SaleLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleLine model
func (SaleLine) TableName() string {
	return "sale_lines"
}
