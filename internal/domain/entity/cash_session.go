package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"gorm.io/gorm"
)

// MethodTotals maps a normalized payment category name to a cents amount.
// Stored as a JSONB column.
type MethodTotals map[string]int64

func (t MethodTotals) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *MethodTotals) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	}
	return errors.New("unsupported type for MethodTotals")
}

// GormDataType tells gorm which column type to use
func (MethodTotals) GormDataType() string {
	return "jsonb"
}

// CashSession is the accounting period between opening and closing the cash
// drawer ("arqueo"). At most one session is OPEN at any time, enforced by a
// partial unique index. Sessions are append-only history: closed once, never
// reopened or deleted.
type CashSession struct {
	ID              uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	CashierID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Status          enum.SessionStatus `gorm:"default:0;index" json:"status"`
	OpeningFloat    int64              `gorm:"not null" json:"-"` // Stored in cents
	ExpectedClosing *int64             `json:"-"`                 // Stored in cents, set on close
	ActualClosing   *int64             `json:"-"`                 // Stored in cents, set on close
	Variance        *int64             `json:"-"`                 // actual - expected, set on close
	PerMethodTotals MethodTotals       `gorm:"type:jsonb" json:"per_method_totals,omitempty"`
	Notes           *string            `gorm:"type:text" json:"notes,omitempty"`
	OpenedAt        time.Time          `gorm:"not null;index" json:"opened_at"`
	ClosedAt        *time.Time         `json:"closed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`

	// Relationships
	Cashier User `gorm:"foreignKey:CashierID" json:"-"`
}

// MarshalJSON converts cents to decimal for API responses
func (s CashSession) MarshalJSON() ([]byte, error) {
	type Alias CashSession
	out := struct {
		Alias
		OpeningFloat    float64  `json:"opening_float"`
		ExpectedClosing *float64 `json:"expected_closing,omitempty"`
		ActualClosing   *float64 `json:"actual_closing,omitempty"`
		Variance        *float64 `json:"variance,omitempty"`
	}{
		Alias:        Alias(s),
		OpeningFloat: float64(s.OpeningFloat) / 100,
	}
	if s.ExpectedClosing != nil {
		v := float64(*s.ExpectedClosing) / 100
		out.ExpectedClosing = &v
	}
	if s.ActualClosing != nil {
		v := float64(*s.ActualClosing) / 100
		out.ActualClosing = &v
	}
	if s.Variance != nil {
		v := float64(*s.Variance) / 100
		out.Variance = &v
	}
	return json.Marshal(out)
}

// BeforeCreate generates a UUID before creating a new session
func (s *CashSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashSession model
func (CashSession) TableName() string {
	return "cash_sessions"
}
