package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// StockDelta is one per-product quantity adjustment inside a sale commit.
type StockDelta struct {
	ProductID uuid.UUID
	Quantity  int
}

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	// CreateAtomic persists the sale header, its lines and the stock
	// decrements as one transaction: all effects visible together or none.
	// Decrements are applied as commutative atomic increments, never
	// read-modify-write.
	CreateAtomic(ctx context.Context, sale *entity.Sale, decrements []StockDelta) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	GetWithLines(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	ListWithCursor(ctx context.Context, params *SaleCursorFilterParams) ([]entity.Sale, error)
	// VoidAtomic marks the sale voided and restores the stock of its product
	// lines in one transaction.
	VoidAtomic(ctx context.Context, sale *entity.Sale, increments []StockDelta) error
	MarkInvoiced(ctx context.Context, id uuid.UUID) error
	// TotalsByMethod sums completed sales with createdAt in [start, end),
	// grouped by normalized payment category. Point-in-time query, safe to
	// run repeatedly.
	TotalsByMethod(ctx context.Context, start, end time.Time) (map[enum.PaymentMethod]int64, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Status        *enum.SaleStatus
	PaymentMethod *enum.PaymentMethod
	CashierID     *uuid.UUID
	CustomerID    *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	SortBy        string
	SortOrder     string
}

// SaleCursorFilterParams contains cursor-based filtering for sale queries
type SaleCursorFilterParams struct {
	Cursor        *pagination.CursorParams
	Search        string
	Status        *enum.SaleStatus
	PaymentMethod *enum.PaymentMethod
	CashierID     *uuid.UUID
	CustomerID    *uuid.UUID
}
