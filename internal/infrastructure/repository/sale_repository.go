package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	domainRepo "github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

// CreateAtomic commits the sale header, its lines and the stock decrements in
// a single transaction. Stock is adjusted with quantity = quantity - delta;
// the counter may go negative, oversell is recorded rather than blocked.
func (r *saleRepository) CreateAtomic(ctx context.Context, sale *entity.Sale, decrements []domainRepo.StockDelta) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		for _, d := range decrements {
			result := tx.Model(&entity.Product{}).
				Where("id = ?", d.ProductID).
				Update("quantity", gorm.Expr("quantity - ?", d.Quantity))
			if result.Error != nil {
				return apperror.NewStockAdjustmentError(result.Error.Error())
			}
			if result.RowsAffected == 0 {
				return apperror.NewStockAdjustmentError("product " + d.ProductID.String() + " not found")
			}
		}

		return nil
	})
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetWithLines(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Lines.Product").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&entity.Sale{}), params)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	sortOrder := "DESC"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Customer").
		Order(sortBy + " " + sortOrder).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) applyFilters(query *gorm.DB, params *domainRepo.SaleFilterParams) *gorm.DB {
	if params.Search != "" {
		query = query.Where("receipt_no ILIKE ?", "%"+params.Search+"%")
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *params.PaymentMethod)
	}
	if params.CashierID != nil {
		query = query.Where("cashier_id = ?", *params.CashierID)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at < ?", *params.EndDate)
	}
	return query
}

// ListWithCursor returns sales using cursor-based pagination
func (r *saleRepository) ListWithCursor(ctx context.Context, params *domainRepo.SaleCursorFilterParams) ([]entity.Sale, error) {
	var sales []entity.Sale

	params.Cursor.Validate()
	query := r.db.WithContext(ctx).Model(&entity.Sale{})

	if params.Search != "" {
		query = query.Where("receipt_no ILIKE ?", "%"+params.Search+"%")
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *params.PaymentMethod)
	}
	if params.CashierID != nil {
		query = query.Where("cashier_id = ?", *params.CashierID)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		if params.Cursor.Direction == pagination.CursorDirectionNext {
			query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		} else {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	err = query.Limit(params.Cursor.Limit + 1).
		Preload("Customer").
		Order("created_at ASC, id ASC").
		Find(&sales).Error

	return sales, err
}

// VoidAtomic marks the sale voided and restores its product stock in one
// transaction.
func (r *saleRepository) VoidAtomic(ctx context.Context, sale *entity.Sale, increments []domainRepo.StockDelta) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Sale{}).
			Where("id = ? AND status = ?", sale.ID, enum.SaleStatusCompleted).
			Update("status", enum.SaleStatusVoided)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.NewBadRequestError("Sale is already voided")
		}

		for _, d := range increments {
			if err := tx.Model(&entity.Product{}).
				Where("id = ?", d.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", d.Quantity)).Error; err != nil {
				return apperror.NewStockAdjustmentError(err.Error())
			}
		}

		return nil
	})
}

func (r *saleRepository) MarkInvoiced(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Sale{}).
		Where("id = ? AND invoiced = false", id).
		Update("invoiced", true).Error
}

type methodTotalRow struct {
	PaymentMethod enum.PaymentMethod
	Total         int64
}

// TotalsByMethod sums completed sales in [start, end) grouped by payment
// category. Voided sales are excluded.
func (r *saleRepository) TotalsByMethod(ctx context.Context, start, end time.Time) (map[enum.PaymentMethod]int64, error) {
	var rows []methodTotalRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT payment_method, COALESCE(SUM(total), 0) AS total
		FROM sales
		WHERE created_at >= ? AND created_at < ?
		  AND status = ?
		  AND deleted_at IS NULL
		GROUP BY payment_method
	`, start, end, enum.SaleStatusCompleted).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[enum.PaymentMethod]int64, len(rows))
	for _, row := range rows {
		totals[row.PaymentMethod] = row.Total
	}
	return totals, nil
}
