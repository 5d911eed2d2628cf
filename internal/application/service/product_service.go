package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// ProductService handles catalog operations
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name          string  `json:"name" binding:"required"`
	Barcode       string  `json:"barcode" binding:"required"`
	Quantity      int     `json:"quantity"`
	QuantityAlert int     `json:"quantity_alert"`
	UnitPrice     float64 `json:"unit_price" binding:"min=0"`
}

// UpdateProductInput represents the update product input
type UpdateProductInput struct {
	Name          *string  `json:"name"`
	Barcode       *string  `json:"barcode"`
	QuantityAlert *int     `json:"quantity_alert"`
	UnitPrice     *float64 `json:"unit_price"`
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	existing, err := s.productRepo.GetByBarcode(ctx, input.Barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewBadRequestError("A product with this barcode already exists")
	}

	product := &entity.Product{
		Name:          input.Name,
		Barcode:       input.Barcode,
		Quantity:      input.Quantity,
		QuantityAlert: input.QuantityAlert,
	}
	product.SetUnitPriceFromDecimal(input.UnitPrice)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// GetProductByBarcode retrieves a product by barcode, the register's scan path
func (s *ProductService) GetProductByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	product, err := s.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// UpdateProduct updates a product's catalog fields. Stock is deliberately
// absent here: the quantity column moves only through sale commits, voids
// and explicit adjustments.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Barcode != nil && *input.Barcode != product.Barcode {
		existing, err := s.productRepo.GetByBarcode(ctx, *input.Barcode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewBadRequestError("A product with this barcode already exists")
		}
		product.Barcode = *input.Barcode
	}
	if input.QuantityAlert != nil {
		product.QuantityAlert = *input.QuantityAlert
	}
	if input.UnitPrice != nil {
		product.SetUnitPriceFromDecimal(*input.UnitPrice)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// AdjustStock applies a manual stock correction (delivery received, breakage)
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.productRepo.AtomicIncrementBatch(ctx, []repository.StockDelta{
		{ProductID: id, Quantity: delta},
	})
	if err != nil {
		return nil, err
	}

	product.Quantity += delta
	return product, nil
}

// DeleteProduct soft-deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// ListProducts lists products with filtering
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	params.Pagination.Validate()
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}
