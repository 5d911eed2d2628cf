package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// CustomerService handles customer operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name        string  `json:"name" binding:"required"`
	TaxID       *string `json:"tax_id"`
	Phone       *string `json:"phone"`
	DiscountPct float64 `json:"discount_pct" binding:"min=0,max=100"`
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	Name        *string  `json:"name"`
	TaxID       *string  `json:"tax_id"`
	Phone       *string  `json:"phone"`
	DiscountPct *float64 `json:"discount_pct"`
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	if input.TaxID != nil && *input.TaxID != "" {
		existing, err := s.customerRepo.GetByTaxID(ctx, *input.TaxID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewBadRequestError("A customer with this tax id already exists")
		}
	}

	customer := &entity.Customer{
		Name:        input.Name,
		TaxID:       input.TaxID,
		Phone:       input.Phone,
		DiscountPct: input.DiscountPct,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// UpdateCustomer updates a customer. DebtBalance is not touched here; it
// belongs to the accounts-receivable flow.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.TaxID != nil {
		existing, err := s.customerRepo.GetByTaxID(ctx, *input.TaxID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != customer.ID {
			return nil, apperror.NewBadRequestError("A customer with this tax id already exists")
		}
		customer.TaxID = input.TaxID
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.DiscountPct != nil {
		if *input.DiscountPct < 0 || *input.DiscountPct > 100 {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "discount_pct", Message: "discount must be between 0 and 100"},
			})
		}
		customer.DiscountPct = *input.DiscountPct
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer soft-deletes a customer
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	return s.customerRepo.Delete(ctx, id)
}

// ListCustomers lists customers with filtering
func (s *CustomerService) ListCustomers(ctx context.Context, params *repository.CustomerFilterParams) (*pagination.PaginatedResult[entity.Customer], error) {
	params.Pagination.Validate()
	customers, total, err := s.customerRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}
