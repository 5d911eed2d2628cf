package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/internal/infrastructure/gateway"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// PaymentApprovals answers whether a QR payment reference has been confirmed
// by the gateway. Implemented by the payment confirmation poller.
type PaymentApprovals interface {
	Approved(ref string) bool
}

// SaleService handles sale registration, quoting and voiding
type SaleService struct {
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	invoicer     gateway.InvoicingService
	approvals    PaymentApprovals
	pricing      config.PricingConfig
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	invoicer gateway.InvoicingService,
	pricing config.PricingConfig,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		invoicer:     invoicer,
		pricing:      pricing,
	}
}

// SetPaymentApprovals wires the approvals source. Set after construction
// because the poller and the sale service reference each other.
func (s *SaleService) SetPaymentApprovals(approvals PaymentApprovals) {
	s.approvals = approvals
}

// SaleLineInput represents one line of a proposed sale. ProductID is nil for
// manual amount entries.
type SaleLineInput struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    int
	UnitPrice   float64
}

// RegisterSaleInput represents the register sale input
type RegisterSaleInput struct {
	CashierID      uuid.UUID
	Lines          []SaleLineInput
	PaymentMethod  enum.PaymentMethod
	CustomerID     *uuid.UUID
	CustomerTaxID  *string
	CustomerName   string
	AmountTendered float64
	PaymentRef     *string
}

// SaleResult is a committed sale plus non-fatal warnings (e.g. the invoicing
// collaborator failing after the sale already committed).
type SaleResult struct {
	Sale     *entity.Sale `json:"sale"`
	Warnings []string     `json:"warnings,omitempty"`
}

func (s *SaleService) validateLines(lines []SaleLineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "lines", Message: "at least one line is required"},
		})
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return apperror.NewValidationError([]apperror.FieldError{
				{Field: fmt.Sprintf("lines[%d].quantity", i), Message: "quantity must be positive"},
			})
		}
		if line.UnitPrice < 0 {
			return apperror.NewValidationError([]apperror.FieldError{
				{Field: fmt.Sprintf("lines[%d].unit_price", i), Message: "unit price cannot be negative"},
			})
		}
	}
	return nil
}

// resolveCustomer loads the referenced customer, lazily creating one when a
// tax id is given but no record exists yet (zero discount by default).
func (s *SaleService) resolveCustomer(ctx context.Context, input *RegisterSaleInput) (*entity.Customer, error) {
	if input.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
		return customer, nil
	}

	if input.CustomerTaxID == nil || *input.CustomerTaxID == "" {
		return nil, nil
	}

	customer, err := s.customerRepo.GetByTaxID(ctx, *input.CustomerTaxID)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}

	name := input.CustomerName
	if name == "" {
		name = "Consumidor Final"
	}
	customer = &entity.Customer{
		Name:  name,
		TaxID: input.CustomerTaxID,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// RegisterSale validates, prices and commits a sale. The sale header, its
// lines and the stock decrements become visible together or not at all.
func (s *SaleService) RegisterSale(ctx context.Context, input *RegisterSaleInput) (*SaleResult, error) {
	if err := s.validateLines(input.Lines); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, apperror.NewBadRequestError("Unknown payment method")
	}

	if input.PaymentMethod == enum.PaymentMethodQR {
		if input.PaymentRef == nil || s.approvals == nil || !s.approvals.Approved(*input.PaymentRef) {
			return nil, apperror.ErrPaymentNotConfirmed
		}
	}

	customer, err := s.resolveCustomer(ctx, input)
	if err != nil {
		return nil, err
	}

	// Batch fetch referenced products to validate existence and fill in
	// catalog descriptions
	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.ProductID != nil {
			productIDs = append(productIDs, *line.ProductID)
		}
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	saleLines := make([]entity.SaleLine, 0, len(input.Lines))
	quoteLines := make([]QuoteLine, 0, len(input.Lines))
	decrements := make([]repository.StockDelta, 0, len(input.Lines))

	for _, line := range input.Lines {
		unitPriceCents := int64(line.UnitPrice * 100)
		description := line.Description

		if line.ProductID != nil {
			product, exists := productMap[*line.ProductID]
			if !exists {
				return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", *line.ProductID))
			}
			if description == "" {
				description = product.Name
			}
			decrements = append(decrements, repository.StockDelta{
				ProductID: product.ID,
				Quantity:  line.Quantity,
			})
		}

		saleLines = append(saleLines, entity.SaleLine{
			ProductID:   line.ProductID,
			Description: description,
			Quantity:    line.Quantity,
			UnitPrice:   unitPriceCents,
			LineTotal:   unitPriceCents * int64(line.Quantity),
		})
		quoteLines = append(quoteLines, QuoteLine{
			Quantity:  line.Quantity,
			UnitPrice: unitPriceCents,
		})
	}

	var customerDiscountPct float64
	var customerID *uuid.UUID
	if customer != nil {
		customerDiscountPct = customer.DiscountPct
		customerID = &customer.ID
	}

	quote := ComputeQuote(quoteLines, customerDiscountPct, input.PaymentMethod, s.pricing)

	amountPaid := quote.Total
	var change int64
	if input.PaymentMethod == enum.PaymentMethodCash {
		amountPaid = int64(input.AmountTendered * 100)
		if amountPaid < quote.Total {
			return nil, apperror.ErrInsufficientPayment
		}
		change = amountPaid - quote.Total
	}

	sale := &entity.Sale{
		ReceiptNo:      utils.GenerateReceiptNo(),
		CashierID:      input.CashierID,
		CustomerID:     customerID,
		PaymentMethod:  input.PaymentMethod,
		PaymentRef:     input.PaymentRef,
		SubTotal:       quote.SubTotal,
		DiscountTotal:  quote.DiscountTotal,
		SurchargeTotal: quote.SurchargeTotal,
		Total:          quote.Total,
		AmountPaid:     amountPaid,
		Change:         change,
		Lines:          saleLines,
	}

	if err := s.saleRepo.CreateAtomic(ctx, sale, decrements); err != nil {
		return nil, err
	}

	result := &SaleResult{Sale: sale}

	// The sale has committed; invoicing failures are reported, never rolled
	// back into the sale.
	if s.invoicer != nil {
		if _, err := s.invoicer.IssueInvoice(ctx, sale.ID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invoice not issued: %v", err))
		} else if err := s.saleRepo.MarkInvoiced(ctx, sale.ID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invoice issued but flag not recorded: %v", err))
		} else {
			sale.Invoiced = true
		}
	}

	return result, nil
}

// lookupDiscountPct resolves the discount a sale input will receive, without
// creating anything. A tax id not on file resolves to zero discount, the same
// discount the lazily created customer gets at commit time.
func (s *SaleService) lookupDiscountPct(ctx context.Context, customerID *uuid.UUID, taxID *string) (float64, error) {
	if customerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *customerID)
		if err != nil {
			return 0, err
		}
		if customer == nil {
			return 0, apperror.NewNotFoundError("Customer")
		}
		return customer.DiscountPct, nil
	}
	if taxID != nil && *taxID != "" {
		customer, err := s.customerRepo.GetByTaxID(ctx, *taxID)
		if err != nil {
			return 0, err
		}
		if customer != nil {
			return customer.DiscountPct, nil
		}
	}
	return 0, nil
}

// QuoteSale prices a proposed sale without side effects
func (s *SaleService) QuoteSale(ctx context.Context, lines []SaleLineInput, customerID *uuid.UUID, method enum.PaymentMethod) (*Quote, error) {
	return s.quote(ctx, lines, customerID, nil, method)
}

// QuoteRegisterInput prices a full sale input, resolving the customer by id
// or tax id. The payment poller uses it so the amount charged at the gateway
// equals the total the approved sale will commit with.
func (s *SaleService) QuoteRegisterInput(ctx context.Context, input *RegisterSaleInput) (*Quote, error) {
	return s.quote(ctx, input.Lines, input.CustomerID, input.CustomerTaxID, input.PaymentMethod)
}

func (s *SaleService) quote(ctx context.Context, lines []SaleLineInput, customerID *uuid.UUID, taxID *string, method enum.PaymentMethod) (*Quote, error) {
	if err := s.validateLines(lines); err != nil {
		return nil, err
	}

	customerDiscountPct, err := s.lookupDiscountPct(ctx, customerID, taxID)
	if err != nil {
		return nil, err
	}

	quoteLines := make([]QuoteLine, len(lines))
	for i, line := range lines {
		quoteLines[i] = QuoteLine{
			Quantity:  line.Quantity,
			UnitPrice: int64(line.UnitPrice * 100),
		}
	}

	quote := ComputeQuote(quoteLines, customerDiscountPct, method, s.pricing)
	return &quote, nil
}

// VoidSale marks a completed sale as voided and restores the stock its
// product lines consumed, in one transaction.
func (s *SaleService) VoidSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetWithLines(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}

	increments := make([]repository.StockDelta, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		if line.ProductID != nil {
			increments = append(increments, repository.StockDelta{
				ProductID: *line.ProductID,
				Quantity:  line.Quantity,
			})
		}
	}

	if err := s.saleRepo.VoidAtomic(ctx, sale, increments); err != nil {
		return nil, err
	}

	sale.Status = enum.SaleStatusVoided
	return sale, nil
}

// GetSale retrieves a sale with its lines
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetWithLines(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// ListSales lists sales with filtering
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	params.Pagination.Validate()
	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(sales, pag), nil
}

// ListSalesWithCursor lists sales with cursor-based pagination
func (s *SaleService) ListSalesWithCursor(ctx context.Context, params *repository.SaleCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Sale], error) {
	params.Cursor.Validate()
	sales, err := s.saleRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, err
	}

	cursorPag, items := pagination.NewCursorPagination(sales, params.Cursor.Limit,
		func(sl entity.Sale) string { return sl.ID.String() },
		func(sl entity.Sale) time.Time { return sl.CreatedAt },
	)
	cursorPag.HasPrev = params.Cursor.Cursor != ""
	return pagination.NewCursorPaginatedResult(items, cursorPag), nil
}
