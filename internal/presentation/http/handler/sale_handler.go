package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/application/service"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/request"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/response"
	"github.com/matiasvera/almacen-api/pkg/pagination"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// quoteResponse converts the cents breakdown to decimal amounts
type quoteResponse struct {
	SubTotal       float64 `json:"sub_total"`
	DiscountTotal  float64 `json:"discount_total"`
	SurchargeTotal float64 `json:"surcharge_total"`
	Total          float64 `json:"total"`
}

func newQuoteResponse(q *service.Quote) quoteResponse {
	return quoteResponse{
		SubTotal:       float64(q.SubTotal) / 100,
		DiscountTotal:  float64(q.DiscountTotal) / 100,
		SurchargeTotal: float64(q.SurchargeTotal) / 100,
		Total:          float64(q.Total) / 100,
	}
}

func toSaleLineInputs(lines []request.SaleLineRequest) ([]service.SaleLineInput, error) {
	out := make([]service.SaleLineInput, 0, len(lines))
	for _, line := range lines {
		input := service.SaleLineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
		if line.ProductID != "" {
			id, err := utils.ParseUUID(line.ProductID)
			if err != nil {
				return nil, err
			}
			input.ProductID = &id
		}
		out = append(out, input)
	}
	return out, nil
}

// Register handles sale registration
func (h *SaleHandler) Register(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.RegisterSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	method, ok := enum.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		response.BadRequest(c, "Unknown payment method")
		return
	}

	lines, err := toSaleLineInputs(req.Lines)
	if err != nil {
		response.BadRequest(c, "Invalid product id in sale lines")
		return
	}

	input := &service.RegisterSaleInput{
		CashierID:      *userID,
		Lines:          lines,
		PaymentMethod:  method,
		AmountTendered: req.AmountTendered,
		CustomerName:   req.CustomerName,
	}
	if req.CustomerID != "" {
		id, err := utils.ParseUUID(req.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer id")
			return
		}
		input.CustomerID = &id
	}
	if req.CustomerTaxID != "" {
		input.CustomerTaxID = &req.CustomerTaxID
	}
	if req.PaymentRef != "" {
		input.PaymentRef = &req.PaymentRef
	}

	result, err := h.saleService.RegisterSale(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale registered successfully", result)
}

// Quote handles pricing a proposed sale without committing it
func (h *SaleHandler) Quote(c *gin.Context) {
	var req request.QuoteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	method, ok := enum.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		response.BadRequest(c, "Unknown payment method")
		return
	}

	lines, err := toSaleLineInputs(req.Lines)
	if err != nil {
		response.BadRequest(c, "Invalid product id in sale lines")
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		id, err := utils.ParseUUID(req.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer id")
			return
		}
		customerID = &id
	}

	quote, err := h.saleService.QuoteSale(c.Request.Context(), lines, customerID, method)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote computed successfully", newQuoteResponse(quote))
}

// Get handles retrieving a single sale
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale id")
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// Void handles voiding a sale and restoring its stock
func (h *SaleHandler) Void(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale id")
		return
	}

	sale, err := h.saleService.VoidSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale voided successfully", sale)
}

// List handles listing sales (supports both page-based and cursor-based pagination)
func (h *SaleHandler) List(c *gin.Context) {
	if cursor := c.Query("cursor"); cursor != "" || c.Query("limit") != "" {
		h.listWithCursor(c)
		return
	}

	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		Search:    filter.Search,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	}
	h.applyCommonFilters(&filter, params)

	if filter.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, filter.StartDate); err == nil {
			params.StartDate = &t
		}
	}
	if filter.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, filter.EndDate); err == nil {
			params.EndDate = &t
		}
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sales retrieved successfully", result)
}

func (h *SaleHandler) applyCommonFilters(filter *request.SaleFilterRequest, params *repository.SaleFilterParams) {
	if filter.Status != "" {
		if status, ok := enum.ParseSaleStatus(filter.Status); ok {
			params.Status = &status
		}
	}
	if filter.PaymentMethod != "" {
		if method, ok := enum.ParsePaymentMethod(filter.PaymentMethod); ok {
			params.PaymentMethod = &method
		}
	}
	if filter.CashierID != "" {
		if id, err := uuid.Parse(filter.CashierID); err == nil {
			params.CashierID = &id
		}
	}
	if filter.CustomerID != "" {
		if id, err := uuid.Parse(filter.CustomerID); err == nil {
			params.CustomerID = &id
		}
	}
}

// listWithCursor handles listing sales with cursor-based pagination
func (h *SaleHandler) listWithCursor(c *gin.Context) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.SaleCursorFilterParams{
		Cursor: &pagination.CursorParams{
			Cursor:    c.Query("cursor"),
			Direction: pagination.CursorDirection(c.DefaultQuery("direction", "next")),
			Limit:     filter.Limit,
		},
		Search: filter.Search,
	}
	pageParams := &repository.SaleFilterParams{}
	h.applyCommonFilters(&filter, pageParams)
	params.Status = pageParams.Status
	params.PaymentMethod = pageParams.PaymentMethod
	params.CashierID = pageParams.CashierID
	params.CustomerID = pageParams.CustomerID

	result, err := h.saleService.ListSalesWithCursor(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithCursor(c, 200, "Sales retrieved successfully", result)
}
