package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/matiasvera/almacen-api/internal/application/service"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/request"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/response"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// PaymentHandler handles QR payment intent HTTP requests
type PaymentHandler struct {
	poller *service.PaymentPoller
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(poller *service.PaymentPoller) *PaymentHandler {
	return &PaymentHandler{poller: poller}
}

// Begin starts a QR payment flow for a proposed sale
func (h *PaymentHandler) Begin(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.BeginQRPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	lines, err := toSaleLineInputs(req.Lines)
	if err != nil {
		response.BadRequest(c, "Invalid product id in sale lines")
		return
	}

	input := &service.RegisterSaleInput{
		CashierID:    *userID,
		Lines:        lines,
		CustomerName: req.CustomerName,
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

	snapshot, err := h.poller.Begin(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment intent created", snapshot)
}

// Status returns the current state of a payment intent
func (h *PaymentHandler) Status(c *gin.Context) {
	snapshot, err := h.poller.Status(c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status retrieved", snapshot)
}

// Cancel stops polling a payment intent
func (h *PaymentHandler) Cancel(c *gin.Context) {
	if err := h.poller.Cancel(c.Param("ref")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment intent cancelled", nil)
}
