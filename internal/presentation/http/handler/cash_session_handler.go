package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/matiasvera/almacen-api/internal/application/service"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/request"
	"github.com/matiasvera/almacen-api/internal/presentation/http/dto/response"
	"github.com/matiasvera/almacen-api/pkg/pagination"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// CashSessionHandler handles cash session HTTP requests
type CashSessionHandler struct {
	sessionService *service.CashSessionService
}

// NewCashSessionHandler creates a new cash session handler
func NewCashSessionHandler(sessionService *service.CashSessionService) *CashSessionHandler {
	return &CashSessionHandler{sessionService: sessionService}
}

// Open handles opening a new cash session
func (h *CashSessionHandler) Open(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	input := &service.OpenSessionInput{
		CashierID:    *userID,
		OpeningFloat: req.OpeningFloat,
	}
	if req.Notes != "" {
		input.Notes = &req.Notes
	}

	session, err := h.sessionService.OpenSession(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cash session opened", session)
}

// GetOpen returns the currently open session
func (h *CashSessionHandler) GetOpen(c *gin.Context) {
	session, err := h.sessionService.GetOpenSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Open session retrieved", session)
}

// Get retrieves a session by id
func (h *CashSessionHandler) Get(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid session id")
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Session retrieved", session)
}

// PreviewClose returns the reconciliation snapshot without closing
func (h *CashSessionHandler) PreviewClose(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid session id")
		return
	}

	preview, err := h.sessionService.PreviewClose(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Close preview computed", preview)
}

// Close reconciles and closes a session
func (h *CashSessionHandler) Close(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid session id")
		return
	}

	var req request.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	input := &service.CloseSessionInput{ActualClosing: req.ActualClosing}
	if req.Notes != "" {
		input.Notes = &req.Notes
	}

	session, err := h.sessionService.CloseSession(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cash session closed", session)
}

// List handles listing session history
func (h *CashSessionHandler) List(c *gin.Context) {
	var params pagination.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.sessionService.ListSessions(c.Request.Context(), &params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sessions retrieved successfully", result)
}
