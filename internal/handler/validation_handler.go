package handler

import (
	"net/http"

	"ticketpro/internal/middleware"
	"ticketpro/internal/model"
	"ticketpro/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidationHandler serves the venue gate: QR scans, check-in and check-out.
type ValidationHandler struct {
	service service.TicketService
}

func NewValidationHandler(service service.TicketService) *ValidationHandler {
	return &ValidationHandler{service: service}
}

func (h *ValidationHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("validation")
	{
		router.POST("validate", h.ValidateScan)
		router.POST("checkin", h.CheckIn)
		router.POST("checkout", h.CheckOut)
	}
}

func (h *ValidationHandler) ValidateScan(c *gin.Context) {
	var req model.ValidateScanRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.ValidateScan(c, req.QRPayload, req.EventID, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "ValidateScan")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ValidationHandler) CheckIn(c *gin.Context) {
	var req model.CheckInRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.service.CheckIn(c, req.TicketID, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "CheckIn")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *ValidationHandler) CheckOut(c *gin.Context) {
	var req model.CheckOutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.service.CheckOut(c, req.TicketID, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "CheckOut")
		return
	}

	c.JSON(http.StatusOK, ticket)
}
