package handler

import (
	"net/http"

	"ticketpro/internal/model"
	"ticketpro/internal/service"
	"ticketpro/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// PaymentHandler receives payment-gateway notifications. The gateway
// delivers at least once; the fulfillment pipeline makes application
// idempotent, so both applied and stale outcomes acknowledge with 200.
type PaymentHandler struct {
	service service.FulfillmentService
}

func NewPaymentHandler(service service.FulfillmentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("payments")
	{
		router.POST("webhook", h.HandleWebhook)
	}
}

func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	var req model.PaymentEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	status := model.PaymentStatus(req.Status)
	if !status.IsValid() {
		handleError(c, apperrors.ErrInvalidInput, "HandleWebhook")
		return
	}

	outcome, err := h.service.ApplyPaymentEvent(c, req.ExternalRef, status, req.ErrorMessage)
	if err != nil {
		handleError(c, err, "HandleWebhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome,
	})
}
