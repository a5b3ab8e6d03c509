package handler

import (
	"errors"
	"net/http"

	"ticketpro/pkg/apperrors"
	"ticketpro/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// handleError maps the service error taxonomy onto HTTP responses. Expected
// business outcomes (sold out, already checked in, ...) are actionable
// non-500 statuses; anything unknown is a generic 500 without internals.
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSoldOut):
		log.Warn("Sold out")
		c.JSON(http.StatusConflict, gin.H{"error": "Sold out"})
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		log.Warn("Concurrent access conflict")
		c.JSON(http.StatusConflict, gin.H{"error": "Resource busy, please retry"})
	case errors.Is(err, apperrors.ErrTicketTypeNotFound):
		log.Warn("Ticket type not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	case errors.Is(err, apperrors.ErrOrderNotFound):
		log.Warn("Order not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		log.Warn("Payment transaction not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment transaction not found"})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
		log.Warn("Already checked in")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket already checked in"})
	case errors.Is(err, apperrors.ErrNotCheckedIn):
		log.Warn("Not checked in")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket has not been checked in"})
	case errors.Is(err, apperrors.ErrAlreadyCheckedOut):
		log.Warn("Already checked out")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket already checked out"})
	case errors.Is(err, apperrors.ErrAlreadyValidated):
		log.Warn("Already validated")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket already validated"})
	case errors.Is(err, apperrors.ErrPaymentNotConfirmed):
		log.Warn("Payment not confirmed")
		c.JSON(http.StatusConflict, gin.H{"error": "Payment not confirmed for this ticket"})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Warn("Invalid transition")
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed in the current state"})
	case errors.Is(err, apperrors.ErrDuplicateExternalRef):
		log.Warn("Duplicate external reference")
		c.JSON(http.StatusConflict, gin.H{"error": "Payment reference already registered"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
