package handler

import (
	"net/http"
	"strconv"

	"ticketpro/internal/middleware"
	"ticketpro/internal/model"
	"ticketpro/internal/service"
	"ticketpro/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type TicketTypeHandler struct {
	service service.InventoryService
}

func NewTicketTypeHandler(service service.InventoryService) *TicketTypeHandler {
	return &TicketTypeHandler{service: service}
}

func (h *TicketTypeHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("ticket-types")
	{
		router.GET(":id/availability", h.GetAvailability)
		router.POST("", h.CreateTicketType)
		router.DELETE(":id", h.DeleteTicketType)
	}
}

func (h *TicketTypeHandler) CreateTicketType(c *gin.Context) {
	var req model.CreateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticketType, err := h.service.CreateTicketType(c, middleware.Principal(c), req)
	if err != nil {
		handleError(c, err, "CreateTicketType")
		return
	}

	c.JSON(http.StatusCreated, ticketType)
}

func (h *TicketTypeHandler) DeleteTicketType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "DeleteTicketType")
		return
	}

	if err := h.service.DeleteTicketType(c, id, middleware.Principal(c)); err != nil {
		handleError(c, err, "DeleteTicketType")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TicketTypeHandler) GetAvailability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "GetAvailability")
		return
	}

	availability, err := h.service.GetAvailability(c, id)
	if err != nil {
		handleError(c, err, "GetAvailability")
		return
	}

	c.JSON(http.StatusOK, availability)
}
