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

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("tickets")
	{
		router.GET(":id", h.GetTicket)
		router.POST("transfer", h.Transfer)
	}
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "GetTicket")
		return
	}

	ticket, err := h.service.GetByID(c, id, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Transfer(c *gin.Context) {
	var req model.TransferTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.service.Transfer(c, req, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "Transfer")
		return
	}

	c.JSON(http.StatusOK, ticket)
}
