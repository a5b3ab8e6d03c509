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

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("orders")
	{
		router.GET("", h.ListOrders)
		router.GET(":id", h.GetOrder)
		router.POST("", h.ReserveTicket)
		router.POST(":id/payment", h.InitiatePayment)
		router.PUT(":id/cancel", h.CancelOrder)
	}
}

func (h *OrderHandler) ReserveTicket(c *gin.Context) {
	var req model.ReserveTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	principal := middleware.Principal(c)

	order, ticket, err := h.service.ReserveTicket(c, principal.ID, req)
	if err != nil {
		handleError(c, err, "ReserveTicket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":  order,
		"ticket": ticket,
	})
}

func (h *OrderHandler) InitiatePayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "InitiatePayment")
		return
	}

	var req model.InitiatePaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	payment, err := h.service.InitiatePayment(c, id, middleware.Principal(c), req)
	if err != nil {
		handleError(c, err, "InitiatePayment")
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "CancelOrder")
		return
	}

	if err := h.service.CancelOrder(c, id, middleware.Principal(c)); err != nil {
		handleError(c, err, "CancelOrder")
		return
	}

	c.Status(http.StatusOK)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.ErrInvalidInput, "GetOrder")
		return
	}

	order, err := h.service.GetOrderByID(c, id, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrdersByUser(c, middleware.Principal(c))
	if err != nil {
		handleError(c, err, "ListOrders")
		return
	}

	c.JSON(http.StatusOK, orders)
}
