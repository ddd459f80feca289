package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"OrderPayments/internal/api/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, newOrder order.NewOrder) (order.Order, error)
	GetOrderByID(ctx context.Context, id string) (order.Order, error)
	GetOrders(ctx context.Context, query order.OrdersQuery) ([]order.Order, error)
	ProcessPayment(ctx context.Context, orderID string) (order.Payment, error)
}

type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(s OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type createOrderRequest struct {
	CustomerName string          `json:"customer_name" binding:"required,max=255"`
	TotalAmount  json.RawMessage `json:"total_amount"`
}

type listOrdersRequest struct {
	Limit  *int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int  `form:"offset" binding:"omitempty,min=0"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	verr := bindJSON(c, &req)
	if verr == nil {
		verr = &order.ValidationError{}
	}

	amount, amountErr := parseAmount(req.TotalAmount)
	if amountErr != "" {
		verr.Add("total_amount", amountErr)
	}
	if !verr.Empty() {
		// amount bounds are reported together with binding errors
		if amountErr == "" {
			for _, msg := range order.ValidateAmount(amount) {
				verr.Add("total_amount", msg)
			}
		}
		validationFailed(c, http.StatusUnprocessableEntity, verr)
		return
	}

	created, err := h.service.CreateOrder(c.Request.Context(), order.NewOrder{
		CustomerName: req.CustomerName,
		TotalAmount:  amount,
	})
	if err != nil {
		if errors.As(err, &verr) {
			validationFailed(c, http.StatusUnprocessableEntity, verr)
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to create order", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred"})
		return
	}

	c.JSON(http.StatusCreated, dataResponse{Data: newOrderResponse(created)})
}

func (h *OrderHandler) Filter(c *gin.Context) {
	var req listOrdersRequest
	if verr := bindQuery(c, &req); verr != nil {
		validationFailed(c, http.StatusUnprocessableEntity, verr)
		return
	}

	var query order.OrdersQuery
	if req.Limit != nil {
		query.Pagination = &order.Pagination{Limit: *req.Limit, Offset: req.Offset}
	}

	orders, err := h.service.GetOrders(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, order.ErrInvalidQuery) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to list orders", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred"})
		return
	}

	res := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, newOrderResponse(o))
	}
	c.JSON(http.StatusOK, dataResponse{Data: res})
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing order_id"})
		return
	}
	if _, err := uuid.Parse(orderID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}

	res, err := h.service.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to get order",
			"order_id", orderID,
			slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred"})
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: newOrderResponse(res)})
}
