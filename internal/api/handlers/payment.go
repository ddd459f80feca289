package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"OrderPayments/internal/api/domain/order"
	"OrderPayments/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const paymentFailedMessage = "Payment processing failed"

type PaymentHandler struct {
	service OrderService
}

func NewPaymentHandler(s OrderService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type createPaymentRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentRequest
	if verr := bindJSON(c, &req); verr != nil {
		validationFailed(c, http.StatusUnprocessableEntity, verr)
		return
	}

	ctx := c.Request.Context()
	payment, err := h.service.ProcessPayment(ctx, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			metrics.PaymentAttemptsTotal.WithLabelValues("rejected").Inc()
			verr := &order.ValidationError{}
			verr.Add("order_id", "The specified order does not exist")
			validationFailed(c, http.StatusUnprocessableEntity, verr)
		case errors.Is(err, order.ErrNotEligible):
			metrics.PaymentAttemptsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": paymentFailedMessage, "error": err.Error()})
		case errors.Is(err, order.ErrPaymentInProgress):
			metrics.PaymentAttemptsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusConflict, gin.H{
				"message": paymentFailedMessage,
				"error":   "A payment for this order is already in progress",
			})
		default:
			metrics.PaymentAttemptsTotal.WithLabelValues("error").Inc()
			slog.ErrorContext(ctx, "Unexpected error processing payment",
				"order_id", req.OrderID,
				slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": paymentFailedMessage,
				"error":   "An unexpected error occurred",
			})
		}
		return
	}

	metrics.PaymentAttemptsTotal.WithLabelValues(string(payment.Status)).Inc()
	c.JSON(http.StatusCreated, dataResponse{Data: newPaymentResponse(payment)})
}
