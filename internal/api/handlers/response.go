package handlers

import (
	"fmt"
	"sort"
	"time"

	"OrderPayments/internal/api/domain/order"

	"github.com/gin-gonic/gin"
)

type dataResponse struct {
	Data any `json:"data"`
}

type orderResponse struct {
	ID              string            `json:"id"`
	CustomerName    string            `json:"customer_name"`
	TotalAmount     string            `json:"total_amount"`
	Status          order.Status      `json:"status"`
	PaymentAttempts int               `json:"payment_attempts"`
	Payments        []paymentResponse `json:"payments"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type paymentResponse struct {
	ID        string              `json:"id"`
	OrderID   string              `json:"order_id"`
	Amount    string              `json:"amount"`
	Status    order.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

func newOrderResponse(o order.Order) orderResponse {
	payments := make([]paymentResponse, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, newPaymentResponse(p))
	}

	return orderResponse{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Status:          o.Status,
		PaymentAttempts: o.PaymentAttempts,
		Payments:        payments,
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}
}

func newPaymentResponse(p order.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount.StringFixed(2),
		Status:    p.Status,
		CreatedAt: p.CreatedAt.UTC(),
	}
}

// validationFailed writes 422 with the first message as summary and every field's messages.
func validationFailed(c *gin.Context, status int, verr *order.ValidationError) {
	c.JSON(status, gin.H{
		"message": summary(verr),
		"errors":  verr.Fields,
	})
}

func summary(verr *order.ValidationError) string {
	fields := make([]string, 0, len(verr.Fields))
	total := 0
	for f, msgs := range verr.Fields {
		fields = append(fields, f)
		total += len(msgs)
	}
	if total == 0 {
		return "The given data was invalid."
	}
	sort.Strings(fields)

	first := verr.Fields[fields[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return fmt.Sprintf("%s (and 1 more error)", first)
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}
