package order_repo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"OrderPayments/internal/api/domain/order"

	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID               string
	CustomerName     string
	TotalAmount      string
	Status           string
	AttemptID        *string
	AttemptExpiresAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (m orderRow) toDomain() (order.Order, error) {
	status, err := order.NewStatus(m.Status)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid status in database: %w", err)
	}

	amount, err := decimal.NewFromString(m.TotalAmount)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid total amount in database: %w", err)
	}

	return order.Order{
		ID:               m.ID,
		CustomerName:     m.CustomerName,
		TotalAmount:      amount,
		Status:           status,
		AttemptID:        m.AttemptID,
		AttemptExpiresAt: m.AttemptExpiresAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

type paymentRow struct {
	ID        string
	OrderID   string
	Amount    string
	Status    string
	Response  []byte
	CreatedAt time.Time
}

func (m paymentRow) toDomain() (order.Payment, error) {
	status, err := order.NewPaymentStatus(m.Status)
	if err != nil {
		return order.Payment{}, fmt.Errorf("invalid payment status in database: %w", err)
	}

	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return order.Payment{}, fmt.Errorf("invalid payment amount in database: %w", err)
	}

	return order.Payment{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Amount:    amount,
		Status:    status,
		Response:  json.RawMessage(m.Response),
		CreatedAt: m.CreatedAt,
	}, nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
