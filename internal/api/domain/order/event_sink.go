package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source event_sink.go -destination mock_event_sink.go -package order

// EventSink receives committed payment attempts. Delivery is best effort.
type EventSink interface {
	PaymentProcessed(ctx context.Context, event PaymentEvent) error
}

type PaymentEvent struct {
	EventID              string          `json:"event_id"`
	OrderID              string          `json:"order_id"`
	PaymentID            string          `json:"payment_id"`
	CustomerName         string          `json:"customer_name"`
	Amount               decimal.Decimal `json:"amount"`
	PaymentStatus        PaymentStatus   `json:"payment_status"`
	OrderStatus          Status          `json:"order_status"`
	TransactionReference *string         `json:"transaction_reference,omitempty"`
	Superseded           bool            `json:"superseded,omitempty"`
	OccurredAt           time.Time       `json:"occurred_at"`
}
