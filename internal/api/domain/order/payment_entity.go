package order

import (
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one recorded attempt against an order. Rows are never updated.
type Payment struct {
	ID      string
	OrderID string
	// Amount is the order total at the moment of the attempt.
	Amount    decimal.Decimal
	Status    PaymentStatus
	Response  json.RawMessage
	CreatedAt time.Time
}

type NewPayment struct {
	OrderID  string
	Amount   decimal.Decimal
	Status   PaymentStatus
	Response json.RawMessage
}

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var AvailablePaymentStatuses = []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed}

func NewPaymentStatus(raw string) (PaymentStatus, error) {
	if slices.Contains(AvailablePaymentStatuses, PaymentStatus(raw)) {
		return PaymentStatus(raw), nil
	}
	return "", errors.New("invalid payment status")
}

func OutcomeStatus(success bool) PaymentStatus {
	if success {
		return PaymentStatusSuccess
	}
	return PaymentStatusFailed
}

func (s PaymentStatus) IsSuccessful() bool {
	return s == PaymentStatusSuccess
}
