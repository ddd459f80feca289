package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when order is not found
	ErrNotFound = errors.New("order not found")

	// ErrNotEligible is returned when the order status does not accept payments
	ErrNotEligible = errors.New("order cannot receive payments")

	// ErrPaymentInProgress is returned while another attempt holds the order lease
	ErrPaymentInProgress = errors.New("payment already in progress")

	// ErrInvalidQuery is returned when order query validation fails
	ErrInvalidQuery = errors.New("invalid orders query")

	// ErrOutcomeNotRecorded is returned when the gateway was called but the result could not be stored
	ErrOutcomeNotRecorded = errors.New("payment outcome not recorded")

	// ErrAttemptSuperseded is returned when the order was paid by another attempt while this one ran
	ErrAttemptSuperseded = errors.New("payment attempt superseded")
)

// NotEligibleError carries the order that refused a payment and its status at that moment.
type NotEligibleError struct {
	OrderID string
	Status  Status
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("Order #%s cannot receive payments. Current status: %s", e.OrderID, e.Status)
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}
