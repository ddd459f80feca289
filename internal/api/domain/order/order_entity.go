package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string
	CustomerName    string
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentAttempts int
	Payments        []Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Attempt lease, set while a gateway call for this order is in flight.
	AttemptID        *string
	AttemptExpiresAt *time.Time
}

// HasActiveAttempt reports whether another payment attempt still holds the order at now.
func (o Order) HasActiveAttempt(now time.Time) bool {
	return o.AttemptID != nil && o.AttemptExpiresAt != nil && o.AttemptExpiresAt.After(now)
}

// HoldsAttempt reports whether the lease on the order belongs to attemptID.
func (o Order) HoldsAttempt(attemptID string) bool {
	return o.AttemptID != nil && *o.AttemptID == attemptID
}

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

var AvailableStatuses = []Status{StatusPending, StatusPaid, StatusFailed}

func NewStatus(raw string) (Status, error) {
	if slices.Contains(AvailableStatuses, Status(raw)) {
		return Status(raw), nil
	}
	return "", errors.New("invalid order status")
}

// CanReceivePayment is true for pending and failed orders. Paid is terminal.
func (s Status) CanReceivePayment() bool {
	return s == StatusPending || s == StatusFailed
}

func (s Status) IsPaid() bool {
	return s == StatusPaid
}

// AfterPayment is the status an order moves to once a payment with the given outcome is recorded.
func (s Status) AfterPayment(outcome PaymentStatus) Status {
	if outcome.IsSuccessful() {
		return StatusPaid
	}
	return StatusFailed
}

type NewOrder struct {
	CustomerName string
	TotalAmount  decimal.Decimal
}

// AttemptLease marks an order as busy with one payment attempt until ExpiresAt.
type AttemptLease struct {
	OrderID   string
	AttemptID string
	ExpiresAt time.Time
}

type StatusUpdate struct {
	OrderID string
	Status  Status
	// ReleaseLease clears the attempt lease in the same statement.
	ReleaseLease bool
}

type Pagination struct {
	Limit  int
	Offset int
}

type OrdersQuery struct {
	IDs        []string
	Statuses   []Status
	Pagination *Pagination
	SortBy     *string
	SortOrder  *string
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("invalid sort by: %s", *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s", *o.SortOrder)
	}
	if o.Pagination != nil {
		if o.Pagination.Limit < 1 || o.Pagination.Limit > MaxPageLimit {
			return fmt.Errorf("limit must be between 1 and %d", MaxPageLimit)
		}
		if o.Pagination.Offset < 0 {
			return errors.New("offset must not be negative")
		}
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...Status) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}

// Latest orders the result newest first.
func (b *OrdersQueryBuilder) Latest() *OrdersQueryBuilder {
	return b.WithSort("created_at", "desc")
}
