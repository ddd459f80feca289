package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"OrderPayments/internal/api/domain/gateway"

	"github.com/google/uuid"
)

const DefaultAttemptLease = 30 * time.Second

type OrderService struct {
	orderRepo OrderRepo
	gateway   gateway.Gateway
	eventSink EventSink

	attemptLease time.Duration
	now          func() time.Time
	newID        func() string
}

type ServiceOption func(*OrderService)

// WithAttemptLease sets how long a claimed order stays locked for one gateway call.
func WithAttemptLease(d time.Duration) ServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.attemptLease = d
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *OrderService) { s.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *OrderService) { s.newID = newID }
}

func NewOrderService(orderRepo OrderRepo, gw gateway.Gateway, eventSink EventSink, opts ...ServiceOption) *OrderService {
	s := &OrderService{
		orderRepo:    orderRepo,
		gateway:      gw,
		eventSink:    eventSink,
		attemptLease: DefaultAttemptLease,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, newOrder NewOrder) (Order, error) {
	if err := newOrder.Validate(); err != nil {
		return Order{}, err
	}

	created, err := s.orderRepo.CreateOrder(ctx, newOrder)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	created.Payments = []Payment{}

	slog.InfoContext(ctx, "Order created",
		"order_id", created.ID,
		"total_amount", created.TotalAmount.StringFixed(2))
	return created, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (Order, error) {
	return getOrderByID(ctx, s.orderRepo, id)
}

func getOrderByID(ctx context.Context, repo TxOrderRepo, id string) (Order, error) {
	query, _ := NewOrdersQueryBuilder().
		WithIDs(id).
		Build()

	orders, err := repo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}

	withPayments, err := attachPayments(ctx, repo, orders[:1])
	if err != nil {
		return Order{}, err
	}
	return withPayments[0], nil
}

// GetOrders returns orders newest first unless the query asks for another order.
func (s *OrderService) GetOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	if query.SortBy == nil || query.SortOrder == nil {
		sortBy, sortOrder := "created_at", "desc"
		query.SortBy, query.SortOrder = &sortBy, &sortOrder
	}
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}

	orders, err := s.orderRepo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return attachPayments(ctx, s.orderRepo, orders)
}

func attachPayments(ctx context.Context, repo TxOrderRepo, orders []Order) ([]Order, error) {
	if len(orders) == 0 {
		return []Order{}, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	payments, err := repo.GetPayments(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	byOrder := make(map[string][]Payment, len(orders))
	for _, p := range payments {
		byOrder[p.OrderID] = append(byOrder[p.OrderID], p)
	}

	for i := range orders {
		orders[i].Payments = byOrder[orders[i].ID]
		if orders[i].Payments == nil {
			orders[i].Payments = []Payment{}
		}
		orders[i].PaymentAttempts = len(orders[i].Payments)
	}
	return orders, nil
}

// ProcessPayment runs one payment attempt for the order.
//
// The order is claimed with a short lease, the gateway is called with no
// transaction open, and the outcome is recorded together with the new order
// status in a second transaction.
func (s *OrderService) ProcessPayment(ctx context.Context, orderID string) (Payment, error) {
	attemptID := s.newID()

	claimed, err := s.claimOrder(ctx, orderID, attemptID)
	if err != nil {
		return Payment{}, err
	}

	// A claimed attempt is finished and recorded even if the caller goes away.
	// The gateway call is bounded by the client's own timeout.
	attemptCtx := context.WithoutCancel(ctx)

	outcome := s.gateway.Attempt(attemptCtx, gateway.AttemptRequest{
		Amount:  claimed.TotalAmount,
		OrderID: claimed.ID,
	})

	payment, final, err := s.recordOutcome(attemptCtx, claimed, attemptID, outcome)
	if err != nil && !errors.Is(err, ErrAttemptSuperseded) {
		slog.ErrorContext(ctx, "Payment outcome not recorded",
			"order_id", orderID,
			"attempt_id", attemptID,
			"gateway_success", outcome.Success,
			"gateway_response", string(outcome.JSON()),
			slog.Any("error", err))
		return Payment{}, fmt.Errorf("%w: %w", ErrOutcomeNotRecorded, err)
	}

	s.publish(attemptCtx, claimed, final, payment, outcome, err != nil)

	if err != nil {
		slog.WarnContext(ctx, "Payment attempt superseded",
			"order_id", orderID,
			"payment_id", payment.ID,
			"payment_status", payment.Status)
		return payment, err
	}

	slog.InfoContext(ctx, "Payment processed",
		"order_id", orderID,
		"payment_id", payment.ID,
		"payment_status", payment.Status,
		"order_status", final.Status)
	return payment, nil
}

func (s *OrderService) claimOrder(ctx context.Context, orderID, attemptID string) (Order, error) {
	var claimed Order
	err := s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if !o.Status.CanReceivePayment() {
			return &NotEligibleError{OrderID: o.ID, Status: o.Status}
		}

		now := s.now()
		if o.HasActiveAttempt(now) {
			return ErrPaymentInProgress
		}

		lease := AttemptLease{
			OrderID:   o.ID,
			AttemptID: attemptID,
			ExpiresAt: now.Add(s.attemptLease),
		}
		if err := tx.SetAttemptLease(ctx, lease); err != nil {
			return fmt.Errorf("set attempt lease: %w", err)
		}

		o.AttemptID = &lease.AttemptID
		o.AttemptExpiresAt = &lease.ExpiresAt
		claimed = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotEligible) || errors.Is(err, ErrPaymentInProgress) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("claim order: %w", err)
	}
	return claimed, nil
}

// recordOutcome stores the payment and the status transition in one transaction.
// It returns ErrAttemptSuperseded, along with the stored payment, when the order
// was paid by another attempt after this lease expired.
func (s *OrderService) recordOutcome(ctx context.Context, claimed Order, attemptID string, outcome gateway.Outcome) (Payment, Order, error) {
	var (
		payment    Payment
		final      Order
		superseded bool
	)

	err := s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		current, err := tx.LockOrder(ctx, claimed.ID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		payment, err = tx.CreatePayment(ctx, NewPayment{
			OrderID:  claimed.ID,
			Amount:   claimed.TotalAmount,
			Status:   OutcomeStatus(outcome.Success),
			Response: outcome.JSON(),
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		final = current
		if current.Status.IsPaid() {
			superseded = true
			return nil
		}

		final.Status = current.Status.AfterPayment(payment.Status)
		update := StatusUpdate{
			OrderID:      current.ID,
			Status:       final.Status,
			ReleaseLease: current.HoldsAttempt(attemptID),
		}
		if err := tx.UpdateOrderStatus(ctx, update); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return Payment{}, Order{}, err
	}

	if superseded {
		return payment, final, ErrAttemptSuperseded
	}
	return payment, final, nil
}

func (s *OrderService) publish(ctx context.Context, claimed, final Order, payment Payment, outcome gateway.Outcome, superseded bool) {
	if s.eventSink == nil {
		return
	}

	event := PaymentEvent{
		EventID:              s.newID(),
		OrderID:              claimed.ID,
		PaymentID:            payment.ID,
		CustomerName:         claimed.CustomerName,
		Amount:               payment.Amount,
		PaymentStatus:        payment.Status,
		OrderStatus:          final.Status,
		TransactionReference: outcome.TransactionReference,
		Superseded:           superseded,
		OccurredAt:           payment.CreatedAt,
	}
	if err := s.eventSink.PaymentProcessed(ctx, event); err != nil {
		slog.WarnContext(ctx, "Payment event not delivered",
			"order_id", claimed.ID,
			"payment_id", payment.ID,
			slog.Any("error", err))
	}
}
