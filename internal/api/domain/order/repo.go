package order

import "context"

//go:generate mockgen -source repo.go -destination mock_repo.go -package order

type OrderRepo interface {
	TxOrderRepo
	InTransaction(ctx context.Context, fn func(repo TxOrderRepo) error) error
}

type TxOrderRepo interface {
	CreateOrder(ctx context.Context, newOrder NewOrder) (Order, error)
	GetOrders(ctx context.Context, filter *OrdersQuery) ([]Order, error)
	GetPayments(ctx context.Context, orderIDs ...string) ([]Payment, error)

	// LockOrder selects the order row FOR UPDATE. Returns ErrNotFound when absent.
	LockOrder(ctx context.Context, id string) (Order, error)
	SetAttemptLease(ctx context.Context, lease AttemptLease) error
	CreatePayment(ctx context.Context, payment NewPayment) (Payment, error)
	UpdateOrderStatus(ctx context.Context, update StatusUpdate) error
}
