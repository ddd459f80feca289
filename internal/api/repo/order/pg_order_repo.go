package order_repo

import (
	"context"
	"errors"
	"fmt"

	"OrderPayments/internal/api/domain/order"
	"OrderPayments/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var (
	orderColumns = []string{
		"id::text", "customer_name", "total_amount::text", "status",
		"attempt_id::text", "attempt_expires_at", "created_at", "updated_at",
	}
	paymentColumns = []string{
		"id::text", "order_id::text", "amount::text", "status", "response", "created_at",
	}
)

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	db postgres.TxBeginner
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return &PgOrderRepo{
		db:   pg.Pool,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return postgres.RunInTransaction(ctx, r.db, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.builder}
		return fn(txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) CreateOrder(ctx context.Context, newOrder order.NewOrder) (order.Order, error) {
	query, args, err := r.builder.Insert("orders").
		Columns("customer_name", "total_amount", "status").
		Values(newOrder.CustomerName, newOrder.TotalAmount.StringFixed(2), order.StatusPending).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build insert query: %w", err)
	}

	created, err := parseOrderRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	sql, args, err := r.buildOrdersQuery(query)
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	return parseOrderRows(rows)
}

func (r *repo) GetPayments(ctx context.Context, orderIDs ...string) ([]order.Payment, error) {
	q := r.builder.Select(paymentColumns...).
		From("payments").
		OrderBy("created_at ASC", "id ASC")
	if len(orderIDs) > 0 {
		q = q.Where(squirrel.Eq{"order_id": orderIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}

	return parsePaymentRows(rows)
}

func (r *repo) LockOrder(ctx context.Context, id string) (order.Order, error) {
	sql, args, err := r.builder.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build lock query: %w", err)
	}

	o, err := parseOrderRow(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsPgErrorInvalidText(err) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

func (r *repo) SetAttemptLease(ctx context.Context, lease order.AttemptLease) error {
	query, args, err := r.builder.Update("orders").
		Set("attempt_id", lease.AttemptID).
		Set("attempt_expires_at", lease.ExpiresAt).
		Where(squirrel.Eq{"id": lease.OrderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lease query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set attempt lease: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *repo) CreatePayment(ctx context.Context, payment order.NewPayment) (order.Payment, error) {
	query, args, err := r.builder.Insert("payments").
		Columns("order_id", "amount", "status", "response").
		Values(payment.OrderID, payment.Amount.StringFixed(2), payment.Status, []byte(payment.Response)).
		Suffix("RETURNING " + joinColumns(paymentColumns)).
		ToSql()
	if err != nil {
		return order.Payment{}, fmt.Errorf("build insert payment query: %w", err)
	}

	created, err := parsePaymentRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgErrorForeignKeyViolation(err) {
			return order.Payment{}, order.ErrNotFound
		}
		return order.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

func (r *repo) UpdateOrderStatus(ctx context.Context, update order.StatusUpdate) error {
	q := r.builder.Update("orders").
		Set("status", update.Status).
		Set("updated_at", squirrel.Expr("NOW()"))
	if update.ReleaseLease {
		q = q.Set("attempt_id", nil).Set("attempt_expires_at", nil)
	}

	query, args, err := q.Where(squirrel.Eq{"id": update.OrderID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) (string, []any, error) {
	query := r.builder.Select(orderColumns...).
		From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}

	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": q.Statuses})
	}

	if q.SortBy != nil && q.SortOrder != nil {
		// id breaks ties between orders created in the same instant
		query = query.OrderBy(fmt.Sprintf("%s %s", *q.SortBy, *q.SortOrder), "id "+*q.SortOrder)
	}

	if q.Pagination != nil {
		query = query.Limit(uint64(q.Pagination.Limit)).Offset(uint64(q.Pagination.Offset))
	}

	return query.ToSql()
}
