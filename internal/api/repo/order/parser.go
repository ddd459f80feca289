package order_repo

import (
	"fmt"

	"OrderPayments/internal/api/domain/order"

	"github.com/jackc/pgx/v5"
)

func parseOrderRow(row pgx.Row) (order.Order, error) {
	var m orderRow

	err := row.Scan(&m.ID,
		&m.CustomerName,
		&m.TotalAmount,
		&m.Status,
		&m.AttemptID,
		&m.AttemptExpiresAt,
		&m.CreatedAt,
		&m.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}

	return m.toDomain()
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := parseOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func parsePaymentRow(row pgx.Row) (order.Payment, error) {
	var m paymentRow

	err := row.Scan(&m.ID,
		&m.OrderID,
		&m.Amount,
		&m.Status,
		&m.Response,
		&m.CreatedAt)
	if err != nil {
		return order.Payment{}, err
	}

	return m.toDomain()
}

func parsePaymentRows(rows pgx.Rows) ([]order.Payment, error) {
	defer rows.Close()

	var payments []order.Payment
	for rows.Next() {
		p, err := parsePaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}
