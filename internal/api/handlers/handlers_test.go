package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"OrderPayments/internal/api/domain/gateway"
	"OrderPayments/internal/api/domain/order"
	"OrderPayments/pkg/pointers"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const orderID = "3f2a1b0c-9d8e-4f7a-8b6c-5d4e3f2a1b0c"

var createdAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	engine  *gin.Engine
	repo    *order.MockOrderRepo
	txRepo  *order.MockTxOrderRepo
	gateway *gateway.MockGateway
}

func setup(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	env := testEnv{
		repo:    order.NewMockOrderRepo(ctrl),
		txRepo:  order.NewMockTxOrderRepo(ctrl),
		gateway: gateway.NewMockGateway(ctrl),
	}
	sink := order.NewMockEventSink(ctrl)
	sink.EXPECT().PaymentProcessed(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	service := order.NewOrderService(env.repo, env.gateway, sink,
		order.WithClock(func() time.Time { return createdAt }))
	orders := NewOrderHandler(service)
	payments := NewPaymentHandler(service)

	env.engine = gin.New()
	env.engine.POST("/orders", orders.Create)
	env.engine.GET("/orders", orders.Filter)
	env.engine.GET("/orders/:order_id", orders.Get)
	env.engine.POST("/payments", payments.Create)
	return env
}

func (e testEnv) withTransactions() {
	e.repo.EXPECT().InTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(order.TxOrderRepo) error) error {
			return fn(e.txRepo)
		}).AnyTimes()
}

func (e testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func pendingOrder(amount string) order.Order {
	return order.Order{
		ID:           orderID,
		CustomerName: "John Smith",
		TotalAmount:  decimal.RequireFromString(amount),
		Status:       order.StatusPending,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestOrderHandler_Create(t *testing.T) {
	t.Run("should create pending order with formatted amount", func(t *testing.T) {
		env := setup(t)
		env.repo.EXPECT().CreateOrder(gomock.Any(), order.NewOrder{
			CustomerName: "John Smith",
			TotalAmount:  decimal.RequireFromString("150.5"),
		}).Return(pendingOrder("150.50"), nil)

		w := env.do(http.MethodPost, "/orders", `{"customer_name":"John Smith","total_amount":150.5}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":{
			"id":"`+orderID+`",
			"customer_name":"John Smith",
			"total_amount":"150.50",
			"status":"pending",
			"payment_attempts":0,
			"payments":[],
			"created_at":"2025-03-14T09:30:00Z",
			"updated_at":"2025-03-14T09:30:00Z"
		}}`, w.Body.String())
	})

	t.Run("should accept numeric string amount", func(t *testing.T) {
		env := setup(t)
		env.repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(pendingOrder("99.99"), nil)

		w := env.do(http.MethodPost, "/orders", `{"customer_name":"John Smith","total_amount":"99.99"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	testCases := []struct {
		name     string
		body     string
		expected map[string][]string
	}{
		{
			name:     "missing fields",
			body:     `{}`,
			expected: map[string][]string{"customer_name": {"Customer name is required"}, "total_amount": {"Total amount is required"}},
		},
		{
			name:     "name too long",
			body:     `{"customer_name":"` + strings.Repeat("a", 256) + `","total_amount":10}`,
			expected: map[string][]string{"customer_name": {"Customer name cannot exceed 255 characters"}},
		},
		{
			name:     "non numeric amount",
			body:     `{"customer_name":"Jane","total_amount":"abc"}`,
			expected: map[string][]string{"total_amount": {"Total amount must be a valid number"}},
		},
		{
			name:     "zero amount",
			body:     `{"customer_name":"Jane","total_amount":0}`,
			expected: map[string][]string{"total_amount": {"Total amount must be at least 0.01"}},
		},
		{
			name:     "amount above maximum",
			body:     `{"customer_name":"Jane","total_amount":1000000}`,
			expected: map[string][]string{"total_amount": {"Total amount cannot exceed 999,999.99"}},
		},
		{
			name:     "three decimal places",
			body:     `{"customer_name":"Jane","total_amount":10.999}`,
			expected: map[string][]string{"total_amount": {"Total amount must have at most 2 decimal places"}},
		},
		{
			name:     "empty name and zero amount",
			body:     `{"customer_name":"","total_amount":0}`,
			expected: map[string][]string{"customer_name": {"Customer name is required"}, "total_amount": {"Total amount must be at least 0.01"}},
		},
		{
			name:     "blank name",
			body:     `{"customer_name":"   ","total_amount":10}`,
			expected: map[string][]string{"customer_name": {"Customer name is required"}},
		},
	}

	for _, tc := range testCases {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			env := setup(t)

			w := env.do(http.MethodPost, "/orders", tc.body)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			var body struct {
				Message string              `json:"message"`
				Errors  map[string][]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.expected, body.Errors)
			assert.NotEmpty(t, body.Message)
		})
	}

	t.Run("should hide internal errors", func(t *testing.T) {
		env := setup(t)
		env.repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(order.Order{}, errors.New("pq: connection refused"))

		w := env.do(http.MethodPost, "/orders", `{"customer_name":"Jane","total_amount":10}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("should return order with payments", func(t *testing.T) {
		env := setup(t)
		o := pendingOrder("42.00")
		o.Status = order.StatusFailed
		env.repo.EXPECT().GetOrders(gomock.Any(), gomock.Any()).Return([]order.Order{o}, nil)
		env.repo.EXPECT().GetPayments(gomock.Any(), orderID).Return([]order.Payment{{
			ID: "pay-1", OrderID: orderID, Amount: decimal.NewFromInt(42), Status: order.PaymentStatusFailed, CreatedAt: createdAt,
		}}, nil)

		w := env.do(http.MethodGet, "/orders/"+orderID, "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "failed", data["status"])
		assert.Equal(t, float64(1), data["payment_attempts"])
		payment := data["payments"].([]any)[0].(map[string]any)
		assert.Equal(t, "42.00", payment["amount"])
		assert.Equal(t, "failed", payment["status"])
	})

	t.Run("should return 404 for unknown order", func(t *testing.T) {
		env := setup(t)
		env.repo.EXPECT().GetOrders(gomock.Any(), gomock.Any()).Return(nil, nil)

		w := env.do(http.MethodGet, "/orders/"+orderID, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Order not found"}`, w.Body.String())
	})

	t.Run("should return 404 for malformed id", func(t *testing.T) {
		env := setup(t)

		w := env.do(http.MethodGet, "/orders/12", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_Filter(t *testing.T) {
	t.Run("should list orders newest first", func(t *testing.T) {
		env := setup(t)
		older, newer := pendingOrder("10.00"), pendingOrder("20.00")
		older.ID, newer.ID = "o-1", "o-2"
		env.repo.EXPECT().GetOrders(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q *order.OrdersQuery) ([]order.Order, error) {
				assert.Equal(t, "created_at", *q.SortBy)
				assert.Equal(t, "desc", *q.SortOrder)
				assert.Equal(t, &order.Pagination{Limit: 2, Offset: 4}, q.Pagination)
				return []order.Order{newer, older}, nil
			})
		env.repo.EXPECT().GetPayments(gomock.Any(), "o-2", "o-1").Return(nil, nil)

		w := env.do(http.MethodGet, "/orders?limit=2&offset=4", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]any)
		require.Len(t, data, 2)
		assert.Equal(t, "o-2", data[0].(map[string]any)["id"])
	})

	t.Run("should reject limit out of range", func(t *testing.T) {
		env := setup(t)

		w := env.do(http.MethodGet, "/orders?limit=1000", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Limit cannot exceed 100")
	})
}

func TestPaymentHandler_Create(t *testing.T) {
	total := decimal.RequireFromString("100.00")
	successOutcome := gateway.Outcome{
		Success:              true,
		TransactionReference: pointers.Ptr("501"),
		RawResponse:          json.RawMessage(`{"id":"501"}`),
		StatusCode:           pointers.Ptr(201),
	}

	expectAttempt := func(env testEnv, initial order.Status, outcome gateway.Outcome) {
		claimed := pendingOrder("100.00")
		claimed.Status = initial
		env.txRepo.EXPECT().LockOrder(gomock.Any(), orderID).Return(claimed, nil)
		env.txRepo.EXPECT().SetAttemptLease(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, lease order.AttemptLease) error {
				claimed.AttemptID = pointers.Ptr(lease.AttemptID)
				claimed.AttemptExpiresAt = pointers.Ptr(lease.ExpiresAt)
				return nil
			})
		env.gateway.EXPECT().Attempt(gomock.Any(), gateway.AttemptRequest{Amount: total, OrderID: orderID}).Return(outcome)
		env.txRepo.EXPECT().LockOrder(gomock.Any(), orderID).DoAndReturn(func(context.Context, string) (order.Order, error) {
			return claimed, nil
		})
		env.txRepo.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p order.NewPayment) (order.Payment, error) {
				return order.Payment{ID: "pay-1", OrderID: p.OrderID, Amount: p.Amount, Status: p.Status, Response: p.Response, CreatedAt: createdAt}, nil
			})
	}

	t.Run("should return 201 and mark order paid on success", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		expectAttempt(env, order.StatusPending, successOutcome)
		env.txRepo.EXPECT().UpdateOrderStatus(gomock.Any(), order.StatusUpdate{OrderID: orderID, Status: order.StatusPaid, ReleaseLease: true}).Return(nil)

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":{"id":"pay-1","order_id":"`+orderID+`","amount":"100.00","status":"success","created_at":"2025-03-14T09:30:00Z"}}`, w.Body.String())
	})

	t.Run("should return 201 with failed payment when gateway declines", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		expectAttempt(env, order.StatusFailed, gateway.Outcome{ErrorMessage: pointers.Ptr("timeout")})
		env.txRepo.EXPECT().UpdateOrderStatus(gomock.Any(), order.StatusUpdate{OrderID: orderID, Status: order.StatusFailed, ReleaseLease: true}).Return(nil)

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "failed", decode(t, w)["data"].(map[string]any)["status"])
	})

	t.Run("should return 422 for paid order", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		paid := pendingOrder("100.00")
		paid.Status = order.StatusPaid
		env.txRepo.EXPECT().LockOrder(gomock.Any(), orderID).Return(paid, nil)

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{
			"message":"Payment processing failed",
			"error":"Order #`+orderID+` cannot receive payments. Current status: paid"
		}`, w.Body.String())
	})

	t.Run("should return 422 for unknown order", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		env.txRepo.EXPECT().LockOrder(gomock.Any(), orderID).Return(order.Order{}, order.ErrNotFound)

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{
			"message":"The specified order does not exist",
			"errors":{"order_id":["The specified order does not exist"]}
		}`, w.Body.String())
	})

	t.Run("should return 409 while another attempt is running", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		busy := pendingOrder("100.00")
		busy.AttemptID = pointers.Ptr("other")
		busy.AttemptExpiresAt = pointers.Ptr(createdAt.Add(time.Minute))
		env.txRepo.EXPECT().LockOrder(gomock.Any(), orderID).Return(busy, nil)

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("should return 500 when the outcome cannot be recorded", func(t *testing.T) {
		env := setup(t)
		env.withTransactions()
		expectAttempt(env, order.StatusPending, successOutcome)
		env.txRepo.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any()).Return(errors.New("deadlock detected"))

		w := env.do(http.MethodPost, "/payments", `{"order_id":"`+orderID+`"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Payment processing failed","error":"An unexpected error occurred"}`, w.Body.String())
	})

	invalid := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "missing order id", body: `{}`, expected: "Order ID is required"},
		{name: "non uuid order id", body: `{"order_id":"abc"}`, expected: "Order ID must be a valid UUID"},
		{name: "numeric order id", body: `{"order_id":12}`, expected: "Order ID must be a valid UUID"},
	}
	for _, tc := range invalid {
		t.Run("should return 422 for "+tc.name, func(t *testing.T) {
			env := setup(t)

			w := env.do(http.MethodPost, "/payments", tc.body)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			var body struct {
				Errors map[string][]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, []string{tc.expected}, body.Errors["order_id"])
		})
	}
}
