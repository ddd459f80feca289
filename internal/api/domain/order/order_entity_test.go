package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatus_CanReceivePayment(t *testing.T) {
	assert.True(t, StatusPending.CanReceivePayment())
	assert.True(t, StatusFailed.CanReceivePayment())
	assert.False(t, StatusPaid.CanReceivePayment())
}

func TestStatus_AfterPayment(t *testing.T) {
	testCases := []struct {
		from     Status
		outcome  PaymentStatus
		expected Status
	}{
		{StatusPending, PaymentStatusSuccess, StatusPaid},
		{StatusPending, PaymentStatusFailed, StatusFailed},
		{StatusFailed, PaymentStatusSuccess, StatusPaid},
		{StatusFailed, PaymentStatusFailed, StatusFailed},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"+"+string(tc.outcome), func(t *testing.T) {
			next := tc.from.AfterPayment(tc.outcome)

			assert.Equal(t, tc.expected, next)
			assert.Equal(t, tc.expected == StatusFailed, next.CanReceivePayment())
		})
	}
}

func TestOutcomeStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusSuccess, OutcomeStatus(true))
	assert.Equal(t, PaymentStatusFailed, OutcomeStatus(false))
}

func TestNewStatus(t *testing.T) {
	status, err := NewStatus("failed")
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, status)

	_, err = NewStatus("refunded")
	assert.Error(t, err)

	_, err = NewPaymentStatus("pending")
	assert.Error(t, err)
}

func TestNewOrder_Validate(t *testing.T) {
	longName := make([]rune, MaxCustomerNameLength+1)
	for i := range longName {
		longName[i] = 'ж'
	}

	testCases := []struct {
		name     string
		input    NewOrder
		expected map[string][]string
	}{
		{
			name:  "minimum amount is accepted",
			input: NewOrder{CustomerName: "Jane", TotalAmount: decimal.RequireFromString("0.01")},
		},
		{
			name:  "maximum amount is accepted",
			input: NewOrder{CustomerName: "Jane", TotalAmount: decimal.RequireFromString("999999.99")},
		},
		{
			name:     "zero amount is rejected",
			input:    NewOrder{CustomerName: "Jane", TotalAmount: decimal.Zero},
			expected: map[string][]string{"total_amount": {"Total amount must be at least 0.01"}},
		},
		{
			name:     "amount above maximum is rejected",
			input:    NewOrder{CustomerName: "Jane", TotalAmount: decimal.RequireFromString("1000000")},
			expected: map[string][]string{"total_amount": {"Total amount cannot exceed 999,999.99"}},
		},
		{
			name:     "third decimal place is rejected",
			input:    NewOrder{CustomerName: "Jane", TotalAmount: decimal.RequireFromString("10.005")},
			expected: map[string][]string{"total_amount": {"Total amount must have at most 2 decimal places"}},
		},
		{
			name:     "name longer than 255 characters is rejected",
			input:    NewOrder{CustomerName: string(longName), TotalAmount: decimal.NewFromInt(1)},
			expected: map[string][]string{"customer_name": {"Customer name cannot exceed 255 characters"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()

			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tc.expected, verr.Fields)
			}
		})
	}
}
