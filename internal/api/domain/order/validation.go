package order

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxCustomerNameLength = 255
	MaxAmountDecimals     = 2
)

var (
	MinTotalAmount = decimal.RequireFromString("0.01")
	MaxTotalAmount = decimal.RequireFromString("999999.99")
)

// ValidationError maps request fields to human readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate normalizes the customer name and checks the amount bounds.
func (n *NewOrder) Validate() error {
	verr := &ValidationError{}

	n.CustomerName = strings.TrimSpace(n.CustomerName)
	switch {
	case n.CustomerName == "":
		verr.Add("customer_name", "Customer name is required")
	case utf8.RuneCountInString(n.CustomerName) > MaxCustomerNameLength:
		verr.Add("customer_name", "Customer name cannot exceed 255 characters")
	}

	for _, msg := range ValidateAmount(n.TotalAmount) {
		verr.Add("total_amount", msg)
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func ValidateAmount(amount decimal.Decimal) []string {
	var messages []string
	if amount.LessThan(MinTotalAmount) {
		messages = append(messages, "Total amount must be at least 0.01")
	}
	if amount.GreaterThan(MaxTotalAmount) {
		messages = append(messages, "Total amount cannot exceed 999,999.99")
	}
	if !amount.Equal(amount.Truncate(MaxAmountDecimals)) {
		messages = append(messages, "Total amount must have at most 2 decimal places")
	}
	return messages
}
