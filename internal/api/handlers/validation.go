package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"OrderPayments/internal/api/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var fieldMessages = map[string]string{
	"customer_name.required": "Customer name is required",
	"customer_name.max":      "Customer name cannot exceed 255 characters",
	"customer_name.type":     "Customer name must be a string",
	"order_id.required":      "Order ID is required",
	"order_id.uuid":          "Order ID must be a valid UUID",
	"order_id.type":          "Order ID must be a valid UUID",
	"limit.min":              "Limit must be at least 1",
	"limit.max":              "Limit cannot exceed 100",
	"offset.min":             "Offset must not be negative",
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(tagName)
	}
}

// tagName reports fields by their json or form name so messages can be keyed on them.
func tagName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func bindJSON(c *gin.Context, dst any) *order.ValidationError {
	return bindingError(c.ShouldBindJSON(dst))
}

func bindQuery(c *gin.Context, dst any) *order.ValidationError {
	return bindingError(c.ShouldBindQuery(dst))
}

func bindingError(err error) *order.ValidationError {
	if err == nil {
		return nil
	}

	verr := &order.ValidationError{}

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), message(fe.Field(), fe.Tag()))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		verr.Add(typeErr.Field, message(typeErr.Field, "type"))
	default:
		verr.Add("body", "The request body must be a valid JSON object")
	}
	return verr
}

func message(field, rule string) string {
	if msg, ok := fieldMessages[field+"."+rule]; ok {
		return msg
	}
	return "The " + strings.ReplaceAll(field, "_", " ") + " field is invalid"
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, string) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		return decimal.Decimal{}, "Total amount is required"
	}

	if strings.HasPrefix(value, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, "Total amount must be a valid number"
		}
		value = strings.TrimSpace(s)
		if value == "" {
			return decimal.Decimal{}, "Total amount is required"
		}
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, "Total amount must be a valid number"
	}
	return amount, ""
}
