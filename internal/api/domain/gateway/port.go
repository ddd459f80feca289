package gateway

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source port.go -destination mock_port.go -package gateway

// Gateway attempts one charge. Failures of any kind come back as an unsuccessful Outcome.
type Gateway interface {
	Attempt(ctx context.Context, req AttemptRequest) Outcome
}

type AttemptRequest struct {
	Amount  decimal.Decimal
	OrderID string
}

type Outcome struct {
	Success              bool
	TransactionReference *string
	RawResponse          json.RawMessage
	StatusCode           *int
	ErrorMessage         *string
}

type auditRecord struct {
	Success       bool            `json:"success"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	ResponseData  json.RawMessage `json:"response_data"`
	StatusCode    *int            `json:"status_code,omitempty"`
	Error         *string         `json:"error,omitempty"`
}

// JSON is the audit payload stored with the payment record.
func (o Outcome) JSON() json.RawMessage {
	record := auditRecord{
		Success:       o.Success,
		TransactionID: o.TransactionReference,
		ResponseData:  o.RawResponse,
		StatusCode:    o.StatusCode,
		Error:         o.ErrorMessage,
	}
	if len(record.ResponseData) == 0 || !json.Valid(record.ResponseData) {
		record.ResponseData = json.RawMessage("null")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return json.RawMessage(`{"success":false,"response_data":null}`)
	}
	return raw
}

func (o Outcome) Label() string {
	switch {
	case o.Success:
		return "success"
	case o.StatusCode != nil:
		return "rejected"
	default:
		return "error"
	}
}
