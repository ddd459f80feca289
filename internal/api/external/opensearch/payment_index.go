// Package opensearch keeps a searchable audit projection of payment attempts.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"OrderPayments/internal/api/domain/order"

	"github.com/opensearch-project/opensearch-go"
)

var _ order.EventSink = (*PaymentIndex)(nil)

type PaymentIndex struct {
	client *opensearch.Client
	index  string
}

func NewPaymentIndex(ctx context.Context, urls []string, index string) (*PaymentIndex, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	idx := &PaymentIndex{client: client, index: index}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

var indexBody = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"payment_id":            map[string]any{"type": "keyword"},
			"order_id":              map[string]any{"type": "keyword"},
			"customer_name":         map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"amount":                map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"payment_status":        map[string]any{"type": "keyword"},
			"order_status":          map[string]any{"type": "keyword"},
			"transaction_reference": map[string]any{"type": "keyword"},
			"superseded":            map[string]any{"type": "boolean"},
			"occurred_at":           map[string]any{"type": "date"},
			"indexed_at":            map[string]any{"type": "date"},
		},
	},
	"settings": map[string]any{
		"number_of_replicas": 0,
	},
}

func (s *PaymentIndex) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	buf, _ := json.Marshal(indexBody)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	// another instance may have created it in between
	if cr.IsError() && cr.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type paymentDoc struct {
	PaymentID            string              `json:"payment_id"`
	OrderID              string              `json:"order_id"`
	CustomerName         string              `json:"customer_name"`
	Amount               json.Number         `json:"amount"`
	PaymentStatus        order.PaymentStatus `json:"payment_status"`
	OrderStatus          order.Status        `json:"order_status"`
	TransactionReference *string             `json:"transaction_reference,omitempty"`
	Superseded           bool                `json:"superseded"`
	OccurredAt           time.Time           `json:"occurred_at"`
	IndexedAt            time.Time           `json:"indexed_at"`
}

// PaymentProcessed indexes the attempt under its payment id, so redelivered events overwrite themselves.
func (s *PaymentIndex) PaymentProcessed(ctx context.Context, ev order.PaymentEvent) error {
	doc := paymentDoc{
		PaymentID:            ev.PaymentID,
		OrderID:              ev.OrderID,
		CustomerName:         ev.CustomerName,
		Amount:               json.Number(ev.Amount.StringFixed(2)),
		PaymentStatus:        ev.PaymentStatus,
		OrderStatus:          ev.OrderStatus,
		TransactionReference: ev.TransactionReference,
		Superseded:           ev.Superseded,
		OccurredAt:           ev.OccurredAt.UTC(),
		IndexedAt:            time.Now().UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal payment doc: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(ev.PaymentID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

func (s *PaymentIndex) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping: %s", res.Status())
	}
	return nil
}
