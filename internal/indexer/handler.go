// Package indexer projects payment events from Kafka into the OpenSearch audit index.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"OrderPayments/internal/api/domain/order"
	"OrderPayments/internal/api/eventsink"
	"OrderPayments/internal/api/messaging"
)

// NewPaymentHandler decodes payment.processed envelopes and hands them to sink.
// Envelopes of other types are skipped.
func NewPaymentHandler(sink order.EventSink) messaging.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		var env messaging.Envelope
		if err := json.Unmarshal(value, &env); err != nil {
			return fmt.Errorf("decode envelope: %w: %w", messaging.ErrPermanent, err)
		}

		if env.Type != eventsink.PaymentProcessedType {
			slog.DebugContext(ctx, "Skipping message", "type", env.Type, "event_id", env.EventID)
			return nil
		}

		var event order.PaymentEvent
		if err := json.Unmarshal(env.Payload, &event); err != nil {
			return fmt.Errorf("decode payment event: %w: %w", messaging.ErrPermanent, err)
		}
		if event.PaymentID == "" {
			return fmt.Errorf("payment event %s without payment id: %w", env.EventID, messaging.ErrPermanent)
		}

		if err := sink.PaymentProcessed(ctx, event); err != nil {
			return fmt.Errorf("index payment %s: %w", event.PaymentID, err)
		}

		slog.InfoContext(ctx, "Payment indexed",
			"order_id", event.OrderID,
			"payment_id", event.PaymentID,
			"event_id", env.EventID)
		return nil
	}
}
