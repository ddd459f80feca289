package eventsink

import (
	"context"
	"fmt"

	"OrderPayments/internal/api/domain/order"
	"OrderPayments/internal/api/messaging"
)

const PaymentProcessedType = "payment.processed"

var _ order.EventSink = (*PublisherSink)(nil)

// PublisherSink wraps payment events in an envelope keyed by order id.
type PublisherSink struct {
	publisher messaging.Publisher
}

func NewPublisherSink(publisher messaging.Publisher) *PublisherSink {
	return &PublisherSink{publisher: publisher}
}

func (s *PublisherSink) PaymentProcessed(ctx context.Context, event order.PaymentEvent) error {
	env, err := messaging.NewEnvelopeWithID(event.EventID, event.OrderID, PaymentProcessedType, event)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
