// Package eventsink delivers committed payment events to the configured sinks.
package eventsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"OrderPayments/internal/api/domain/order"
	"OrderPayments/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const defaultDeliveryTimeout = 5 * time.Second

var _ order.EventSink = (*FanOut)(nil)

type namedSink struct {
	name string
	sink order.EventSink
}

// FanOut delivers every event to all registered sinks concurrently.
// One slow or failing sink does not stop delivery to the others.
type FanOut struct {
	sinks   []namedSink
	timeout time.Duration
}

func NewFanOut() *FanOut {
	return &FanOut{timeout: defaultDeliveryTimeout}
}

func (f *FanOut) Add(name string, sink order.EventSink) *FanOut {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

func (f *FanOut) Len() int {
	return len(f.sinks)
}

func (f *FanOut) PaymentProcessed(ctx context.Context, event order.PaymentEvent) error {
	if len(f.sinks) == 0 {
		return nil
	}

	// delivery outlives the HTTP request that produced the event
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	errs := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, s := range f.sinks {
		g.Go(func() error {
			if err := s.sink.PaymentProcessed(ctx, event); err != nil {
				metrics.EventSinkFailuresTotal.WithLabelValues(s.name).Inc()
				slog.WarnContext(ctx, "Event sink delivery failed",
					"sink", s.name,
					"order_id", event.OrderID,
					"payment_id", event.PaymentID,
					slog.Any("error", err))
				errs[i] = fmt.Errorf("%s: %w", s.name, err)
				return errs[i]
			}
			return nil
		})
	}

	// a plain Group never cancels siblings; Wait flags a failure, errs carries all of them
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}
