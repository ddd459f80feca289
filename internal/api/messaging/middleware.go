package messaging

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"OrderPayments/pkg/metrics"
)

const dlqPublishTimeout = 5 * time.Second

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// ErrMaxRetriesExceeded is returned when all retry attempts fail.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// ErrPermanent marks failures that retrying cannot fix, e.g. an undecodable message.
var ErrPermanent = errors.New("permanent message failure")

// WithRetry wraps a handler with exponential backoff + jitter retry logic.
func WithRetry(handler MessageHandler, cfg RetryConfig) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		backoff := cfg.InitialBackoff

		var lastErr error
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			lastErr = handler(ctx, key, value)
			if lastErr == nil {
				return nil
			}
			if errors.Is(lastErr, ErrPermanent) {
				return lastErr
			}

			if attempt < cfg.MaxAttempts-1 {
				jitter := time.Duration(rand.Intn(100)) * time.Millisecond
				sleepTime := min(backoff+jitter, cfg.MaxBackoff)

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(sleepTime):
				}

				backoff *= 2
			}
		}

		return errors.Join(ErrMaxRetriesExceeded, lastErr)
	}
}

// DLQPublisher can publish failed messages to a dead letter queue.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// WithDLQ parks failed messages in the DLQ and reports success so the offset is committed.
// If the DLQ publish itself fails the original error is returned and the message is redelivered.
func WithDLQ(handler MessageHandler, dlq DLQPublisher) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := handler(ctx, key, value)
		if err == nil {
			return nil
		}

		// detached from ctx so shutdown does not drop the failed message
		dlqCtx, cancel := context.WithTimeout(context.Background(), dlqPublishTimeout)
		defer cancel()
		if dlqErr := dlq.PublishToDLQ(dlqCtx, key, value, err); dlqErr != nil {
			return errors.Join(err, dlqErr)
		}
		return nil
	}
}

// WithMetrics records processing duration and outcome per message.
func WithMetrics(handler MessageHandler, topic, consumerGroup string) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		start := time.Now()
		err := handler(ctx, key, value)

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.KafkaProcessingDuration.WithLabelValues(topic, consumerGroup, status).Observe(time.Since(start).Seconds())
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, consumerGroup, status).Inc()
		return err
	}
}
