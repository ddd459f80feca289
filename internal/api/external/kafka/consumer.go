package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"OrderPayments/internal/api/messaging"
	"OrderPayments/pkg/correlation"

	"github.com/segmentio/kafka-go"
)

const commitTimeout = 5 * time.Second

var _ messaging.Worker = (*Consumer)(nil)

// Consumer is one member of a consumer group. Offsets are committed
// synchronously and only for messages the handler accepted.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          groupID,
		MinBytes:         1,
		MaxBytes:         10e6,
		StartOffset:      kafka.FirstOffset,
		MaxWait:          500 * time.Millisecond,
		RebalanceTimeout: 5 * time.Second,
	})}
}

// Start blocks until ctx is cancelled (returns nil) or fetching fails.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	cfg := c.reader.Config()
	slog.InfoContext(ctx, "Consumer started", "topic", cfg.Topic, "group_id", cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			slog.Info("Consumer stopped", "topic", cfg.Topic, "group_id", cfg.GroupID)
			return nil
		case err != nil:
			slog.Error("Failed to fetch message", "topic", cfg.Topic, slog.Any("error", err))
			return err
		}

		if c.handle(ctx, msg, handler) {
			c.commit(ctx, msg)
		}
	}
}

// handle reports whether the message may be committed. A rejected message is
// left uncommitted and comes back after the next rebalance.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler messaging.MessageHandler) bool {
	msgCtx := withCorrelationID(ctx, msg.Headers)

	slog.DebugContext(msgCtx, "Message received",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key))

	if err := handler(msgCtx, msg.Key, msg.Value); err != nil {
		slog.ErrorContext(msgCtx, "Message rejected by handler",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			slog.Any("error", err))
		return false
	}
	return true
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	// a lost commit means redelivery, which the payment index absorbs
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to commit offset",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			slog.Any("error", err))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// withCorrelationID carries the producer's correlation id into the handler,
// or starts a new one for messages published without it.
func withCorrelationID(ctx context.Context, headers []kafka.Header) context.Context {
	for _, h := range headers {
		if h.Key == correlation.KafkaHeaderName && len(h.Value) > 0 {
			return correlation.WithID(ctx, string(h.Value))
		}
	}
	return correlation.WithID(ctx, correlation.NewID())
}
