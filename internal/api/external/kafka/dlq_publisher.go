package kafka

import (
	"context"
	"log/slog"
	"time"

	"OrderPayments/internal/api/messaging"

	"github.com/segmentio/kafka-go"
)

var _ messaging.DLQPublisher = (*DLQPublisher)(nil)

// DLQPublisher parks messages the indexer gave up on. The payload is kept
// as received; the failure is carried in headers.
type DLQPublisher struct {
	topicWriter
	now func() time.Time
}

func NewDLQPublisher(brokers []string, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{
		topicWriter: newTopicWriter(brokers, dlqTopic),
		now:         time.Now,
	}
}

func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, cause error) error {
	err := p.write(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: dlqHeaders(cause, p.now()),
	})
	if err != nil {
		return err
	}

	slog.WarnContext(ctx, "Message parked in DLQ",
		"topic", p.writer.Topic,
		"key", string(key),
		slog.Any("cause", cause))
	return nil
}

func dlqHeaders(cause error, at time.Time) []kafka.Header {
	return []kafka.Header{
		{Key: "dlq_error", Value: []byte(cause.Error())},
		{Key: "dlq_failed_at", Value: []byte(at.UTC().Format(time.RFC3339))},
	}
}
