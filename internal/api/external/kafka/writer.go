package kafka

import (
	"context"
	"log/slog"

	"OrderPayments/pkg/correlation"
	"OrderPayments/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// topicWriter is the producer shared by Publisher and DLQPublisher.
// Messages are hash-partitioned by key.
type topicWriter struct {
	writer *kafka.Writer
}

func newTopicWriter(brokers []string, topic string) topicWriter {
	return topicWriter{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (w topicWriter) write(ctx context.Context, msg kafka.Message) error {
	msg.Headers = append(correlationHeaders(ctx), msg.Headers...)

	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(w.writer.Topic, "error").Inc()
		slog.ErrorContext(ctx, "Failed to write message",
			"topic", w.writer.Topic,
			"key", string(msg.Key),
			slog.Any("error", err))
		return err
	}

	metrics.KafkaMessagesPublished.WithLabelValues(w.writer.Topic, "success").Inc()
	return nil
}

func (w topicWriter) Close() error {
	return w.writer.Close()
}

func correlationHeaders(ctx context.Context) []kafka.Header {
	corrID := correlation.FromContext(ctx)
	if corrID == "" {
		return nil
	}
	return []kafka.Header{{Key: correlation.KafkaHeaderName, Value: []byte(corrID)}}
}
