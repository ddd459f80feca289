package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"OrderPayments/internal/api/messaging"

	"github.com/segmentio/kafka-go"
)

var _ messaging.Publisher = (*Publisher)(nil)

// Publisher writes envelopes as JSON. Envelopes of one order share a key and
// therefore a partition, which keeps them ordered.
type Publisher struct {
	topicWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{topicWriter: newTopicWriter(brokers, topic)}
}

func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", env.EventID, err)
	}

	err = p.write(ctx, kafka.Message{
		Key:   []byte(env.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.Type)},
		},
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Envelope published",
		"topic", p.writer.Topic,
		"key", env.Key,
		"type", env.Type,
		"event_id", env.EventID)
	return nil
}
