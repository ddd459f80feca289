package health

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// NewKafkaChecker reports up when any broker accepts a connection.
func NewKafkaChecker(brokers []string) Checker {
	return NewCheckFunc("kafka", func(ctx context.Context) error {
		for _, broker := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err == nil {
				_ = conn.Close()
				return nil
			}
		}
		return errors.New("all brokers unreachable")
	})
}
