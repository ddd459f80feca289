// Package correlation carries a request correlation ID through context,
// HTTP headers and Kafka message headers.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

const HeaderName = "X-Correlation-ID"

const KafkaHeaderName = "X-Correlation-ID"

type contextKey struct{}

// FromContext returns an empty string when no ID is set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func NewID() string {
	return uuid.New().String()
}
