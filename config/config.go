package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is "json" or "console"
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PaymentGatewayURL     string        `env:"PAYMENT_GATEWAY_URL" envDefault:"https://reqres.in/api"`
	PaymentGatewayPath    string        `env:"PAYMENT_GATEWAY_PATH" envDefault:"/users"`
	PaymentGatewayAPIKey  string        `env:"PAYMENT_GATEWAY_API_KEY" envDefault:"reqres-free-v1"`
	PaymentGatewayTimeout time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" envDefault:"10s"`

	// PaymentAttemptLease must outlive the gateway timeout
	PaymentAttemptLease time.Duration `env:"PAYMENT_ATTEMPT_LEASE" envDefault:"30s"`

	// Empty list disables the Kafka event sink and the indexer
	KafkaBrokers              []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPaymentsTopic        string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"payments.processed"`
	KafkaPaymentsDLQTopic     string   `env:"KAFKA_PAYMENTS_DLQ_TOPIC" envDefault:"payments.processed.dlq"`
	KafkaIndexerConsumerGroup string   `env:"KAFKA_INDEXER_CONSUMER_GROUP" envDefault:"order-payments-indexer"`
	IndexerWorkers            int      `env:"INDEXER_WORKERS" envDefault:"1"`
	IndexerPort               int      `env:"INDEXER_PORT" envDefault:"3001"`

	// Empty list disables the OpenSearch payment index
	OpensearchUrls          []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexPayments string   `env:"OPENSEARCH_INDEX_PAYMENTS" envDefault:"payments"`
}

// New loads the API configuration.
func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if c.PgURL == "" {
		return Config{}, errors.New("PG_URL is required")
	}

	if c.PaymentAttemptLease <= c.PaymentGatewayTimeout {
		c.PaymentAttemptLease = 3 * c.PaymentGatewayTimeout
	}

	return c, nil
}

// NewIndexer loads the indexer configuration. The indexer does not touch
// Postgres but cannot run without Kafka and OpenSearch.
func NewIndexer() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if !c.KafkaEnabled() {
		return Config{}, errors.New("KAFKA_BROKERS is required")
	}
	if !c.OpensearchEnabled() {
		return Config{}, errors.New("OPENSEARCH_URLS is required")
	}
	return c, nil
}

func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) OpensearchEnabled() bool {
	return len(c.OpensearchUrls) > 0
}
