package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OrderPayments/config"
	"OrderPayments/internal/api/external/kafka"
	"OrderPayments/internal/api/external/opensearch"
	"OrderPayments/internal/api/messaging"
	"OrderPayments/pkg/health"
	"OrderPayments/pkg/logger"
	"OrderPayments/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	index, err := opensearch.NewPaymentIndex(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexPayments)
	if err != nil {
		return fmt.Errorf("indexer - Run - opensearch.NewPaymentIndex: %w", err)
	}

	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsDLQTopic)
	defer dlq.Close()

	handler := messaging.WithMetrics(
		messaging.WithDLQ(
			messaging.WithRetry(NewPaymentHandler(index), messaging.DefaultRetryConfig()),
			dlq,
		),
		cfg.KafkaPaymentsTopic, cfg.KafkaIndexerConsumerGroup,
	)

	workers := make([]messaging.Worker, 0, cfg.IndexerWorkers)
	for range max(cfg.IndexerWorkers, 1) {
		workers = append(workers, kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic, cfg.KafkaIndexerConsumerGroup))
	}

	registry := health.NewRegistry(
		health.NewKafkaChecker(cfg.KafkaBrokers),
		health.NewCheckFunc("opensearch", index.Ping),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.IndexerPort),
		Handler:           opsEngine(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Indexer ops server error", slog.Any("error", err))
		}
	}()

	slog.Info("Starting payment indexer",
		"topic", cfg.KafkaPaymentsTopic,
		"group_id", cfg.KafkaIndexerConsumerGroup,
		"workers", len(workers))

	runErr := messaging.NewRunner(workers, handler).Start(ctx)

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Indexer ops server shutdown failed", slog.Any("error", err))
	}

	slog.Info("Payment indexer stopped")
	return runErr
}

func opsEngine(registry *health.Registry) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(registry, health.DefaultTimeout))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	return engine
}
