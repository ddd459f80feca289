package api

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
	"OrderPayments/internal/api/domain/order"
	"OrderPayments/internal/api/eventsink"
	"OrderPayments/internal/api/external/kafka"
	"OrderPayments/internal/api/external/opensearch"
	"OrderPayments/internal/api/external/paygate"
	"OrderPayments/internal/api/handlers"
	order_repo "OrderPayments/internal/api/repo/order"
	"OrderPayments/pkg/health"
	"OrderPayments/pkg/logger"
	"OrderPayments/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		return fmt.Errorf("api - Run - postgres.New: %w", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(cfg.PgURL, MIGRATION_FS); err != nil {
		return fmt.Errorf("api - Run - ApplyMigrations: %w", err)
	}

	healthRegistry := health.NewRegistry(health.NewPostgresChecker(pool.Pool))

	sinks := eventsink.NewFanOut()
	if cfg.KafkaEnabled() {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic)
		defer publisher.Close()
		sinks.Add("kafka", eventsink.NewPublisherSink(publisher))
		healthRegistry.Register(health.NewKafkaChecker(cfg.KafkaBrokers))
	}
	if cfg.OpensearchEnabled() {
		index, err := opensearch.NewPaymentIndex(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexPayments)
		if err != nil {
			return fmt.Errorf("api - Run - opensearch.NewPaymentIndex: %w", err)
		}
		sinks.Add("opensearch", index)
	}
	slog.Info("Payment event sinks configured", "count", sinks.Len())

	gatewayClient := paygate.New(paygate.Config{
		BaseURL: cfg.PaymentGatewayURL,
		Path:    cfg.PaymentGatewayPath,
		APIKey:  cfg.PaymentGatewayAPIKey,
		Timeout: cfg.PaymentGatewayTimeout,
	}, nil)

	orderRepo := order_repo.NewPgOrderRepo(pool)
	orderService := order.NewOrderService(orderRepo, gatewayClient, sinks,
		order.WithAttemptLease(cfg.PaymentAttemptLease))

	engine := NewGinEngine()
	router := NewRouter(
		handlers.NewOrderHandler(orderService),
		handlers.NewPaymentHandler(orderService),
		healthRegistry,
	)
	router.SetUp(engine)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("api - Run - ListenAndServe: %w", err)
		}
	}

	slog.Info("Shutting down API service gracefully")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api - Run - Shutdown: %w", err)
	}
	return nil
}
