package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"

	"budget/internal/amqp"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/services"
	"budget/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	m := metrics.New()
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	be := cli.OpenBackend(bootCtx, logger, cfg, m)
	defer be.Close()

	seed, err := store.LoadSeed(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to load seed", log.FieldError, err)
		os.Exit(1)
	}

	storeOpts := []store.Option{store.WithLogger(logger), store.WithMetrics(m)}

	// Table change events are optional; without a broker no mirror is kept.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		storeOpts = append(storeOpts, store.WithNotifier(services.NewChangeNotifier(amqpClient, logger, m)))
		logger.Info("Publishing table changes", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	st := store.New(be.Store, seed, storeOpts...)
	svc := services.NewBudgetService(st, services.WithLogger(logger), services.WithMetrics(m))

	// First load normalizes, seeds and reconciles before traffic arrives.
	if _, err := svc.Load(bootCtx); err != nil {
		logger.Error("Failed to load budget tables", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:         logger,
		Metrics:        m,
		RateLimit:      cfg.RateLimit,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Ready:          readiness(st, amqpClient),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting budget server", log.FieldOperation, log.OpStartup, "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// readiness reports not ready when storage cannot be reached or the
// publish breaker is open.
func readiness(st *store.Store, client *amqp.Client) apphttp.ReadyFunc {
	return func(ctx context.Context) error {
		if _, err := st.Backend().Exists(ctx, store.TableConfig); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if client != nil && client.BreakerState() == gobreaker.StateOpen {
			return errors.New("amqp: circuit breaker open")
		}
		return nil
	}
}
