package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mostrador/internal/auth"
	"mostrador/internal/infrastructure/kafka"
	"mostrador/internal/infrastructure/metrics"
	"mostrador/internal/infrastructure/redis"
	"mostrador/internal/order"
	"mostrador/internal/product"
	"mostrador/internal/server"
	"mostrador/internal/slot"
)

const eventBufferSize = 1024

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, zapLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zapLogger.Sync()

	g, ctx := errgroup.WithContext(cmd.Context())
	registry := metrics.NewRegistry()
	deps := order.Collaborators{Metrics: registry}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Warn("redis unavailable, continuing without idempotency keys", zap.Error(err))
		} else {
			defer client.Close()
			deps.Idempotency = redis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
			zapLogger.Info("idempotency store enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, eventBufferSize, zapLogger)
		producer.OnError(func(error) { registry.EventPublishErrs.Inc() })
		deps.Events = producer
		g.Go(func() error { return producer.Run(ctx) })
		zapLogger.Info("event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	authCtrl, tokens := auth.NewModule(db, cfg.Auth, zapLogger)
	handlers := server.Handlers{
		Auth:     authCtrl,
		Orders:   order.NewModule(db, cfg.Order, deps, zapLogger),
		Products: product.NewModule(db, zapLogger),
		Slots:    slot.NewModule(db, zapLogger),
	}
	if cfg.Metrics.Enabled {
		handlers.Metrics = registry.Handler()
	}

	srv := server.New(cfg.Server.Port, server.NewRouter(handlers, tokens, zapLogger), zapLogger)
	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		return err
	}

	zapLogger.Info("server stopped gracefully")
	return nil
}
