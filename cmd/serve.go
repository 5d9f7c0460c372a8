package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/micromdm-webhook/internal/config"
	"github.com/jmehdipour/micromdm-webhook/internal/db"
	"github.com/jmehdipour/micromdm-webhook/internal/dispatcher"
	httpSrv "github.com/jmehdipour/micromdm-webhook/internal/http"
	"github.com/jmehdipour/micromdm-webhook/internal/kafka"
	"github.com/jmehdipour/micromdm-webhook/internal/logger"
	"github.com/jmehdipour/micromdm-webhook/internal/mdm"
	"github.com/jmehdipour/micromdm-webhook/internal/metrics"
	"github.com/jmehdipour/micromdm-webhook/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		devices, closeRegistry, err := openRegistry(ctx, cfg.Registry)
		if err != nil {
			return err
		}
		defer closeRegistry()

		var opts []dispatcher.Option
		if cfg.Kafka.Enabled() {
			producer := kafka.NewProducerFromConfig(kafka.Config{
				Brokers:      cfg.Kafka.Brokers,
				Topic:        cfg.Kafka.Topic,
				BatchTimeout: cfg.Kafka.BatchTimeout,
				Logger:       log,
			})
			defer func() { _ = producer.Close() }()
			opts = append(opts, dispatcher.WithEventSink(producer))
		}

		disp := dispatcher.NewDispatcher(devices, mdm.NewClient(cfg.MDM), log, opts...)
		server := httpSrv.NewServer(cfg, devices, disp, log)

		errCh := make(chan error, 1)
		go func() {
			log.Info("webhook server starting",
				zap.Int("port", cfg.HTTP.Port),
				zap.String("path", cfg.HTTP.WebhookPath),
				zap.String("mdm_server", cfg.MDM.ServerURL),
				zap.String("registry", cfg.Registry.Backend),
			)
			errCh <- server.Start(cfg.HTTP.Addr())
		}()

		select {
		case <-ctx.Done():
			log.Info("signal received, shutting down")
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
				return err
			}
		}

		return server.Shutdown(context.Background(), cfg.HTTP.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().Int("port", 80, "port for the webhook server to listen on")
}

func openRegistry(ctx context.Context, cfg config.RegistryConfig) (registry.Registry, func(), error) {
	if cfg.Backend != config.RegistryRedis {
		return registry.NewMemory(), func() {}, nil
	}

	rdb, err := db.NewRedisClient(ctx, db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis connect: %w", err)
	}

	return registry.NewRedis(rdb, cfg.Redis.Key), func() { _ = rdb.Close() }, nil
}
