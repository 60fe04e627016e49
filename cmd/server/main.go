package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/config"
	"github.com/example/ride-guardian/internal/dataset"
	"github.com/example/ride-guardian/internal/dispatch"
	"github.com/example/ride-guardian/internal/eta"
	httpapi "github.com/example/ride-guardian/internal/http"
	"github.com/example/ride-guardian/internal/logging"
	"github.com/example/ride-guardian/internal/matcher"
	"github.com/example/ride-guardian/internal/rides"
	"github.com/example/ride-guardian/internal/storage"
)

const serviceName = "ride-guardian"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) error {
	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "source", cfg.DatasetSource, "drivers", len(catalog.Drivers()), "locations", len(catalog.Locations()))

	wsReg := dispatch.NewWSRegistry()
	fanout, closers, err := buildNotifiers(cfg, wsReg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close notifier", "error", err)
			}
		}
	}()

	var chat assistant.ChatClient
	if cfg.LLMAPIKey != "" {
		chat = assistant.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL)
		logger.Info("llm assistant enabled", "model", cfg.LLMModel)
	}
	guide := assistant.New(assistant.Options{
		Chat:      chat,
		Model:     cfg.LLMModel,
		Timeout:   cfg.LLMTimeout,
		SafeWords: cfg.SafeWords,
		Logger:    logger,
	})

	archive := storage.NewMemoryStore(cfg.ReportArchiveSize)
	registry, err := rides.NewRegistry(
		rides.Config{
			MonitorInterval:      cfg.MonitorInterval,
			DeviationProbability: cfg.DeviationProbability,
			TrustedContacts:      cfg.TrustedContacts,
		},
		rides.Deps{
			Catalog:   catalog,
			Assigner:  &matcher.Service{Catalog: catalog, Strategy: cfg.MatcherStrategy, TopN: cfg.MatcherTopN},
			Estimator: buildEstimator(cfg, logger),
			Assistant: guide,
			Notifier:  fanout,
			Archive:   archive,
			Logger:    logger,
		},
	)
	if err != nil {
		return err
	}
	defer registry.Close()

	api := httpapi.NewServer(httpapi.Options{
		Guardian:  registry,
		Locations: catalog,
		Reports:   archive,
		WSReg:     wsReg,
		Logger:    logger,
	})
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ride guardian listening", "addr", cfg.HTTPAddr, "notifiers", fanout.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "active_rides", registry.Active())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCatalog(ctx context.Context, cfg config.ServerConfig) (*dataset.Catalog, error) {
	switch cfg.DatasetSource {
	case config.DatasetCSV:
		return dataset.LoadCSV(cfg.DatasetDriversCSV, cfg.DatasetLocationsCSV)
	case config.DatasetPostgres:
		return dataset.LoadPostgres(ctx, cfg.PGDSN)
	default:
		return dataset.Builtin(), nil
	}
}

func buildEstimator(cfg config.ServerConfig, logger *slog.Logger) rides.Estimator {
	random := eta.NewRandomEstimator(cfg.DurationMinMin, cfg.DurationMaxMin)
	if cfg.ETAMode != config.ETAOSRM {
		return random
	}
	return &eta.RouteEstimator{
		Client:           eta.NewOSRMClient(cfg.OSRMEndpoint, cfg.OSRMTimeout),
		Cache:            eta.NewCache(cfg.ETACacheTTL),
		Fallback:         random,
		SafeRoutePenalty: cfg.SafeRoutePenalty,
		Logger:           logger,
	}
}

// buildNotifiers always streams to websocket clients and adds every
// transport that has an address configured.
func buildNotifiers(cfg config.ServerConfig, wsReg *dispatch.WSRegistry, logger *slog.Logger) (*dispatch.Fanout, []func() error, error) {
	fanout := dispatch.NewFanout()
	fanout.Add("websocket", wsReg)
	var closers []func() error

	if len(cfg.KafkaBrokers) > 0 {
		k := dispatch.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		fanout.Add("kafka", k)
		closers = append(closers, k.Close)
		logger.Info("kafka notifier enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.AMQPURL != "" {
		rb, err := dispatch.NewRabbitNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, fmt.Errorf("rabbitmq notifier: %w", err)
		}
		fanout.Add("rabbitmq", rb)
		closers = append(closers, rb.Close)
		logger.Info("rabbitmq notifier enabled", "exchange", cfg.AMQPExchange)
	}
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		fanout.Add("redis", dispatch.NewRedisNotifier(rc, cfg.RedisChannelPrefix))
		closers = append(closers, rc.Close)
		logger.Info("redis notifier enabled", "addr", cfg.RedisAddr, "prefix", cfg.RedisChannelPrefix)
	}
	if cfg.WebhookURL != "" {
		fanout.Add("webhook", dispatch.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout))
		logger.Info("escalation webhook enabled")
	}
	return fanout, closers, nil
}
