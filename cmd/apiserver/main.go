// Command apiserver serves the molscope scene API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/config"
	"github.com/turtacn/molscope/internal/infrastructure/converter"
	"github.com/turtacn/molscope/internal/infrastructure/database/redis"
	"github.com/turtacn/molscope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/molscope/internal/interfaces/http"
	"github.com/turtacn/molscope/internal/interfaces/http/handlers"
	"github.com/turtacn/molscope/internal/interfaces/http/middleware"
)

var version = "dev"

const startupTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: MOLSCOPE_* environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	if httpPort > 0 {
		opts = append(opts, config.WithOverrides(map[string]interface{}{"server.port": httpPort}))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	defer logger.Sync()

	logger.Info("starting molscope API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()))

	var (
		metricsCollector prometheus.MetricsCollector
		appMetrics       = prometheus.NewNoopAppMetrics()
	)
	if cfg.Metrics.Enabled {
		metricsCollector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		}, logger)
		if err != nil {
			return err
		}
		appMetrics = prometheus.NewAppMetrics(metricsCollector)
	}

	renderOpts, err := viewer.OptionsFromConfig(cfg.Render)
	if err != nil {
		return err
	}
	renderOpts.CacheTTL = cfg.Cache.TTL

	deps := viewer.Deps{Metrics: appMetrics, Logger: logger}
	var checkers []handlers.HealthChecker
	closers := make([]func() error, 0, 4)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i](); cerr != nil {
				logger.Warn("close failed", logging.Err(cerr))
			}
		}
	}()

	if cfg.Cache.Enabled {
		rc, err := redis.NewClient(&redis.ClientConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxRetries:   cfg.Redis.MaxRetries,
		}, logger)
		if err != nil {
			return err
		}
		closers = append(closers, rc.Close)
		deps.Cache = redis.NewRedisCache(rc, logger,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.TTL))
		checkers = append(checkers, handlers.NewChecker("redis", rc.Ping))
	}

	if cfg.Storage.Enabled {
		mc, err := minio.NewMinIOClient(&minio.MinIOConfig{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKey,
			SecretAccessKey: cfg.Storage.SecretKey,
			UseSSL:          cfg.Storage.UseSSL,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			PresignExpiry:   cfg.Storage.PresignExpiry,
		}, logger)
		if err != nil {
			return err
		}
		closers = append(closers, mc.Close)
		deps.Archive = minio.NewSceneArchive(mc, logger)
		checkers = append(checkers, handlers.NewChecker("minio", func(ctx context.Context) error {
			status, err := mc.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("minio: %s", status.Error)
			}
			return nil
		}))
	}

	if cfg.Messaging.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Messaging.Brokers,
			Acks:         acksName(cfg.Messaging.RequiredAcks),
			MaxAttempts:  cfg.Messaging.MaxAttempts,
			BatchSize:    cfg.Messaging.BatchSize,
			BatchTimeout: cfg.Messaging.BatchTimeout,
			WriteTimeout: cfg.Messaging.WriteDeadline,
			Async:        cfg.Messaging.Async,
		}, logger)
		if err != nil {
			return err
		}
		closers = append(closers, producer.Close)
		deps.Events = kafka.NewSceneEventPublisher(producer,
			cfg.Messaging.SceneTopic, cfg.Messaging.RejectTopic, cfg.Messaging.Async, logger)
	}

	if cfg.Converter.Enabled {
		conv, err := converter.NewClient(converter.Config{
			BaseURL:      cfg.Converter.BaseURL,
			Timeout:      cfg.Converter.Timeout,
			MaxRetries:   cfg.Converter.MaxRetries,
			RetryWaitMin: cfg.Converter.RetryWait,
		}, converter.WithLogger(logger))
		if err != nil {
			return err
		}
		deps.Converter = conv
	}

	svc := viewer.NewService(renderOpts, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	err = svc.Ready(startCtx)
	cancel()
	if err != nil {
		logger.Warn("scene cache not ready at startup", logging.Err(err))
	}

	registry := viewer.NewSessionRegistry(viewer.RegistryConfig{
		MaxSessions:   cfg.Session.MaxSessions,
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
	}, svc, viewer.DefaultReleaser, appMetrics, logger)
	registry.Start(ctx)
	defer registry.Stop()

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			opts, err := viewer.OptionsFromConfig(next.Render)
			if err != nil {
				logger.Warn("ignoring render config change", logging.Err(err))
				return
			}
			opts.CacheTTL = next.Cache.TTL
			if err := svc.UpdateRender(context.Background(), opts); err != nil {
				logger.Warn("render update failed", logging.Err(err))
				return
			}
			logger.Info("render configuration reloaded")
		}, func(err error) {
			logger.Warn("config reload failed", logging.Err(err))
		})
		if err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	routerCfg := httpserver.RouterConfig{
		SceneHandler:     handlers.NewSceneHandler(svc, cfg.Server.MaxBodySize, logger),
		SessionHandler:   handlers.NewSessionHandler(registry, svc, cfg.Server.MaxBodySize, logger),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		Metrics:          appMetrics,
		MetricsCollector: metricsCollector,
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSAllowedOrigins
		cors.AllowWildcard = true
		routerCfg.CORS = &cors
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, time.Minute)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")
	return srv.Stop(context.Background())
}

// acksName maps Kafka's numeric acks setting to the producer's names.
func acksName(n int) string {
	switch n {
	case 0:
		return "none"
	case 1:
		return "one"
	default:
		return "all"
	}
}

//Personal.AI order the ending
