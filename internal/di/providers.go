package di

import (
	"context"
	"fmt"
	"time"

	"MandiPulse/internal/domain/repository"
	"MandiPulse/internal/handler/api"
	internalrepo "MandiPulse/internal/repository"
	svccache "MandiPulse/internal/service/cache"
	"MandiPulse/internal/service/datagov"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/usecase"
	pkgch "MandiPulse/pkg/clickhouse"
	"MandiPulse/pkg/config"
	pkgkafka "MandiPulse/pkg/kafka"
	applogger "MandiPulse/pkg/logger"
	"MandiPulse/pkg/metrics"
	"MandiPulse/pkg/server"
)

// ProvideLogger creates the application logger from config. With Kafka on,
// repeated error logs are deduplicated and shipped to the refresh topic's
// companion log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePriceStore creates the ClickHouse-backed price store and ensures
// its schema.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.PriceStore, error) {
	store := internalrepo.NewCHPriceStore(chClient, cfg.ClickHouse.Database+".mandi_prices")
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("price store schema: %w", err)
	}
	return store, nil
}

// ProvideMarketFeed creates the upstream data.gov.in client.
func ProvideMarketFeed(cfg *config.Config) repository.MarketFeed {
	return datagov.New(cfg)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLiveHub creates the websocket fan-out hub.
func ProvideLiveHub(l *applogger.Logger) *api.LiveHub {
	return api.NewLiveHub(l)
}

// ProvidePublisher fans refresh batches out to Kafka (when enabled) and the
// live websocket hub.
func ProvidePublisher(producer *pkgkafka.Producer, hub *api.LiveHub, cfg *config.Config) repository.Publisher {
	sinks := []repository.Publisher{hub}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic))
	}
	return internalrepo.NewFanoutPublisher(sinks...)
}

// ProvideMemoCache picks Redis when configured, a process-local TTL cache
// otherwise.
func ProvideMemoCache(cfg *config.Config) svccache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return svccache.NewRedisCache(svccache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return svccache.NewTTLCache()
}

// ProvidePriceCache creates the cache-through read path.
func ProvidePriceCache(
	store repository.PriceStore,
	feed repository.MarketFeed,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PriceCache {
	opts := []usecase.PriceCacheOption{usecase.WithPublisher(pub)}
	if cfg.DataGov.MaxRPS > 0 {
		opts = append(opts, usecase.WithRefreshBudget(cfg.DataGov.MaxRPS, cfg.DataGov.Burst))
	}
	return usecase.NewPriceCache(store, feed, m, l,
		cfg.Cache.FreshnessWindow, cfg.Cache.QueryLimit, opts...)
}

// ProvideForecaster creates the forecast generator.
func ProvideForecaster() *analytics.Forecaster {
	return analytics.NewForecaster()
}

// ProvidePriceEngine creates the derived-query engine.
func ProvidePriceEngine(
	cache *usecase.PriceCache,
	forecaster *analytics.Forecaster,
	memo svccache.BytesCache,
	store repository.PriceStore,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PriceEngine {
	return usecase.NewPriceEngine(cache, forecaster, memo, cfg.Cache.MemoTTL, store, l)
}

// ProvidePriceHandler creates the HTTP handler.
func ProvidePriceHandler(engine *usecase.PriceEngine, hub *api.LiveHub, l *applogger.Logger) *api.PriceHandler {
	return api.NewPriceHandler(engine, hub, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler *api.PriceHandler,
	hub *api.LiveHub,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, hub, producer, chClient, l)
}
