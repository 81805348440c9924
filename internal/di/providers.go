package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/handler/api"
	mid "StockPulse/internal/middleware"
	internalrepo "StockPulse/internal/repository"
	icache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/newswatch"
	"StockPulse/internal/services/patterns"
	"StockPulse/internal/services/quotes"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/queue"
	"StockPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS stockpulse",
		`CREATE TABLE IF NOT EXISTS stockpulse.predictions (
			ts DateTime, symbol String, label String, probability Float64,
			expected_pct_move Float64, current_price Float64, previous_close Float64,
			target_price Float64, score_technical Float64, score_sentiment Float64,
			score_global Float64, score_volume Float64, score_fundamentals Float64,
			score_intraday Float64, composite Float64, override_applied UInt8,
			override_reason String, correction String, top_reasons String,
			model_version String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS stockpulse.daily_bars (
			date Date, symbol String, open Float64, high Float64, low Float64,
			close Float64, volume Float64
		) ENGINE=ReplacingMergeTree ORDER BY (symbol, date)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the shared cache service: Redis when enabled so the
// override cooldown holds across instances, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Redis.Host),
			pkgcache.WithRedisPort(cfg.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, err
		}
		// memory L1 in front of Redis; locks still go straight to Redis
		return pkgcache.NewLayeredCache(rc), nil
	}
	return pkgcache.NewMemoryCache(), nil
}

// ProvideStorage creates ClickHouse prediction storage, or nil without a client.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".predictions")
}

// ProvideHistoryStore creates the daily-bar store, or nil without a client.
func ProvideHistoryStore(chClient *pkgch.Client, l *applogger.Logger) repository.HistoryStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHHistoryStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvidePublisher creates Kafka prediction publisher, or nil without a producer.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideQuoteStream creates the WebSocket quote stream, or nil when unset.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	if cfg.Quotes.APIKey == "" || cfg.Quotes.WebSocketURL == "" {
		return nil
	}
	return quotes.New(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		cfg.Quotes.Symbols,
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
	)
}

// ProvideQuoteProcessor creates the shared quote processor, or nil without
// a bar store to write into.
func ProvideQuoteProcessor(history repository.HistoryStore, m repository.Metrics) *usecase.QuoteProcessor {
	if history == nil {
		return nil
	}
	return usecase.NewQuoteProcessor(history, m)
}

// ProvideQuoteCollector creates the quote collector, or nil without a stream.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	proc *usecase.QuoteProcessor,
	m repository.Metrics,
) *usecase.QuoteCollector {
	if stream == nil || proc == nil {
		return nil
	}
	pipe := mid.NewQuotePipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, proc, m, pipe)
}

// ProvideKafkaConsumer creates a consumer fed by a shared quotes topic, or
// nil when quote ingest over Kafka is not configured.
func ProvideKafkaConsumer(cfg *config.Config, proc *usecase.QuoteProcessor, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled || proc == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	pipe := mid.NewQuotePipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	consumer.RegisterHandler(usecase.NewQuoteIngestHandler(cfg.Kafka.Consumer.QuotesTopic, pipe, m))
	return consumer, nil
}

// ProvideBackfill creates the history backfill, or nil when the REST API or
// the bar store is not configured.
func ProvideBackfill(
	cfg *config.Config,
	history repository.HistoryStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Backfill {
	if cfg.Quotes.RESTURL == "" || cfg.Quotes.APIKey == "" || history == nil {
		return nil
	}
	rest := quotes.NewRESTHistory(cfg.Quotes.RESTURL, cfg.Quotes.APIKey)
	return usecase.NewBackfill(rest, history, cfg.Quotes.Symbols,
		cfg.Detector.MinHistoryDays, m, l)
}

// ProvideJobQueue creates the Redis-backed job queue with the persistence
// and error-digest jobs registered, or nil when the queue is disabled. The
// logger's error collector publishes its digests through the queue.
func ProvideJobQueue(
	cfg *config.Config,
	l *applogger.Logger,
	storage repository.Storage,
	publisher repository.Publisher,
	m repository.Metrics,
) (*queue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, queue.ModeProducerConsumer)

	q.RegisterJob(usecase.NewPersistJob(storage, publisher))
	q.RegisterJob(usecase.NewErrorDigestJob(l, m))

	if err := q.Start(); err != nil {
		return nil, fmt.Errorf("job queue: %w", err)
	}

	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          usecase.TypeErrorDigest,
		Publisher:      q,
	})

	return q, nil
}

// ProvideEngine assembles the prediction pipeline.
func ProvideEngine(
	cfg *config.Config,
	cacheSvc pkgcache.Service,
	history repository.HistoryStore,
	storage repository.Storage,
	publisher repository.Publisher,
	jobs *queue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
) domsvc.Engine {
	cooldown := newswatch.NewCooldown(cacheSvc, cfg.Keywords.CooldownTTL)
	override := newswatch.NewOverride(cfg.Keywords, cooldown, l)
	rebound := patterns.NewDetector(cfg.Detector)
	p := usecase.NewPredictor(cfg, rebound, override, history, storage, publisher, m, l)
	if jobs != nil {
		p.SetJobQueue(jobs)
	}
	return p
}

// ProvideBytesCache creates the response cache for the detector endpoints:
// Redis when available so cached responses are shared across instances.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	jobs *queue.RedisQueue,
	chClient *pkgch.Client,
	storage repository.Storage,
	publisher repository.Publisher,
	engine domsvc.Engine,
	backfill *usecase.Backfill,
	respCache icache.BytesCache,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, collector, chClient, storage, publisher)
	app.SetConsumer(consumer)
	app.SetJobQueue(jobs)
	app.SetBackfill(backfill)

	plain := api.NewPredictHandler(engine)
	plain.SetCache(respCache)
	plain.SetLogger(l)

	h := api.NewPredictEchoHandler(l, engine)
	h.SetPlainHandler(plain)
	h.SetStorage(storage)
	app.SetHTTPHandler(h)
	return app
}
