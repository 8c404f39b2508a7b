package di

import (
	"context"
	"fmt"
	"time"

	"FinRank/internal/domain/repository"
	"FinRank/internal/domain/service"
	"FinRank/internal/handler/api"
	internalrepo "FinRank/internal/repository"
	icache "FinRank/internal/service/cache"
	"FinRank/internal/service/ratelimit"
	"FinRank/internal/service/stream"
	"FinRank/internal/services/scoring"
	"FinRank/internal/usecase"
	pkgch "FinRank/pkg/clickhouse"
	"FinRank/pkg/config"
	xhttp "FinRank/pkg/http"
	pkgkafka "FinRank/pkg/kafka"
	applogger "FinRank/pkg/logger"
	"FinRank/pkg/metrics"
	"FinRank/pkg/server"
)

// initTimeout bounds schema creation at startup.
const initTimeout = 10 * time.Second

// logPublisher adapts the producer to the log collector.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideLogger builds the root logger. With kafka enabled and the collector
// switched on, repeated warnings and errors are shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{p: producer},
		})
	}
	return l, nil
}

// ProvideMetrics returns the process-wide Prometheus recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideEngine builds the scoring engine from the rule tables.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) (*scoring.Engine, error) {
	e, err := scoring.NewEngine(cfg.Scoring,
		scoring.WithWorkers(cfg.Ranking.Workers),
		scoring.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	return e, nil
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
		pkgch.WithPool(10, 5, time.Hour),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAuditStore creates the ClickHouse audit store and its tables. It
// returns a nil store when ClickHouse is disabled.
func ProvideAuditStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.AuditStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHAuditStore(ch,
		internalrepo.WithBreaker(cfg.ClickHouse.Breaker.MaxFailures, cfg.ClickHouse.Breaker.OpenTimeout),
	)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideHub creates the websocket hub when the websocket sink is enabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	if !cfg.SinkEnabled("websocket") {
		return nil
	}
	h := stream.NewHub()
	h.SetLogger(l)
	return h
}

// ProvideSinks collects the result sinks named in ranking.sinks, in order.
func ProvideSinks(cfg *config.Config, producer *pkgkafka.Producer, audit repository.AuditStore, hub *stream.Hub) []repository.ResultSink {
	var sinks []repository.ResultSink
	for _, name := range cfg.Ranking.Sinks {
		switch name {
		case "kafka":
			if producer != nil {
				sinks = append(sinks, internalrepo.NewKafkaResultSink(producer, cfg.Kafka.ResultsTopic))
			}
		case "clickhouse":
			if audit != nil {
				sinks = append(sinks, internalrepo.NewAuditSink(audit))
			}
		case "websocket":
			if hub != nil {
				sinks = append(sinks, hub)
			}
		}
	}
	return sinks
}

// ProvideResultProcessor fans finished runs out to the sinks.
func ProvideResultProcessor(cfg *config.Config, m repository.Metrics, sinks []repository.ResultSink, l *applogger.Logger) *usecase.ResultProcessor {
	p := usecase.NewResultProcessor(m, cfg.Ranking.Timeout, sinks...)
	p.SetLogger(l)
	return p
}

// ProvideRankingUseCase creates the ranking use case.
func ProvideRankingUseCase(cfg *config.Config, engine service.RankingEngine, p *usecase.ResultProcessor, m repository.Metrics, l *applogger.Logger) *usecase.RankingUseCase {
	uc := usecase.NewRankingUseCase(engine, p, m, cfg.Ranking.Timeout)
	uc.SetLogger(l)
	return uc
}

// ProvideKafkaConsumer creates the rank request consumer, or nil when kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cc.GroupID),
		pkgkafka.WithConsumerWorkers(cc.Workers),
		pkgkafka.WithConsumerBufferSize(cc.BufferSize),
		pkgkafka.WithConsumerRetry(cc.RetryMax, cc.BackoffMin, cc.BackoffMax),
		pkgkafka.WithConsumerDLQ(cc.DLQTopic),
		pkgkafka.WithConsumerFetch(cc.MinBytes, cc.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.WithConsumerHook(pkgkafka.TraceHook{
		L:    l.Component("kafka_trace"),
		Slow: cfg.Server.SlowThreshold,
	})
	return consumer, nil
}

// ProvideRankRequestsHandler handles rank requests arriving over Kafka.
func ProvideRankRequestsHandler(cfg *config.Config, uc *usecase.RankingUseCase) pkgkafka.MessageHandler {
	return usecase.NewKafkaRankRequestsHandler(cfg.Kafka.RequestsTopic, uc)
}

// ProvideCache returns Redis when enabled, an in-memory cache otherwise, and
// nil when response caching is off.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Ranking.CacheTTL <= 0 {
		return nil
	}
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "finrank",
		})
	}
	return icache.NewTTLCache()
}

// ProvideRateLimiter returns a per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
}

// ProvideRankingHandler assembles the HTTP handler with its optional parts.
func ProvideRankingHandler(
	cfg *config.Config,
	uc *usecase.RankingUseCase,
	cache icache.BytesCache,
	rl *ratelimit.Limiter,
	audit repository.AuditStore,
	hub *stream.Hub,
	l *applogger.Logger,
) *api.RankingEchoHandler {
	h := api.NewRankingEchoHandler(uc)
	h.SetLogger(l)
	if cache != nil {
		h.SetCache(cache, cfg.Ranking.CacheTTL)
	}
	if rl != nil {
		h.SetRateLimiter(rl)
	}
	if audit != nil {
		h.SetAuditStore(audit)
	}
	if hub != nil {
		h.SetHub(hub)
	}
	return h
}

// ProvideHTTPServer builds the echo server around the ranking handler.
func ProvideHTTPServer(cfg *config.Config, h *api.RankingEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application with every dependency attached.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	uc *usecase.RankingUseCase,
	processor *usecase.ResultProcessor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	cache icache.BytesCache,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, srv, uc, processor, l)
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	if producer != nil {
		app.AddCloser("kafka_producer", producer)
	}
	if rc, ok := cache.(*icache.RedisCache); ok {
		app.AddCloser("redis", rc)
	}
	if chClient != nil {
		app.AddCloser("clickhouse", chClient)
	}
	return app
}
