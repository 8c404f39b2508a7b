//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinRank/internal/domain/repository"
	"FinRank/internal/domain/service"
	"FinRank/internal/services/scoring"
	"FinRank/pkg/config"
	"FinRank/pkg/metrics"
	"FinRank/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics and logging
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
		ProvideLogger,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,
		ProvideRateLimiter,

		// Scoring
		ProvideEngine,
		wire.Bind(new(service.RankingEngine), new(*scoring.Engine)),

		// Sinks and repositories
		ProvideAuditStore,
		ProvideHub,
		ProvideSinks,

		// Use cases
		ProvideResultProcessor,
		ProvideRankingUseCase,
		ProvideKafkaConsumer,
		ProvideRankRequestsHandler,

		// Transport
		ProvideRankingHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
