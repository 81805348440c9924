//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,
		ProvideBytesCache,

		// Repositories
		ProvideStorage,
		ProvideHistoryStore,
		ProvidePublisher,
		ProvideQuoteStream,

		// Use cases
		ProvideQuoteProcessor,
		ProvideQuoteCollector,
		ProvideKafkaConsumer,
		ProvideJobQueue,
		ProvideBackfill,
		ProvideEngine,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
