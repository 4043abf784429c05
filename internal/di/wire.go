//go:build wireinject
// +build wireinject

package di

import (
	"MandiPulse/pkg/config"
	"MandiPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvidePriceStore,
		ProvideMarketFeed,
		ProvideLiveHub,
		ProvidePublisher,
		ProvideMemoCache,

		// Use cases
		ProvidePriceCache,
		ProvideForecaster,
		ProvidePriceEngine,

		// HTTP
		ProvidePriceHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
