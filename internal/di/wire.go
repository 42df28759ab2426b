//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

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
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideSignalHistory,
		ProvideSignalPublisher,
		ProvideCalibrationStore,

		// Market data
		ProvideQuoteStream,
		ProvideQuoteBook,
		ProvideQuoteFeeder,

		// External collaborators
		ProvidePredictionProvider,
		ProvideSentimentProvider,

		// Engine configuration
		ProvidePipelineParams,
		ProvideCalibrationConfig,

		// Use cases
		ProvideSignalPipeline,
		ProvideOutcomeHandler,
		ProvideCalibrationRunner,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
