// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	quoteStream := ProvideQuoteStream(cfg)
	book := ProvideQuoteBook()
	metrics := ProvideMetrics()
	feeder := ProvideQuoteFeeder(quoteStream, book, metrics, logger)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	signalHistory, err := ProvideSignalHistory(client)
	if err != nil {
		return nil, err
	}
	outcomeHandler := ProvideOutcomeHandler(signalHistory, metrics, logger, cfg)
	service, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	calibrationStore := ProvideCalibrationStore(service)
	calibrationConfig := ProvideCalibrationConfig(cfg)
	calibrationRunner := ProvideCalibrationRunner(signalHistory, calibrationStore, service, metrics, logger, calibrationConfig)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	publisher := ProvideSignalPublisher(producer, cfg)
	predictionProvider := ProvidePredictionProvider(cfg)
	sentimentProvider := ProvideSentimentProvider(cfg)
	pipelineParams := ProvidePipelineParams(cfg)
	signalPipeline := ProvideSignalPipeline(signalHistory, publisher, calibrationStore, book, predictionProvider, sentimentProvider, metrics, logger, pipelineParams)
	handler := ProvideHTTPHandler(logger, signalPipeline, service)
	app := ProvideApp(cfg, logger, feeder, consumer, outcomeHandler, calibrationRunner, handler, client, producer)
	return app, nil
}
