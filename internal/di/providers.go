package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradePulse/internal/calibration"
	"TradePulse/internal/confidence"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/handler/api"
	"TradePulse/internal/levels"
	mid "TradePulse/internal/middleware"
	"TradePulse/internal/regime"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/risk"
	"TradePulse/internal/service/marketdata"
	"TradePulse/internal/services/providers"
	"TradePulse/internal/strategy"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates the ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
	return client, nil
}

// ProvideSignalHistory creates the signal store and runs its schema.
func ProvideSignalHistory(chClient *pkgch.Client) (repository.SignalHistory, error) {
	history := internalrepo.NewClickHouseSignalHistory(chClient.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := history.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal history schema: %w", err)
	}
	return history, nil
}

// ProvideKafkaProducer creates the Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates the outcomes consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	out := cfg.Kafka.Outcomes
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(out.GroupID),
		pkgkafka.WithConsumerWorkers(out.Workers),
		pkgkafka.WithConsumerBufferSize(out.BufferSize),
		pkgkafka.WithConsumerRetry(out.RetryMax, out.BackoffMin, out.BackoffMax),
		pkgkafka.WithConsumerDLQ(out.DLQTopic),
		pkgkafka.WithConsumerFetch(out.MinBytes, out.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideOutcomeHandler creates the outcomes message handler.
func ProvideOutcomeHandler(history repository.SignalHistory, m repository.Metrics, log *logger.Logger, cfg *config.Config) *usecase.OutcomeHandler {
	return usecase.NewOutcomeHandler(cfg.Kafka.Outcomes.Topic, history, m, log)
}

// ProvideCache creates the shared cache service: Redis when enabled, an
// in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideCalibrationStore creates the cached calibration record store.
func ProvideCalibrationStore(c cache.Service) repository.CalibrationStore {
	return internalrepo.NewCachedCalibrationStore(c)
}

// ProvideQuoteStream creates the WebSocket quote stream.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	return marketdata.NewStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Symbols,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideQuoteBook creates the quote book.
func ProvideQuoteBook() *marketdata.Book {
	return marketdata.NewBook()
}

// ProvideQuoteFeeder builds the stream-to-book path with the validating
// pipeline in between.
func ProvideQuoteFeeder(stream repository.QuoteStream, book *marketdata.Book, m repository.Metrics, log *logger.Logger) *marketdata.Feeder {
	pipe := mid.NewQuotePipeline(book, m, mid.WithMaxRPS(20))
	return marketdata.NewFeeder(stream, pipe, log)
}

// ProvidePredictionProvider creates the model client, nil when unconfigured.
func ProvidePredictionProvider(cfg *config.Config) domsvc.PredictionProvider {
	if cfg.Providers.PredictionURL == "" {
		return nil
	}
	return providers.NewHTTPPredictionProvider(cfg.Providers.PredictionURL, cfg.Providers.Timeout)
}

// ProvideSentimentProvider creates the sentiment client, nil when unconfigured.
func ProvideSentimentProvider(cfg *config.Config) domsvc.SentimentProvider {
	if cfg.Providers.SentimentURL == "" {
		return nil
	}
	return providers.NewHTTPSentimentProvider(cfg.Providers.SentimentURL, cfg.Providers.Timeout)
}

// ProvidePipelineParams maps configuration onto the engine stage configs,
// keeping documented defaults for anything unset.
func ProvidePipelineParams(cfg *config.Config) usecase.PipelineParams {
	e := cfg.Engine

	levelsCfg := levels.DefaultConfig()
	if len(e.Session.OpenHours) > 0 {
		levelsCfg.SessionOpenHours = e.Session.OpenHours
	}
	if e.Session.IBWindow > 0 {
		levelsCfg.IBWindow = e.Session.IBWindow
	}
	if e.Session.PostOpenWindow > 0 {
		levelsCfg.PostOpenWindow = e.Session.PostOpenWindow
	}

	regimeCfg := regime.DefaultThresholds()
	if e.Regime.ADXTrend > 0 {
		regimeCfg.ADXTrend = e.Regime.ADXTrend
	}
	if e.Regime.ChopTrend > 0 {
		regimeCfg.ChopTrend = e.Regime.ChopTrend
	}
	if e.Regime.ChopRange > 0 {
		regimeCfg.ChopRange = e.Regime.ChopRange
	}

	strategyCfg := strategy.DefaultConfig()
	if e.Strategy.TrendBase > 0 {
		strategyCfg.TrendBase = e.Strategy.TrendBase
	}
	if e.Strategy.RangeBase > 0 {
		strategyCfg.RangeBase = e.Strategy.RangeBase
	}
	if e.Strategy.FallbackBase > 0 {
		strategyCfg.FallbackBase = e.Strategy.FallbackBase
	}
	if e.Strategy.MinVolatilityPct > 0 {
		strategyCfg.MinVolatilityPct = e.Strategy.MinVolatilityPct
	}

	weights := confidence.DefaultWeights()
	if e.Weights.MLConfidence > 0 {
		weights = confidence.Weights{
			MLConfidence:     e.Weights.MLConfidence,
			TechnicalQuality: e.Weights.TechnicalQuality,
			MarketConditions: e.Weights.MarketConditions,
			MTFConfirmation:  e.Weights.MTFConfirmation,
			RiskFactors:      e.Weights.RiskFactors,
		}
	}

	riskCfg := risk.DefaultConfig()
	if e.Risk.TrendATRMult > 0 {
		riskCfg.TrendATRMult = e.Risk.TrendATRMult
	}
	if e.Risk.RangeATRMult > 0 {
		riskCfg.RangeATRMult = e.Risk.RangeATRMult
	}
	if e.Risk.FallbackATRMult > 0 {
		riskCfg.FallbackATRMult = e.Risk.FallbackATRMult
	}
	if e.Risk.SpreadSafetyMult > 0 {
		riskCfg.SpreadSafetyMult = e.Risk.SpreadSafetyMult
	}
	if e.Risk.MinRR > 0 {
		riskCfg.MinRR = e.Risk.MinRR
	}
	if e.Risk.MaxRR > 0 {
		riskCfg.MaxRR = e.Risk.MaxRR
	}

	symbols := make(map[string]models.SymbolSpec, len(e.Symbols))
	for sym, ov := range e.Symbols {
		spec := models.DefaultSpec(models.ClassifySymbol(sym))
		if ov.PipSize > 0 {
			spec.PipSize = ov.PipSize
		}
		if ov.MinStopPips > 0 {
			spec.MinStopPips = ov.MinStopPips
		}
		if ov.MaxStopPips > 0 {
			spec.MaxStopPips = ov.MaxStopPips
		}
		if ov.TypicalSpread > 0 {
			spec.TypicalSpread = ov.TypicalSpread
		}
		if ov.RoundStep > 0 {
			spec.RoundStep = ov.RoundStep
		}
		symbols[sym] = spec
	}

	return usecase.PipelineParams{
		Symbols:  symbols,
		Levels:   levelsCfg,
		Regime:   regimeCfg,
		Strategy: strategyCfg,
		Weights:  weights,
		Risk:     riskCfg,
	}
}

// ProvideCalibrationConfig maps configuration onto the calibrator config.
func ProvideCalibrationConfig(cfg *config.Config) calibration.Config {
	out := calibration.DefaultConfig()
	cal := cfg.Engine.Calibration
	if cal.GridStart > 0 {
		out.GridStart = cal.GridStart
	}
	if cal.GridEnd > 0 {
		out.GridEnd = cal.GridEnd
	}
	if cal.GridStep > 0 {
		out.GridStep = cal.GridStep
	}
	if cal.MinSamples > 0 {
		out.MinSamples = cal.MinSamples
	}
	if cal.Window > 0 {
		out.Window = cal.Window
	}
	if cal.Timeout > 0 {
		out.Timeout = cal.Timeout
	}
	return out
}

// ProvideSignalPipeline assembles the evaluation pipeline.
func ProvideSignalPipeline(
	history repository.SignalHistory,
	publisher repository.Publisher,
	calib repository.CalibrationStore,
	book *marketdata.Book,
	prediction domsvc.PredictionProvider,
	sentiment domsvc.SentimentProvider,
	m repository.Metrics,
	log *logger.Logger,
	params usecase.PipelineParams,
) *usecase.SignalPipeline {
	return usecase.NewSignalPipeline(usecase.PipelineDeps{
		History:    history,
		Publisher:  publisher,
		Calib:      calib,
		Quotes:     book,
		Prediction: prediction,
		Sentiment:  sentiment,
		Metrics:    m,
		Log:        log,
	}, params)
}

// ProvideCalibrationRunner assembles the periodic calibrator.
func ProvideCalibrationRunner(
	history repository.SignalHistory,
	store repository.CalibrationStore,
	c cache.Service,
	m repository.Metrics,
	log *logger.Logger,
	calCfg calibration.Config,
) *usecase.CalibrationRunner {
	return usecase.NewCalibrationRunner(history, store, c, m, log, calCfg)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(log *logger.Logger, pipeline *usecase.SignalPipeline, c cache.Service) xhttp.Handler {
	return api.NewSignalsEchoHandler(log, pipeline, c)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	feeder *marketdata.Feeder,
	consumer *pkgkafka.Consumer,
	oh *usecase.OutcomeHandler,
	runner *usecase.CalibrationRunner,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, feeder, consumer, oh, runner, handler, chClient, producer)
}
