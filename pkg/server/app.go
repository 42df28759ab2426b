// Package server owns the application lifecycle: the quote feeder, the
// outcomes consumer, the calibration schedule and the HTTP server, plus
// their ordered shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradePulse/internal/service/marketdata"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// defaultCalibrationInterval applies when the config leaves it unset.
const defaultCalibrationInterval = 6 * time.Hour

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	feeder     *marketdata.Feeder
	consumer   *pkgkafka.Consumer
	oh         *usecase.OutcomeHandler
	runner     *usecase.CalibrationRunner
	handler    xhttp.Handler
	chClient   *pkgch.Client
	producer   *pkgkafka.Producer
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	feeder *marketdata.Feeder,
	consumer *pkgkafka.Consumer,
	oh *usecase.OutcomeHandler,
	runner *usecase.CalibrationRunner,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		feeder:   feeder,
		consumer: consumer,
		oh:       oh,
		runner:   runner,
		handler:  handler,
		chClient: chClient,
		producer: producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Quote feeder keeps the spread picture current; the pipeline falls back
	// to typical spreads while it is down, so its failure is not fatal.
	if a.feeder != nil {
		go func() {
			if err := a.feeder.Run(ctx); err != nil {
				a.log.Error("quote feeder stopped", applogger.Error(err))
			}
		}()
		a.log.Info("quote feeder started", applogger.Any("symbols", a.cfg.MarketData.Symbols))
	}

	if a.consumer != nil && a.oh != nil {
		a.consumer.RegisterHandler(a.oh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("outcomes consumer started", applogger.String("topic", a.oh.Topic()))
	}

	if a.runner != nil {
		go a.calibrationLoop(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// calibrationLoop runs one pass immediately and then on the configured
// interval until ctx is done.
func (a *App) calibrationLoop(ctx context.Context) {
	interval := a.cfg.Engine.Calibration.Interval
	if interval <= 0 {
		interval = defaultCalibrationInterval
	}

	if err := a.runner.Run(ctx); err != nil {
		a.log.Error("calibration run failed", applogger.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.runner.Run(ctx); err != nil {
				a.log.Error("calibration run failed", applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
