package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/usecase"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.QuoteCollector
	consumer    *pkgkafka.Consumer
	jobQueue    *queue.RedisQueue
	backfill    *usecase.Backfill
	chClient    *pkgch.Client
	storage     domrepo.Storage
	publisher   domrepo.Publisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	chClient *pkgch.Client,
	storage domrepo.Storage,
	publisher domrepo.Publisher,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		chClient:  chClient,
		storage:   storage,
		publisher: publisher,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetConsumer injects the optional Kafka quote-ingest consumer.
func (a *App) SetConsumer(c *pkgkafka.Consumer) { a.consumer = c }

// SetJobQueue injects the optional Redis job queue for shutdown handling.
func (a *App) SetJobQueue(q *queue.RedisQueue) { a.jobQueue = q }

// SetBackfill injects the optional daily-bar history backfill.
func (a *App) SetBackfill(b *usecase.Backfill) { a.backfill = b }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Seed bar history before the detectors take requests
	if a.backfill != nil {
		go a.backfill.Run(ctx)
	}

	// Start the quote collector when a stream is configured
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.Quotes.Symbols))
	}

	// Start the Kafka quote ingest when configured
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		l.Info("kafka quote ingest started",
			applogger.String("topic", a.cfg.Kafka.Consumer.QuotesTopic))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream), flushing open bars
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop Kafka ingest before the stores it writes through
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Drain the job queue so queued predictions are not abandoned
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Close backend resources
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			l.Warn("storage close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
