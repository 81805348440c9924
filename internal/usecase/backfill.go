package usecase

import (
	"context"

	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/quotes"
	"StockPulse/pkg/logger"
)

const backfillDays = 30

// Backfill seeds the daily-bar store from the REST candle API so the
// pattern detectors have history before the live feed has produced any
// bars of its own.
type Backfill struct {
	rest    *quotes.RESTHistory
	store   domrepo.HistoryStore
	symbols []string
	minDays int
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewBackfill(rest *quotes.RESTHistory, store domrepo.HistoryStore, symbols []string,
	minDays int, metrics domrepo.Metrics, log *logger.Logger) *Backfill {
	return &Backfill{
		rest:    rest,
		store:   store,
		symbols: symbols,
		minDays: minDays,
		metrics: metrics,
		log:     log,
	}
}

// Run fills in history for every symbol that has fewer stored bars than the
// detectors need. A failed symbol is logged and skipped, not fatal.
func (b *Backfill) Run(ctx context.Context) {
	for _, symbol := range b.symbols {
		existing, err := b.store.GetDailyBars(ctx, symbol, backfillDays)
		if err == nil && len(existing) >= b.minDays {
			continue
		}

		bars, err := b.rest.DailyBars(ctx, symbol, backfillDays)
		if err != nil {
			b.log.Warn("backfill fetch failed",
				logger.String("symbol", symbol), logger.Error(err))
			b.metrics.RecordError("backfill_fetch")
			continue
		}

		stored := 0
		for _, bar := range bars {
			if err := b.store.StoreBar(ctx, symbol, bar); err != nil {
				b.log.Warn("backfill store failed",
					logger.String("symbol", symbol), logger.Error(err))
				b.metrics.RecordError("backfill_store")
				break
			}
			stored++
		}
		b.log.Info("backfilled daily bars",
			logger.String("symbol", symbol), logger.Int("bars", stored))
	}
}
