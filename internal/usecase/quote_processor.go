package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

// QuoteProcessor folds live quotes into the running daily bar per symbol
// and keeps the latest price available to feature assembly.
type QuoteProcessor struct {
	history drepo.HistoryStore
	metrics drepo.Metrics

	mu     sync.RWMutex
	bars   map[string]*models.PriceBar
	latest map[string]float64
}

func NewQuoteProcessor(history drepo.HistoryStore, metrics drepo.Metrics) *QuoteProcessor {
	return &QuoteProcessor{
		history: history,
		metrics: metrics,
		bars:    make(map[string]*models.PriceBar),
		latest:  make(map[string]float64),
	}
}

// Process updates the symbol's in-progress daily bar. Day rollover flushes
// the finished bar to the history store.
func (p *QuoteProcessor) Process(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}
	day := q.Timestamp.UTC().Truncate(24 * time.Hour)

	p.mu.Lock()
	bar, ok := p.bars[q.Symbol]
	var finished *models.PriceBar
	if !ok || !bar.Date.Equal(day) {
		if ok {
			finished = bar
		}
		bar = &models.PriceBar{Date: day, Open: q.Price, High: q.Price, Low: q.Price}
		p.bars[q.Symbol] = bar
	}
	if q.Price > bar.High {
		bar.High = q.Price
	}
	if q.Price < bar.Low {
		bar.Low = q.Price
	}
	bar.Close = q.Price
	bar.Volume += q.Volume
	p.latest[q.Symbol] = q.Price
	p.mu.Unlock()

	p.metrics.RecordLastPrice(q.Symbol, q.Price)

	if finished != nil && p.history != nil {
		if err := p.history.StoreBar(ctx, q.Symbol, *finished); err != nil {
			p.metrics.RecordError("bar_store")
			return fmt.Errorf("store daily bar: %w", err)
		}
	}
	return nil
}

// LatestPrice returns the most recent streamed price for symbol.
func (p *QuoteProcessor) LatestPrice(symbol string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.latest[symbol]
	return v, ok
}

// Flush persists every in-progress bar; called on shutdown.
func (p *QuoteProcessor) Flush(ctx context.Context) error {
	if p.history == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for symbol, bar := range p.bars {
		if err := p.history.StoreBar(ctx, symbol, *bar); err != nil {
			return fmt.Errorf("flush bar %s: %w", symbol, err)
		}
	}
	return nil
}
