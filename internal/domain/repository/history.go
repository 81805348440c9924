package repository

import (
	"context"

	"StockPulse/internal/domain/models"
)

// HistoryStore provides read-only access to daily bars for the pattern
// detector. Bars come back ordered by date ascending.
type HistoryStore interface {
	GetDailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error)
	StoreBar(ctx context.Context, symbol string, bar models.PriceBar) error
}
