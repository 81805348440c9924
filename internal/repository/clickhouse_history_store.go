package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

const dailyBarsTable = "stockpulse.daily_bars"

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetDailyBars returns the last `days` daily bars ordered by date ascending,
// as the pattern detector expects.
func (s *CHHistoryStore) GetDailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	const qtpl = `
        SELECT date, open, high, low, close, volume
        FROM (
            SELECT date, open, high, low, close, volume
            FROM %s
            WHERE symbol = ?
            ORDER BY date DESC
            LIMIT ?
        )
        ORDER BY date ASC
    `
	q := fmt.Sprintf(qtpl, dailyBarsTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, days)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_daily_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("days", days),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get daily bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, days)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_daily_bars scan error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHHistoryStore) StoreBar(ctx context.Context, symbol string, bar models.PriceBar) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (date, symbol, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)",
		dailyBarsTable)
	if _, err := s.db.ExecContext(ctx, q,
		bar.Date, symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_bar error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store bar: %w", err)
	}
	return nil
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)
