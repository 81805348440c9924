package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, r *models.PredictionResult) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.PredictionResult) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.PredictionResult, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordPrediction(symbol string, label string)
	RecordOverride(symbol string)
	RecordPatternFire(pattern string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
