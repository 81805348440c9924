package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	mid "StockPulse/internal/middleware"
)

// quoteMessage is the wire format for quotes arriving over Kafka.
type quoteMessage struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"ts"` // unix milliseconds
}

// QuoteIngestHandler consumes quote messages from a Kafka topic and feeds
// them through the same pipeline the WebSocket stream uses. Deployments
// without direct market-data access run off a shared quotes topic instead.
type QuoteIngestHandler struct {
	topic   string
	pipe    *mid.QuotePipeline
	metrics domrepo.Metrics
}

func NewQuoteIngestHandler(topic string, pipe *mid.QuotePipeline, metrics domrepo.Metrics) *QuoteIngestHandler {
	return &QuoteIngestHandler{topic: topic, pipe: pipe, metrics: metrics}
}

func (h *QuoteIngestHandler) Topic() string { return h.topic }

func (h *QuoteIngestHandler) Handle(ctx context.Context, data []byte) error {
	var msg quoteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.metrics.RecordError("quote_decode")
		return fmt.Errorf("decode quote: %w", err)
	}

	q := &models.Quote{
		Symbol:    msg.Symbol,
		Price:     msg.Price,
		Volume:    msg.Volume,
		Timestamp: time.UnixMilli(msg.Timestamp),
	}
	return h.pipe.Process(ctx, q)
}
