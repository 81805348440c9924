package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse. Every prediction is
// appended to the audit table; predictions are immutable value objects, so
// there is nothing to update.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.PredictionResult) error {
	if r == nil {
		return fmt.Errorf("prediction is nil")
	}
	correction, err := json.Marshal(r.Correction)
	if err != nil {
		return fmt.Errorf("marshal correction: %w", err)
	}
	reasons, err := json.Marshal(r.TopReasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(ts, symbol, label, probability, expected_pct_move, current_price, previous_close, target_price,
		 score_technical, score_sentiment, score_global, score_volume, score_fundamentals, score_intraday,
		 composite, override_applied, override_reason, correction, top_reasons, model_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		r.GeneratedAt,
		r.Symbol,
		string(r.Label),
		r.Probability,
		r.ExpectedPctMove,
		r.CurrentPrice,
		r.PreviousClose,
		r.TargetPrice,
		r.Scores.Technical,
		r.Scores.Sentiment,
		r.Scores.GlobalMarkets,
		r.Scores.Volume,
		r.Scores.Fundamentals,
		r.Scores.Intraday,
		r.Composite,
		boolToUInt8(r.OverrideApplied),
		r.OverrideReason,
		string(correction),
		string(reasons),
		r.ModelVersion,
	)
	return err
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.PredictionResult, error) {
	q := fmt.Sprintf(`SELECT ts, symbol, label, probability, expected_pct_move, current_price,
		previous_close, target_price, composite, model_version
		FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PredictionResult
	for rows.Next() {
		var r models.PredictionResult
		var label string
		if err := rows.Scan(&r.GeneratedAt, &r.Symbol, &label, &r.Probability, &r.ExpectedPctMove,
			&r.CurrentPrice, &r.PreviousClose, &r.TargetPrice, &r.Composite, &r.ModelVersion); err != nil {
			return nil, err
		}
		r.Label = models.Label(label)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.PredictionResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), map[string]interface{}{
		"symbol":            r.Symbol,
		"label":             string(r.Label),
		"probability":       r.Probability,
		"expected_pct_move": r.ExpectedPctMove,
		"target_price":      r.TargetPrice,
		"previous_close":    r.PreviousClose,
		"override_applied":  r.OverrideApplied,
		"model_version":     r.ModelVersion,
		"generated_at":      r.GeneratedAt.Unix(),
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
