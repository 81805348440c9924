package usecase

import (
	"context"
	"fmt"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

// TypePredictionStore is the queue message type for prediction persistence.
const TypePredictionStore = "prediction.store"

// PersistJob writes queued prediction results to storage and the broker.
// Running persistence through the queue keeps slow writes off the request
// path and gives failed writes the queue's retry and DLQ handling.
type PersistJob struct {
	storage domrepo.Storage   // optional
	pub     domrepo.Publisher // optional
}

func NewPersistJob(storage domrepo.Storage, pub domrepo.Publisher) *PersistJob {
	return &PersistJob{storage: storage, pub: pub}
}

func (j *PersistJob) Name() string { return "prediction-persist" }

func (j *PersistJob) Type() string { return TypePredictionStore }

func (j *PersistJob) Handle(ctx context.Context, payload interface{}) error {
	result, err := queue.ParsePayload[models.PredictionResult](payload)
	if err != nil {
		return fmt.Errorf("parse prediction payload: %w", err)
	}

	if j.storage != nil {
		if err := j.storage.Store(ctx, result); err != nil {
			return fmt.Errorf("store prediction %s: %w", result.Symbol, err)
		}
	}
	if j.pub != nil {
		if err := j.pub.Publish(ctx, result); err != nil {
			return fmt.Errorf("publish prediction %s: %w", result.Symbol, err)
		}
	}
	return nil
}

// TypeErrorDigest is the queue message type for aggregated error logs.
const TypeErrorDigest = "logs.error_digest"

// ErrorDigestJob surfaces aggregated error-log entries collected by the
// logger. Repeated errors arrive as a single entry with a count instead of
// flooding the log stream.
type ErrorDigestJob struct {
	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewErrorDigestJob(log *logger.Logger, metrics domrepo.Metrics) *ErrorDigestJob {
	return &ErrorDigestJob{log: log, metrics: metrics}
}

func (j *ErrorDigestJob) Name() string { return "error-digest" }

func (j *ErrorDigestJob) Type() string { return TypeErrorDigest }

func (j *ErrorDigestJob) Handle(ctx context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]logger.AggregatedLogEntry](payload)
	if err != nil {
		return fmt.Errorf("parse digest payload: %w", err)
	}

	for _, e := range *entries {
		if e.Count > 1 {
			j.metrics.RecordError("repeated:" + e.Caller)
		}
		j.log.Warn("error digest",
			logger.String("message", e.Message),
			logger.String("caller", e.Caller),
			logger.Int("count", e.Count),
			logger.String("first_seen", e.FirstSeen.Format("15:04:05")),
			logger.String("last_seen", e.LastSeen.Format("15:04:05")))
	}
	return nil
}
