package service

import (
	"context"

	"StockPulse/internal/domain/models"
)

// PredictionInput carries everything one prediction run needs: the flat
// feature set, daily bars for the pattern detector (date ascending), and
// recent articles for the keyword override. All fetched by the caller; the
// engine itself never touches I/O mid-pipeline.
type PredictionInput struct {
	Symbol   string
	Features models.FeatureSet
	Bars     []models.PriceBar
	Articles []models.NewsArticle
}

// Engine produces directional forecasts and the secondary pattern signals.
type Engine interface {
	Predict(ctx context.Context, in PredictionInput) (*models.PredictionResult, error)
	Rebound(ctx context.Context, symbol string) (models.ReboundEvent, error)
	Correction(ctx context.Context, symbol string) (*models.CorrectionWarning, error)
}
