package engine

import (
	"math"

	"StockPulse/internal/domain/models"
)

// fallback weighting for the feature-poor path: simple observable signals
// stand in for the full factor stack.
const (
	fbMomentum      = 0.30
	fbRelStrength   = 0.15
	fbIntradayPos   = 0.10
	fbVolume        = 0.10
	fbTodayNews     = 0.20
	fbTechnicals    = 0.10
	fbOverallNews   = 0.05
	fallbackMaxProb = 0.75
)

// MinScoredFeatures is the number of caller-supplied scored features below
// which the full factor model is not worth running.
const MinScoredFeatures = 4

// Sufficient reports whether the raw input carries enough scored features
// for the full model. Metadata and optional index keys do not count.
func Sufficient(raw models.FeatureSet) bool {
	n := 0
	for key := range raw.Values {
		if _, ok := scoredDefaults[key]; ok {
			n++
		}
	}
	return n >= MinScoredFeatures
}

// Fallback produces a composite-scale score from whatever simple signals
// are present. Used when the caller could not assemble a full feature set;
// the resulting confidence is capped below the full model's ceiling.
func Fallback(f models.FeatureSet) float64 {
	momentum := math.Tanh(f.Get("price_change_7d", 0) / 8)
	relStrength := math.Tanh(f.Get("price_change_3d", 0) / 5)
	intradayPos := math.Tanh(f.Get("intraday_change", 0) / 2)
	volume := volumeBase(f.Get("volume_ratio", 1))
	todayNews := clamp(f.Get("news_sentiment_score", 0))
	technicals := (50 - f.Get("rsi_14", 50)) / 50
	overallNews := math.Tanh((f.Get("bullish_keyword_score", 0) - f.Get("bearish_keyword_score", 0)) / 10)

	score := momentum*fbMomentum +
		relStrength*fbRelStrength +
		intradayPos*fbIntradayPos +
		volume*fbVolume +
		todayNews*fbTodayNews +
		technicals*fbTechnicals +
		overallNews*fbOverallNews

	return clamp(score)
}

// FallbackCap bounds the stated confidence of a fallback prediction.
func FallbackCap(prob float64) float64 {
	return math.Min(prob, fallbackMaxProb)
}
