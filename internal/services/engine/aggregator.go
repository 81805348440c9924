package engine

import (
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

// Contributions multiplies each component score by its configured weight.
// Their sum is the composite score before calibration.
func Contributions(s models.ComponentScores, w config.Weights) models.Contributions {
	return models.Contributions{
		Technical:     s.Technical * w.Technical,
		Sentiment:     s.Sentiment * w.Sentiment,
		GlobalMarkets: s.GlobalMarkets * w.GlobalMarkets,
		Volume:        s.Volume * w.Volume,
		Fundamentals:  s.Fundamentals * w.Fundamentals,
		Intraday:      s.Intraday * w.Intraday,
	}
}

// LabelFor commits to a direction from the composite sign. Exactly zero
// reads as bullish; the confidence floor still applies.
func LabelFor(composite float64) models.Label {
	if composite < 0 {
		return models.LabelBearish
	}
	return models.LabelBullish
}

// Calibrate converts a composite score into the stated confidence of the
// directional call:
//
//	p = 0.5 + span·tanh(gain·|composite|)
//
// plus an alignment boost when technical and sentiment both clear their
// strong-signal thresholds on the same side. Corroborating independent
// evidence is worth more than a single strong factor. High per-symbol
// volatility pulls extreme confidence back toward the damp ceiling. The
// result is clamped once, here, at the aggregator boundary.
func Calibrate(composite float64, s models.ComponentScores, volatility float64, m config.Model) float64 {
	p := m.Probability
	prob := 0.5 + p.Span*math.Tanh(p.Gain*math.Abs(composite))

	a := m.Alignment
	if math.Abs(s.Technical) > a.TechnicalMin &&
		math.Abs(s.Sentiment) > a.SentimentMin &&
		s.Technical*s.Sentiment > 0 &&
		s.Technical*composite > 0 {
		prob += math.Min(math.Abs(s.Technical*s.Sentiment)*0.2, a.MaxBoost)
	}

	if volatility > p.DampThreshold && prob > p.DampCeiling {
		prob = p.DampCeiling + (prob-p.DampCeiling)*0.5
	}

	return ClampProbability(prob, p)
}

// ClampProbability enforces the never-neutral band: every call is stated
// with at least the floor confidence and at most the ceiling.
func ClampProbability(prob float64, p config.Probability) float64 {
	prob = sanitize(prob, p.Floor)
	if prob < p.Floor {
		return p.Floor
	}
	if prob > p.Ceiling {
		return p.Ceiling
	}
	return prob
}
