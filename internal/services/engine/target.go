package engine

import (
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

// ExpectedMove converts calibrated confidence into a signed percentage
// move. Base magnitude scales linearly across the confidence band
// (floor → min_pct, ceiling → max_pct), multiplied by the per-symbol
// volatility multiplier. High-volatility symbols get a magnitude floor;
// everything is capped at ±max_pct per day.
func ExpectedMove(prob float64, label models.Label, multiplier float64, m config.Model) float64 {
	if multiplier <= 0 {
		multiplier = 1
	}

	span := m.Probability.Ceiling - m.Probability.Floor
	frac := (prob - m.Probability.Floor) / span
	frac = math.Max(0, math.Min(1, frac))

	mv := m.Move
	mag := (mv.MinPct + (mv.MaxPct-mv.MinPct)*frac) * multiplier
	if multiplier >= mv.FloorMultiplier && mag < mv.FloorPct {
		mag = mv.FloorPct
	}
	if mag > mv.MaxPct {
		mag = mv.MaxPct
	}

	if label == models.LabelBearish {
		return -mag
	}
	return mag
}

// TargetPrice anchors on the previous official close, not the live price,
// so the stated target holds still while the session trades around it.
func TargetPrice(previousClose, expectedPctMove float64) float64 {
	return previousClose * (1 + expectedPctMove/100)
}
