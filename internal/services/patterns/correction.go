package patterns

import (
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

// correctionRules is evaluated in order; multiple rules may fire and each
// appends evidence to its direction's accumulator. Price-action rules come
// before sentiment-adjacent ones.
var correctionRules = []correctionRule{
	{
		name: "overbought_rsi",
		apply: func(in correctionInput) *correctionHit {
			if in.RSI <= in.Det.OverboughtRSI {
				return nil
			}
			sev := math.Min((in.RSI-in.Det.OverboughtRSI)*8, 40)
			return &correctionHit{
				direction: models.DirectionDown,
				severity:  sev,
				reason:    fmt.Sprintf("RSI %.0f overbought", in.RSI),
				action:    "take profits / tighten stops",
			}
		},
	},
	{
		name: "oversold_rsi",
		apply: func(in correctionInput) *correctionHit {
			if in.RSI >= in.Det.OversoldRSI {
				return nil
			}
			sev := math.Min((in.Det.OversoldRSI-in.RSI)*8, 40)
			return &correctionHit{
				direction: models.DirectionUp,
				severity:  sev,
				reason:    fmt.Sprintf("RSI %.0f oversold", in.RSI),
				action:    "bounce candidate",
			}
		},
	},
	{
		name: "parabolic_rise",
		apply: func(in correctionInput) *correctionHit {
			if in.Change7D <= 10 || in.Change3D <= 5 || in.RSI <= 70 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionDown,
				severity:  30,
				reason:    fmt.Sprintf("parabolic rise +%.1f%% over 7d with RSI %.0f", in.Change7D, in.RSI),
				action:    "expect mean reversion",
			}
		},
	},
	{
		name: "extended_decline",
		apply: func(in correctionInput) *correctionHit {
			if in.Change7D >= -10 || in.RSI >= 35 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionUp,
				severity:  25,
				reason:    fmt.Sprintf("extended decline %.1f%% over 7d with RSI %.0f", in.Change7D, in.RSI),
				action:    "oversold rebound likely",
			}
		},
	},
	{
		name: "bollinger_exhaustion",
		apply: func(in correctionInput) *correctionHit {
			if in.BBPosition <= 0.95 || in.RSI <= 65 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionDown,
				severity:  20,
				reason:    "price pinned to upper Bollinger band",
				action:    "watch for band reversion",
			}
		},
	},
	{
		name: "bollinger_oversold",
		apply: func(in correctionInput) *correctionHit {
			if in.BBPosition >= 0.05 || in.RSI >= 40 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionUp,
				severity:  20,
				reason:    "price pinned to lower Bollinger band",
				action:    "watch for band reversion",
			}
		},
	},
	{
		name: "bearish_divergence",
		apply: func(in correctionInput) *correctionHit {
			if in.Change3D <= 3 || in.MACDHist >= 0 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionDown,
				severity:  20,
				reason:    "price rising while momentum weakens",
				action:    "momentum no longer confirms",
			}
		},
	},
	{
		name: "volume_exhaustion",
		apply: func(in correctionInput) *correctionHit {
			if in.VolumeRatio <= 2.5 || in.Change1D >= 1 {
				return nil
			}
			return &correctionHit{
				direction: models.DirectionDown,
				severity:  25,
				reason:    fmt.Sprintf("volume %.1fx average without price progress", in.VolumeRatio),
				action:    "distribution risk",
			}
		},
	},
}

// DetectCorrection runs the single-snapshot rule list. Opposing directions
// accumulate separately; the side with the larger total wins, severity
// capped at the configured ceiling. A nil return means no pattern fired,
// which is "no warning", not "zero risk".
func DetectCorrection(f models.FeatureSet, det config.Detector) *models.CorrectionWarning {
	in := correctionInput{
		RSI:         f.Get("rsi_14", 50),
		BBPosition:  f.Get("bb_position", 0.5),
		MACDHist:    f.Get("macd_histogram", 0),
		Change1D:    f.Get("price_change_1d", 0),
		Change3D:    f.Get("price_change_3d", 0),
		Change7D:    f.Get("price_change_7d", 0),
		VolumeRatio: f.Get("volume_ratio", 1),
		Det:         det,
	}

	var hits []models.PatternHit
	var up, down float64
	for _, rule := range correctionRules {
		hit := rule.apply(in)
		if hit == nil {
			continue
		}
		hits = append(hits, models.PatternHit{
			Name:       rule.name,
			Reason:     hit.reason,
			Confidence: hit.severity,
			Action:     hit.action,
		})
		if hit.direction == models.DirectionUp {
			up += hit.severity
		} else {
			down += hit.severity
		}
	}
	if len(hits) == 0 {
		return nil
	}

	direction := models.DirectionDown
	score := down
	if up > down {
		direction = models.DirectionUp
		score = up
	}
	score = math.Min(score, det.SeverityCap)

	return &models.CorrectionWarning{
		Triggered:         true,
		Direction:         direction,
		Severity:          severityBucket(score),
		Score:             score,
		Patterns:          hits,
		RecommendedAction: recommendedAction(direction, score),
	}
}

func severityBucket(score float64) models.Severity {
	switch {
	case score >= 80:
		return models.SeverityCritical
	case score >= 60:
		return models.SeverityHigh
	case score >= 40:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func recommendedAction(dir models.Direction, score float64) string {
	if dir == models.DirectionUp {
		if score >= 60 {
			return "strong reversal setup; bearish positioning is fighting the tape"
		}
		return "downside likely overdone; scale out of shorts"
	}
	if score >= 60 {
		return "reduce exposure; correction risk elevated"
	}
	return "hold with tighter stops"
}

// AdjustComposite feeds a fired warning back into the composite score.
// A DOWN warning dampens a bullish composite in proportion to severity.
// An UP warning above the flip threshold turns a bearish composite
// outright bullish at reduced magnitude; between the dampen and flip
// thresholds it only softens the bearish read.
func AdjustComposite(composite float64, w *models.CorrectionWarning, det config.Detector) float64 {
	if w == nil || !w.Triggered {
		return composite
	}
	switch {
	case w.Direction == models.DirectionDown && composite > 0:
		return composite * (1 - w.Score/det.SeverityCap*0.5)
	case w.Direction == models.DirectionUp && composite < 0 && w.Score > det.FlipScore:
		return math.Abs(composite) * 0.7
	case w.Direction == models.DirectionUp && composite < 0 && w.Score >= det.DampenScore:
		return composite * (1 - w.Score/det.SeverityCap*0.5)
	default:
		return composite
	}
}
