package patterns

import (
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

// reboundRules stack: every matching rule adds to the running confidence.
// Price-action rules sit above the sentiment-supported one so that actual
// price movement outranks news whenever both are present. Confidence may
// exceed 100 when several strong patterns stack; the cap is 150 and callers
// clamp at the point of use.
var reboundRules = []reboundRule{
	{
		name: "sharp_bounce",
		apply: func(in reboundInput) (float64, bool) {
			tier := in.Det.TierFor(in.LastClose)
			if tier <= 0 || in.AbsDrop1D < tier || in.FollowPct < in.Det.StabilizationMaxPct {
				return 0, false
			}
			return 35 + math.Min(in.FollowPct*5, 25), true
		},
	},
	{
		name: "stabilization",
		apply: func(in reboundInput) (float64, bool) {
			// no further decline after a qualifying drop is itself
			// rebound evidence; 0% follow-through must fire
			tier := in.Det.TierFor(in.LastClose)
			if tier <= 0 || in.AbsDrop1D < tier {
				return 0, false
			}
			if in.FollowPct < 0 || in.FollowPct >= in.Det.StabilizationMaxPct {
				return 0, false
			}
			return 20 + math.Min(in.AbsDrop1D/tier*5, 15), true
		},
	},
	{
		name: "v_shape",
		apply: func(in reboundInput) (float64, bool) {
			if in.Price7D >= -8 || in.Price3D >= -4 || in.Price1D <= 1 {
				return 0, false
			}
			return 45 + math.Min(in.Price1D*5, 25), true
		},
	},
	{
		name: "oversold_momentum",
		apply: func(in reboundInput) (float64, bool) {
			if in.RSI >= 35 || in.Price1D <= 0.5 {
				return 0, false
			}
			return 30, true
		},
	},
	{
		name: "oversold_volume",
		apply: func(in reboundInput) (float64, bool) {
			if in.RSI >= 35 || in.VolumeRatio <= 1.8 {
				return 0, false
			}
			return 35, true
		},
	},
	{
		name: "news_supported_decline",
		apply: func(in reboundInput) (float64, bool) {
			if in.Price1D >= -3 || in.Sentiment <= 0.2 || in.NewsCount < 3 {
				return 0, false
			}
			return 40 + math.Min(math.Abs(in.Price1D)*3, 20), true
		},
	},
}

// reboundLookback is the deepest bar the rule inputs read: the 7-day
// change needs the close from 8 bars back. A configured minimum below
// this cannot shrink the window.
const reboundLookback = 8

// Detector evaluates the multi-day drop/recovery rules for one symbol.
type Detector struct {
	det config.Detector
}

func NewDetector(det config.Detector) *Detector {
	return &Detector{det: det}
}

// DetectRebound runs the rule list over the symbol's daily bars (ordered by
// date ascending), plus the validated features for RSI/volume/sentiment
// context. With fewer than the minimum history days it reports
// insufficient data explicitly instead of guessing.
func (d *Detector) DetectRebound(symbol string, bars []models.PriceBar, f models.FeatureSet) models.ReboundEvent {
	ev := models.ReboundEvent{Symbol: symbol, Type: models.ReboundNone}
	need := d.det.MinHistoryDays
	if need < reboundLookback {
		need = reboundLookback
	}
	if len(bars) < need {
		ev.InsufficientData = true
		return ev
	}

	n := len(bars)
	last := bars[n-1].Close
	prev := bars[n-2].Close
	prev2 := bars[n-3].Close

	in := reboundInput{
		Price1D:     pctChange(prev, last),
		Price3D:     pctChange(bars[n-4].Close, last),
		Price7D:     pctChange(bars[n-8].Close, last),
		AbsDrop1D:   math.Max(prev2-prev, 0),
		AbsDrop3D:   math.Max(bars[n-4].Close-prev, 0),
		FollowPct:   pctChange(prev, last),
		LastClose:   last,
		RSI:         f.Get("rsi_14", 50),
		VolumeRatio: f.Get("volume_ratio", 1),
		Sentiment:   f.Get("news_sentiment_score", 0),
		NewsCount:   int(f.Get("news_count", 0)),
		Det:         d.det,
	}

	ev.Metrics = models.ReboundMetrics{
		Price1D:        in.Price1D,
		Price3D:        in.Price3D,
		Price7D:        in.Price7D,
		AbsoluteDrop1D: in.AbsDrop1D,
		AbsoluteDrop3D: in.AbsDrop3D,
		Sentiment:      in.Sentiment,
		NewsCount:      in.NewsCount,
	}

	for _, rule := range reboundRules {
		if conf, ok := rule.apply(in); ok {
			ev.Patterns = append(ev.Patterns, rule.name)
			ev.Confidence += conf
		}
	}
	ev.Confidence = math.Min(ev.Confidence, d.det.ConfidenceCap)

	switch {
	case len(ev.Patterns) == 0:
		ev.Type = models.ReboundNone
	case ev.Confidence >= 90:
		ev.Type = models.ReboundStrong
	default:
		ev.Type = models.ReboundModerate
	}
	return ev
}

// ReboundBoost converts a rebound event into a composite-score lift. The
// internal confidence may run to 150; this is the clamp point.
func ReboundBoost(ev models.ReboundEvent, det config.Detector) float64 {
	if ev.InsufficientData || ev.Confidence <= det.ReboundBoostMinConf {
		return 0
	}
	conf := math.Min(ev.Confidence, det.ConfidenceCap)
	return conf / det.ConfidenceCap * det.ReboundBoostMaxDelta
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
