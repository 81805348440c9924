package engine

import (
	"math"

	"StockPulse/internal/domain/models"
)

// clamp bounds a component score to [-1, 1].
func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// sanitize replaces NaN/Inf with the fallback so degenerate inputs never
// propagate through the pipeline.
func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ScoreAll runs the six component scorers over a validated feature set.
// Each is a pure function; order is irrelevant.
func ScoreAll(f models.FeatureSet) models.ComponentScores {
	return models.ComponentScores{
		Technical:     Technical(f),
		Sentiment:     Sentiment(f),
		GlobalMarkets: GlobalMarkets(f),
		Volume:        Volume(f),
		Fundamentals:  Fundamentals(f),
		Intraday:      Intraday(f),
	}
}

// Technical grades RSI, MACD histogram, moving-average crossovers,
// Bollinger position and support/resistance action. Extreme RSI dominates;
// no single indicator contributes more than ±0.9.
func Technical(f models.FeatureSet) float64 {
	score := 0.0

	rsi := f.Get("rsi_14", 50)
	switch {
	case rsi < 25:
		score += 0.9
	case rsi < 30:
		score += 0.8
	case rsi < 40:
		score += 0.4
	case rsi > 75:
		score -= 0.9
	case rsi > 70:
		score -= 0.8
	case rsi > 60:
		score -= 0.4
	default:
		score += (50 - rsi) / 100 * 0.3
	}

	hist := f.Get("macd_histogram", 0)
	switch {
	case hist > 0.5:
		score += 0.3
	case hist > 0.1:
		score += 0.2
	case hist > 0:
		score += 0.1
	case hist < -0.5:
		score -= 0.3
	case hist < -0.1:
		score -= 0.2
	case hist < 0:
		score -= 0.1
	}

	if f.Get("golden_cross", 0) > 0 {
		score += 0.5
	}
	if f.Get("death_cross", 0) > 0 {
		score -= 0.5
	}

	bb := f.Get("bb_position", 0.5)
	switch {
	case bb < 0.05:
		score += 0.3
	case bb < 0.2:
		score += 0.2
	case bb > 0.95:
		score -= 0.3
	case bb > 0.8:
		score -= 0.2
	}

	if f.Get("support_bounce", 0) > 0 {
		score += 0.2
	}
	if f.Get("resistance_failure", 0) > 0 {
		score -= 0.2
	}

	return clamp(score)
}

// Sentiment blends the averaged historical sentiment (down-weighted, naive
// averaging dilutes fresh signal) with the net keyword score through tanh.
// Keyword evidence is first-class, not a tiebreaker.
func Sentiment(f models.FeatureSet) float64 {
	avg := f.Get("news_sentiment_score", 0)
	count := f.Get("news_count", 0)
	score := avg * math.Min(count/15, 1) * 0.5

	net := f.Get("bullish_keyword_score", 0) - f.Get("bearish_keyword_score", 0)
	score += math.Tanh(net/10) * 0.7

	if f.Get("high_impact_bullish", 0) > 0 {
		score += 0.3
	}
	if f.Get("high_impact_bearish", 0) > 0 {
		score -= 0.3
	}

	// a move over 2% against the news reading halves it; price already
	// disagreed with the story
	ch := f.Get("price_change_1d", 0)
	if math.Abs(ch) > 2 && ch*score < 0 {
		score *= 0.5
	}

	return clamp(score)
}

var (
	asianIndices    = []string{"nikkei_change", "hang_seng_change", "shanghai_change"}
	europeanIndices = []string{"dax_change", "ftse_change", "cac_change"}
)

// GlobalMarkets blends an Asian block (0.6) and a European block (0.4).
// Indices with no data are excluded from their block average, not zeroed.
func GlobalMarkets(f models.FeatureSet) float64 {
	asian, asianOK := blockScore(f, "asian_market_change", asianIndices)
	euro, euroOK := blockScore(f, "european_market_change", europeanIndices)

	switch {
	case asianOK && euroOK:
		return clamp(asian*0.6 + euro*0.4)
	case asianOK:
		return clamp(asian)
	case euroOK:
		return clamp(euro)
	default:
		return 0
	}
}

func blockScore(f models.FeatureSet, aggregate string, indices []string) (float64, bool) {
	if f.Has(aggregate) {
		return math.Tanh(f.Get(aggregate, 0) / 2), true
	}
	sum, n := 0.0, 0
	for _, key := range indices {
		if f.Has(key) {
			sum += f.Get(key, 0)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Tanh(sum / float64(n) / 2), true
}

// Volume scores participation. The base term depends only on the volume
// ratio and is never negative above ratio 1.0; an elevated-volume flat day
// is conviction, not a sell signal. Price direction contributes only a
// small confirmation term on top.
func Volume(f models.FeatureSet) float64 {
	base := volumeBase(f.Get("volume_ratio", 1))

	conf := 0.0
	if base > 0.15 {
		switch ch := f.Get("price_change_1d", 0); {
		case ch > 1:
			conf = 0.15
		case ch > 0.2:
			conf = 0.08
		case ch < -1:
			conf = -0.15
		case ch < -0.2:
			conf = -0.08
		}
	}

	return clamp(base*0.85 + conf)
}

// volumeBase is monotonic in ratio and non-negative for ratio >= 1.
func volumeBase(ratio float64) float64 {
	if ratio <= 0 {
		return 0
	}
	if ratio >= 1 {
		return math.Tanh((ratio - 1) * 1.2)
	}
	return -math.Tanh((1-ratio)*0.8) * 0.4
}

// Fundamentals starts from an unconditional PE-percentile base so the score
// never degenerates to exactly zero just because growth deltas are absent.
func Fundamentals(f models.FeatureSet) float64 {
	total := (f.Get("pe_percentile", 50) - 50) / 50 * 0.5
	n := 1

	if f.Has("revenue_growth") {
		total += math.Tanh(f.Get("revenue_growth", 0)/20) * 0.6
		n++
	}
	if f.Has("earnings_growth") {
		total += math.Tanh(f.Get("earnings_growth", 0)/20) * 0.6
		n++
	}
	if f.Has("margin_change") {
		total += clamp(f.Get("margin_change", 0)/5) * 0.4
		n++
	}
	if a := f.Get("analyst_action", 0); a != 0 {
		total += clamp(a) * 0.3
		n++
	}
	if ins := f.Get("insider_activity", 0); ins != 0 {
		total += clamp(ins) * 0.2
		n++
	}

	return clamp(total / float64(n))
}

// Intraday scores the close-vs-open move. A near-zero move with elevated
// participation falls back to a volume-derived estimate; "flat but busy"
// is not the same as "no data".
func Intraday(f models.FeatureSet) float64 {
	ch := f.Get("intraday_change", 0)
	ratio := f.Get("intraday_volume_ratio", 1)

	if math.Abs(ch) <= 0.1 {
		return clamp((ratio - 1) * 0.1)
	}

	score := math.Tanh(ch / 1.5)
	if ratio > 1.2 {
		score *= 1.15
	}
	return clamp(score)
}
