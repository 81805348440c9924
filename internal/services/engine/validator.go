package engine

import "StockPulse/internal/domain/models"

// scoredDefaults is the closed feature vocabulary shared by the six scorers.
// Missing keys take the documented neutral: 0 for deltas and oscillators
// offset from neutral, 1.0 for ratios, 50 for percentile-scaled indicators.
var scoredDefaults = map[string]float64{
	// technical
	"rsi_14":             50,
	"macd_histogram":     0,
	"golden_cross":       0,
	"death_cross":        0,
	"bb_position":        0.5,
	"support_bounce":     0,
	"resistance_failure": 0,

	// sentiment
	"news_sentiment_score":  0,
	"news_count":            0,
	"bullish_keyword_score": 0,
	"bearish_keyword_score": 0,
	"high_impact_bullish":   0,
	"high_impact_bearish":   0,

	// volume / price action
	"volume_ratio":    1.0,
	"price_change_1d": 0,
	"price_change_3d": 0,
	"price_change_7d": 0,

	// fundamentals
	"pe_percentile": 50,

	// intraday
	"intraday_change":       0,
	"intraday_volume_ratio": 1.0,

	// prices
	"current_price":  0,
	"previous_close": 0,
}

// optionalKeys are copied only when present. The global-markets scorer
// excludes absent indices from its block averages, and the fundamentals
// scorer divides by the number of available inputs, so defaulting either
// group to zero would drag real signal toward neutral.
var optionalKeys = []string{
	"revenue_growth",
	"earnings_growth",
	"margin_change",
	"analyst_action",
	"insider_activity",
	"nikkei_change",
	"hang_seng_change",
	"shanghai_change",
	"dax_change",
	"ftse_change",
	"cac_change",
	"asian_market_change",
	"european_market_change",
}

// metadataValueKeys and metadataTagKeys are NOT features. They pass through
// validation verbatim on a separate allow-list so that refactors of the
// scored vocabulary can never drop them; losing volatility_multiplier once
// silently reset every downstream target to the default multiplier.
var metadataValueKeys = []string{"volatility_multiplier"}

var metadataTagKeys = []string{"category", "symbol"}

// Validate is total over any input mapping: pass one defaults the scored
// vocabulary, pass two copies metadata through untouched. Unknown keys are
// dropped. The input is never mutated.
func Validate(raw models.FeatureSet) models.FeatureSet {
	out := models.NewFeatureSet()

	for key, def := range scoredDefaults {
		if v, ok := raw.Values[key]; ok {
			out.Values[key] = sanitize(v, def)
		} else {
			out.Values[key] = def
		}
	}
	for _, key := range optionalKeys {
		if v, ok := raw.Values[key]; ok {
			out.Values[key] = sanitize(v, 0)
		}
	}

	for _, key := range metadataValueKeys {
		if v, ok := raw.Values[key]; ok {
			out.Values[key] = v
		}
	}
	for _, key := range metadataTagKeys {
		if v, ok := raw.Tags[key]; ok {
			out.Tags[key] = v
		}
	}
	return out
}
