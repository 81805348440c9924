package config

import "time"

// Model holds the scoring-engine tunables. Passed into the pure scoring
// functions as an immutable value; per-test overrides never leak across runs.
type Model struct {
	Version     string      `yaml:"version"`
	Weights     Weights     `yaml:"weights"`
	Probability Probability `yaml:"probability"`
	Alignment   Alignment   `yaml:"alignment"`
	Move        Move        `yaml:"move"`
}

// Weights must sum to 1.0; checked at config load.
type Weights struct {
	Technical     float64 `yaml:"technical"`
	Sentiment     float64 `yaml:"sentiment"`
	GlobalMarkets float64 `yaml:"global_markets"`
	Volume        float64 `yaml:"volume"`
	Fundamentals  float64 `yaml:"fundamentals"`
	Intraday      float64 `yaml:"intraday"`
}

func (w Weights) Sum() float64 {
	return w.Technical + w.Sentiment + w.GlobalMarkets + w.Volume + w.Fundamentals + w.Intraday
}

type Probability struct {
	Floor         float64 `yaml:"floor"`
	Ceiling       float64 `yaml:"ceiling"`
	Gain          float64 `yaml:"gain"`
	Span          float64 `yaml:"span"`
	DampThreshold float64 `yaml:"damp_threshold"` // volatility above this pulls confidence back
	DampCeiling   float64 `yaml:"damp_ceiling"`
}

type Alignment struct {
	TechnicalMin float64 `yaml:"technical_min"`
	SentimentMin float64 `yaml:"sentiment_min"`
	MaxBoost     float64 `yaml:"max_boost"`
}

type Move struct {
	MinPct          float64 `yaml:"min_pct"`
	MaxPct          float64 `yaml:"max_pct"`
	FloorPct        float64 `yaml:"floor_pct"`        // applied when multiplier >= floor_multiplier
	FloorMultiplier float64 `yaml:"floor_multiplier"`
}

// Detector holds the correction/rebound pattern thresholds.
type Detector struct {
	MinHistoryDays       int        `yaml:"min_history_days"`
	OversoldRSI          float64    `yaml:"oversold_rsi"`
	OverboughtRSI        float64    `yaml:"overbought_rsi"`
	FlipScore            float64    `yaml:"flip_score"`   // oversold score above this flips a bearish call
	DampenScore          float64    `yaml:"dampen_score"` // 40..flip dampens instead
	SeverityCap          float64    `yaml:"severity_cap"`
	ConfidenceCap        float64    `yaml:"confidence_cap"`
	DropTiers            []DropTier `yaml:"drop_tiers"`
	StabilizationMaxPct  float64    `yaml:"stabilization_max_pct"` // follow-through band [0, this) counts as stabilization
	ReboundBoostMinConf  float64    `yaml:"rebound_boost_min_conf"`
	ReboundBoostMaxDelta float64    `yaml:"rebound_boost_max_delta"`
}

// DropTier maps a price level to the 1-day dollar drop that qualifies as
// abnormal at that level. Ordered by descending MinPrice.
type DropTier struct {
	MinPrice float64 `yaml:"min_price"`
	Drop     float64 `yaml:"drop"`
}

// TierFor returns the qualifying dollar drop for a stock price.
func (d Detector) TierFor(price float64) float64 {
	for _, t := range d.DropTiers {
		if price >= t.MinPrice {
			return t.Drop
		}
	}
	if n := len(d.DropTiers); n > 0 {
		return d.DropTiers[n-1].Drop
	}
	return 0
}

// Keywords holds the news-override keyword tables. Bullish weights are
// positive, bearish negative; checked at config load.
type Keywords struct {
	OverrideThreshold float64            `yaml:"override_threshold"`
	CooldownTTL       time.Duration      `yaml:"cooldown_ttl"`
	HighImpactMin     float64            `yaml:"high_impact_min"`
	Bullish           map[string]float64 `yaml:"bullish"`
	Bearish           map[string]float64 `yaml:"bearish"`
}

func DefaultModel() Model {
	return Model{
		Version: "6.0.0",
		Weights: Weights{
			Technical:     0.25,
			Sentiment:     0.35,
			GlobalMarkets: 0.15,
			Volume:        0.12,
			Fundamentals:  0.08,
			Intraday:      0.05,
		},
		Probability: Probability{
			Floor:         0.55,
			Ceiling:       0.98,
			Gain:          1.5,
			Span:          0.45,
			DampThreshold: 2.5,
			DampCeiling:   0.75,
		},
		Alignment: Alignment{
			TechnicalMin: 0.6,
			SentimentMin: 0.5,
			MaxBoost:     0.12,
		},
		Move: Move{
			MinPct:          0.3,
			MaxPct:          7.0,
			FloorPct:        2.0,
			FloorMultiplier: 1.5,
		},
	}
}

func DefaultDetector() Detector {
	return Detector{
		MinHistoryDays: 8,
		OversoldRSI:    30,
		OverboughtRSI:  70,
		FlipScore:      60,
		DampenScore:    40,
		SeverityCap:    100,
		ConfidenceCap:  150,
		DropTiers: []DropTier{
			{MinPrice: 500, Drop: 20},
			{MinPrice: 250, Drop: 12},
			{MinPrice: 100, Drop: 7},
			{MinPrice: 50, Drop: 3.5},
			{MinPrice: 0, Drop: 1.5},
		},
		StabilizationMaxPct:  1.0,
		ReboundBoostMinConf:  45,
		ReboundBoostMaxDelta: 0.35,
	}
}

func DefaultKeywords() Keywords {
	return Keywords{
		OverrideThreshold: 3.0,
		CooldownTTL:       30 * time.Minute,
		HighImpactMin:     1.8,
		Bullish: map[string]float64{
			"earnings beat":   2.0,
			"beat estimates":  2.0,
			"strong earnings": 1.8,
			"revenue growth":  1.6,
			"guidance raise":  1.8,
			"product launch":  1.5,
			"merger":          1.4,
			"acquisition":     1.4,
			"partnership":     1.3,
			"expansion":       1.4,
			"record revenue":  1.8,
			"record profit":   1.9,
			"upgrade":         1.7,
			"outperform":      1.6,
			"breakthrough":    1.5,
			"rally":           1.2,
		},
		Bearish: map[string]float64{
			"earnings miss":   -2.0,
			"miss estimates":  -2.0,
			"weak earnings":   -1.8,
			"revenue decline": -1.6,
			"guidance cut":    -1.8,
			"layoffs":         -1.7,
			"recall":          -1.5,
			"lawsuit":         -1.4,
			"scandal":         -1.6,
			"downgrade":       -1.7,
			"underperform":    -1.6,
			"bankruptcy":      -2.0,
			"investigation":   -1.5,
			"loss":            -1.4,
			"decline":         -1.2,
			"warning":         -1.3,
		},
	}
}
