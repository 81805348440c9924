package engine

import (
	"math"
	"testing"

	"StockPulse/internal/domain/models"
)

func features(vals map[string]float64) models.FeatureSet {
	f := models.NewFeatureSet()
	for k, v := range vals {
		f.Values[k] = v
	}
	return Validate(f)
}

func TestScoreAllBounds(t *testing.T) {
	extremes := []map[string]float64{
		{"rsi_14": 5, "macd_histogram": 3, "golden_cross": 1, "bb_position": 0, "support_bounce": 1},
		{"rsi_14": 95, "macd_histogram": -3, "death_cross": 1, "bb_position": 1, "resistance_failure": 1},
		{"news_sentiment_score": 1, "news_count": 50, "bullish_keyword_score": 40, "high_impact_bullish": 1},
		{"news_sentiment_score": -1, "news_count": 50, "bearish_keyword_score": 40, "high_impact_bearish": 1},
		{"volume_ratio": 10, "price_change_1d": 8},
		{"volume_ratio": 0.1, "price_change_1d": -8},
		{"pe_percentile": 100, "revenue_growth": 80, "earnings_growth": 80, "margin_change": 20},
		{"intraday_change": 6, "intraday_volume_ratio": 5},
		{"asian_market_change": 10, "european_market_change": -10},
	}

	for _, vals := range extremes {
		s := ScoreAll(features(vals))
		for name, v := range map[string]float64{
			"technical":      s.Technical,
			"sentiment":      s.Sentiment,
			"global_markets": s.GlobalMarkets,
			"volume":         s.Volume,
			"fundamentals":   s.Fundamentals,
			"intraday":       s.Intraday,
		} {
			if v < -1 || v > 1 {
				t.Fatalf("%s score %v out of [-1,1] for %v", name, v, vals)
			}
		}
	}
}

func TestVolumeBaseNeverNegativeAboveAverage(t *testing.T) {
	for _, ratio := range []float64{1.0, 1.2, 1.5, 2.0, 3.0, 5.0} {
		if got := volumeBase(ratio); got < 0 {
			t.Fatalf("volumeBase(%v) = %v, want >= 0", ratio, got)
		}
	}
}

func TestVolumeElevatedDownDayIsNotASellSignal(t *testing.T) {
	// confirmation is capped at -0.15; elevated volume alone never drags
	// the volume score deeply negative on a red day
	for ch := -5.0; ch <= 5.0; ch += 0.5 {
		got := Volume(features(map[string]float64{"volume_ratio": 1.5, "price_change_1d": ch}))
		if got < -0.15 {
			t.Fatalf("Volume(ratio=1.5, ch=%v) = %v, want >= -0.15", ch, got)
		}
	}
}

func TestVolumeBelowAverageMuted(t *testing.T) {
	got := volumeBase(0.5)
	if got >= 0 {
		t.Fatalf("expected negative base at ratio 0.5, got %v", got)
	}
	if got < -0.4 {
		t.Fatalf("below-average base %v exceeds the -0.4 scale", got)
	}
}

func TestTechnicalOversoldExtremes(t *testing.T) {
	deep := Technical(features(map[string]float64{"rsi_14": 24}))
	mild := Technical(features(map[string]float64{"rsi_14": 28}))
	if deep <= mild {
		t.Fatalf("rsi 24 (%v) should outscore rsi 28 (%v)", deep, mild)
	}
	hot := Technical(features(map[string]float64{"rsi_14": 78}))
	if hot >= 0 {
		t.Fatalf("rsi 78 should score negative, got %v", hot)
	}
}

func TestSentimentContradictionHalved(t *testing.T) {
	vals := map[string]float64{
		"news_sentiment_score":  0.8,
		"news_count":            15,
		"bullish_keyword_score": 6,
	}
	base := Sentiment(features(vals))

	vals["price_change_1d"] = -3 // price moved hard against the story
	halved := Sentiment(features(vals))

	if math.Abs(halved-base*0.5) > 1e-9 {
		t.Fatalf("expected %v halved to %v, got %v", base, base*0.5, halved)
	}
}

func TestGlobalMarketsAbsentBlockExcluded(t *testing.T) {
	f := features(map[string]float64{"nikkei_change": 2})
	got := GlobalMarkets(f)
	want := math.Tanh(2.0 / 2)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("asian-only score = %v, want %v", got, want)
	}

	if got := GlobalMarkets(features(nil)); got != 0 {
		t.Fatalf("no index data should score 0, got %v", got)
	}
}

func TestFundamentalsBaseNeverDiluted(t *testing.T) {
	// pe alone divides by 1, not by the count of absent growth inputs
	got := Fundamentals(features(map[string]float64{"pe_percentile": 80}))
	if math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("pe-only score = %v, want 0.3", got)
	}
}

func TestIntradayFlatButBusy(t *testing.T) {
	got := Intraday(features(map[string]float64{"intraday_change": 0.05, "intraday_volume_ratio": 1.5}))
	if math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("flat-but-busy score = %v, want 0.05", got)
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize(math.NaN(), 50); got != 50 {
		t.Fatalf("NaN should fall back, got %v", got)
	}
	if got := sanitize(math.Inf(1), 0); got != 0 {
		t.Fatalf("Inf should fall back, got %v", got)
	}
	if got := sanitize(1.25, 0); got != 1.25 {
		t.Fatalf("finite value mangled: %v", got)
	}
}
