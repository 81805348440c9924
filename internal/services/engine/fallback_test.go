package engine

import (
	"testing"

	"StockPulse/internal/domain/models"
)

func rawFeatures(keys ...string) models.FeatureSet {
	f := models.NewFeatureSet()
	for _, k := range keys {
		f.Values[k] = 1
	}
	return f
}

func TestSufficient(t *testing.T) {
	if Sufficient(rawFeatures("rsi_14", "volume_ratio", "price_change_1d")) {
		t.Fatalf("3 scored features should not be sufficient")
	}
	if !Sufficient(rawFeatures("rsi_14", "volume_ratio", "price_change_1d", "news_count")) {
		t.Fatalf("4 scored features should be sufficient")
	}
}

func TestSufficientIgnoresMetadataAndOptional(t *testing.T) {
	f := rawFeatures("rsi_14", "volume_ratio")
	f.Values["volatility_multiplier"] = 2
	f.Values["nikkei_change"] = 1
	f.Values["revenue_growth"] = 5
	if Sufficient(f) {
		t.Fatalf("metadata and optional keys must not count toward sufficiency")
	}
}

func TestFallbackRange(t *testing.T) {
	inputs := []map[string]float64{
		{"price_change_7d": 40, "price_change_3d": 20, "volume_ratio": 5, "rsi_14": 5},
		{"price_change_7d": -40, "price_change_3d": -20, "volume_ratio": 0.2, "rsi_14": 95},
		{},
	}
	for _, vals := range inputs {
		if got := Fallback(features(vals)); got < -1 || got > 1 {
			t.Fatalf("Fallback(%v) = %v out of [-1,1]", vals, got)
		}
	}
}

func TestFallbackDirection(t *testing.T) {
	up := Fallback(features(map[string]float64{"price_change_7d": 10, "price_change_3d": 5, "rsi_14": 35}))
	if up <= 0 {
		t.Fatalf("positive momentum should score positive, got %v", up)
	}
	down := Fallback(features(map[string]float64{"price_change_7d": -10, "price_change_3d": -5, "rsi_14": 65}))
	if down >= 0 {
		t.Fatalf("negative momentum should score negative, got %v", down)
	}
}

func TestFallbackCap(t *testing.T) {
	if got := FallbackCap(0.92); got != fallbackMaxProb {
		t.Fatalf("cap = %v, want %v", got, fallbackMaxProb)
	}
	if got := FallbackCap(0.6); got != 0.6 {
		t.Fatalf("in-band confidence mangled: %v", got)
	}
}
