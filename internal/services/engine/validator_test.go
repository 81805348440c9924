package engine

import (
	"math"
	"testing"

	"StockPulse/internal/domain/models"
)

func TestValidateDefaults(t *testing.T) {
	out := Validate(models.NewFeatureSet())

	want := map[string]float64{
		"rsi_14":                50,
		"bb_position":           0.5,
		"volume_ratio":          1.0,
		"pe_percentile":         50,
		"intraday_volume_ratio": 1.0,
		"macd_histogram":        0,
		"price_change_1d":       0,
	}
	for k, v := range want {
		if got := out.Values[k]; got != v {
			t.Fatalf("default %s = %v, want %v", k, got, v)
		}
	}
}

func TestValidateOptionalKeysStayAbsent(t *testing.T) {
	out := Validate(models.NewFeatureSet())
	for _, k := range []string{"revenue_growth", "nikkei_change", "asian_market_change"} {
		if out.Has(k) {
			t.Fatalf("optional key %s should not be defaulted in", k)
		}
	}

	raw := models.NewFeatureSet()
	raw.Values["revenue_growth"] = 12
	out = Validate(raw)
	if got := out.Get("revenue_growth", 0); got != 12 {
		t.Fatalf("present optional key lost: %v", got)
	}
}

func TestValidateMetadataPassThrough(t *testing.T) {
	raw := models.NewFeatureSet()
	raw.Values["volatility_multiplier"] = 3.2
	raw.Tags["category"] = "growth"
	raw.Tags["symbol"] = "NVDA"
	raw.Tags["junk"] = "dropped"

	out := Validate(raw)
	if got := out.Get("volatility_multiplier", 0); got != 3.2 {
		t.Fatalf("volatility_multiplier = %v, want 3.2", got)
	}
	if out.Tag("category") != "growth" || out.Tag("symbol") != "NVDA" {
		t.Fatalf("tags not preserved: %v", out.Tags)
	}
	if out.Tag("junk") != "" {
		t.Fatalf("unknown tag should be dropped")
	}
}

func TestValidateDropsUnknownAndSanitizes(t *testing.T) {
	raw := models.NewFeatureSet()
	raw.Values["rsi_14"] = math.NaN()
	raw.Values["made_up_feature"] = 1

	out := Validate(raw)
	if got := out.Get("rsi_14", 0); got != 50 {
		t.Fatalf("NaN rsi should take the default, got %v", got)
	}
	if out.Has("made_up_feature") {
		t.Fatalf("unknown key survived validation")
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	raw := models.NewFeatureSet()
	raw.Values["rsi_14"] = 33

	_ = Validate(raw)
	if len(raw.Values) != 1 || raw.Values["rsi_14"] != 33 {
		t.Fatalf("input mutated: %v", raw.Values)
	}
}
