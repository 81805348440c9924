package patterns

import (
	"math"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

func barsFromCloses(closes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{Date: day.AddDate(0, 0, i), Close: c, Volume: 1e6}
	}
	return bars
}

func TestStabilizationAfterQualifyingDrop(t *testing.T) {
	d := NewDetector(config.DefaultDetector())
	// $9.41 drop at the $183 level qualifies (tier $7); holding flat the
	// next day is rebound evidence on its own
	closes := []float64{192.6, 192.6, 192.6, 192.6, 192.6, 192.6, 192.57, 183.16, 183.16}
	ev := d.DetectRebound("AAPL", barsFromCloses(closes), detectorFeatures(nil))

	if ev.InsufficientData {
		t.Fatalf("9 bars should be enough history")
	}
	if len(ev.Patterns) != 1 || ev.Patterns[0] != "stabilization" {
		t.Fatalf("patterns = %v, want [stabilization]", ev.Patterns)
	}
	want := 20 + math.Min(9.41/7*5, 15)
	if math.Abs(ev.Confidence-want) > 0.01 {
		t.Fatalf("confidence = %v, want %v", ev.Confidence, want)
	}
	if ev.Type != models.ReboundModerate {
		t.Fatalf("type = %v, want MODERATE", ev.Type)
	}
}

func TestSharpBounceOutranksStabilization(t *testing.T) {
	d := NewDetector(config.DefaultDetector())
	closes := []float64{192.6, 192.6, 192.6, 192.6, 192.6, 192.6, 192.57, 183.16, 187.0}
	ev := d.DetectRebound("AAPL", barsFromCloses(closes), detectorFeatures(nil))

	found := false
	for _, p := range ev.Patterns {
		if p == "stabilization" {
			t.Fatalf("recovered price must not also count as stabilization")
		}
		if p == "sharp_bounce" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sharp_bounce, got %v", ev.Patterns)
	}
}

func TestInsufficientHistoryIsExplicit(t *testing.T) {
	det := config.DefaultDetector()
	d := NewDetector(det)
	ev := d.DetectRebound("TSLA", barsFromCloses([]float64{100, 99, 98, 97, 96}), detectorFeatures(nil))

	if !ev.InsufficientData {
		t.Fatalf("5 bars must report insufficient data")
	}
	if ev.Type != models.ReboundNone || len(ev.Patterns) != 0 {
		t.Fatalf("insufficient data must not guess: %+v", ev)
	}
	if boost := ReboundBoost(ev, det); boost != 0 {
		t.Fatalf("insufficient data must not boost, got %v", boost)
	}
}

func TestHistoryFloorCoversLookbackWindow(t *testing.T) {
	det := config.DefaultDetector()
	det.MinHistoryDays = 5
	d := NewDetector(det)

	// A configured minimum below the 7-day lookback must not let the
	// detector read past the start of the window.
	ev := d.DetectRebound("TSLA", barsFromCloses([]float64{100, 100, 100, 100, 100}), detectorFeatures(nil))
	if !ev.InsufficientData {
		t.Fatalf("5 bars with min_history_days=5 must still report insufficient data")
	}
	if boost := ReboundBoost(ev, det); boost != 0 {
		t.Fatalf("insufficient data must not boost, got %v", boost)
	}

	// Eight bars satisfy the lookback regardless of the configured minimum.
	ev = d.DetectRebound("TSLA", barsFromCloses([]float64{100, 100, 100, 100, 100, 100, 100, 100}), detectorFeatures(nil))
	if ev.InsufficientData {
		t.Fatalf("8 bars cover the full lookback window")
	}
	if ev.Type != models.ReboundNone {
		t.Fatalf("flat tape fired %+v", ev)
	}
}

func TestStackedPatternsGoStrong(t *testing.T) {
	det := config.DefaultDetector()
	d := NewDetector(det)
	// deep multi-day decline, then a +2% bounce on volume with RSI pinned
	closes := []float64{100, 100, 100, 100, 100, 94.74, 90.0, 88.24, 90.0}
	f := detectorFeatures(map[string]float64{
		"rsi_14":       30,
		"volume_ratio": 2.0,
	})
	ev := d.DetectRebound("NVDA", barsFromCloses(closes), f)

	if ev.Type != models.ReboundStrong {
		t.Fatalf("type = %v (conf %v, patterns %v), want STRONG", ev.Type, ev.Confidence, ev.Patterns)
	}
	if ev.Confidence > det.ConfidenceCap {
		t.Fatalf("confidence %v exceeds cap %v", ev.Confidence, det.ConfidenceCap)
	}

	boost := ReboundBoost(ev, det)
	want := ev.Confidence / det.ConfidenceCap * det.ReboundBoostMaxDelta
	if math.Abs(boost-want) > 1e-9 {
		t.Fatalf("boost = %v, want %v", boost, want)
	}
	if boost > det.ReboundBoostMaxDelta {
		t.Fatalf("boost %v exceeds max delta %v", boost, det.ReboundBoostMaxDelta)
	}
}

func TestQuietTapeFiresNothing(t *testing.T) {
	det := config.DefaultDetector()
	d := NewDetector(det)
	closes := []float64{100, 100.2, 100.1, 100.3, 100.2, 100.4, 100.3, 100.5, 100.4}
	ev := d.DetectRebound("KO", barsFromCloses(closes), detectorFeatures(nil))

	if ev.Type != models.ReboundNone || ev.Confidence != 0 {
		t.Fatalf("quiet tape fired %+v", ev)
	}
	if boost := ReboundBoost(ev, det); boost != 0 {
		t.Fatalf("no event must mean no boost, got %v", boost)
	}
}

func TestTierForPriceLevels(t *testing.T) {
	det := config.DefaultDetector()
	cases := map[float64]float64{
		600: 20,
		300: 12,
		120: 7,
		60:  3.5,
		20:  1.5,
	}
	for price, want := range cases {
		if got := det.TierFor(price); got != want {
			t.Fatalf("TierFor(%v) = %v, want %v", price, got, want)
		}
	}
}
