package patterns

import (
	"math"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/engine"
	"StockPulse/pkg/config"
)

func detectorFeatures(vals map[string]float64) models.FeatureSet {
	f := models.NewFeatureSet()
	for k, v := range vals {
		f.Values[k] = v
	}
	return engine.Validate(f)
}

func TestOversoldCapitulationFlipsBearishCall(t *testing.T) {
	det := config.DefaultDetector()
	f := detectorFeatures(map[string]float64{
		"rsi_14":          25,
		"price_change_7d": -12,
	})

	w := DetectCorrection(f, det)
	if w == nil || !w.Triggered {
		t.Fatalf("expected a warning to fire")
	}
	if w.Direction != models.DirectionUp {
		t.Fatalf("direction = %v, want UP", w.Direction)
	}
	// oversold_rsi 40 + extended_decline 25
	if math.Abs(w.Score-65) > 1e-9 {
		t.Fatalf("score = %v, want 65", w.Score)
	}
	if w.Severity != models.SeverityHigh {
		t.Fatalf("severity = %v, want HIGH", w.Severity)
	}

	adjusted := AdjustComposite(-0.4, w, det)
	if adjusted <= 0 {
		t.Fatalf("score above the flip threshold should turn the composite positive, got %v", adjusted)
	}
	if math.Abs(adjusted-0.28) > 1e-9 {
		t.Fatalf("flipped composite = %v, want |−0.4|·0.7 = 0.28", adjusted)
	}
}

func TestOverboughtDampensBullishComposite(t *testing.T) {
	det := config.DefaultDetector()
	f := detectorFeatures(map[string]float64{"rsi_14": 78})

	w := DetectCorrection(f, det)
	if w == nil || w.Direction != models.DirectionDown {
		t.Fatalf("expected a DOWN warning, got %+v", w)
	}
	if w.Score != 40 {
		t.Fatalf("score = %v, want the 40 per-rule cap", w.Score)
	}

	adjusted := AdjustComposite(0.5, w, det)
	want := 0.5 * (1 - 40.0/100*0.5)
	if math.Abs(adjusted-want) > 1e-9 {
		t.Fatalf("dampened composite = %v, want %v", adjusted, want)
	}
}

func TestDampenBandSoftensWithoutFlipping(t *testing.T) {
	det := config.DefaultDetector()
	w := &models.CorrectionWarning{
		Triggered: true,
		Direction: models.DirectionUp,
		Score:     50,
	}

	adjusted := AdjustComposite(-0.4, w, det)
	if adjusted >= 0 {
		t.Fatalf("score 50 must not flip the call, got %v", adjusted)
	}
	if adjusted <= -0.4 {
		t.Fatalf("score 50 should soften the bearish read, got %v", adjusted)
	}
}

func TestAdjustCompositeNoWarning(t *testing.T) {
	det := config.DefaultDetector()
	if got := AdjustComposite(0.4, nil, det); got != 0.4 {
		t.Fatalf("nil warning changed the composite: %v", got)
	}
}

func TestNeutralSnapshotFiresNothing(t *testing.T) {
	det := config.DefaultDetector()
	if w := DetectCorrection(detectorFeatures(nil), det); w != nil {
		t.Fatalf("neutral features fired %+v", w)
	}
}

func TestSeverityBuckets(t *testing.T) {
	cases := map[float64]models.Severity{
		85: models.SeverityCritical,
		80: models.SeverityCritical,
		65: models.SeverityHigh,
		45: models.SeverityMedium,
		20: models.SeverityLow,
	}
	for score, want := range cases {
		if got := severityBucket(score); got != want {
			t.Fatalf("severityBucket(%v) = %v, want %v", score, got, want)
		}
	}
}

func TestSeverityCapped(t *testing.T) {
	det := config.DefaultDetector()
	// stack every DOWN rule: overbought rsi, parabolic rise, band
	// exhaustion, divergence, volume exhaustion
	f := detectorFeatures(map[string]float64{
		"rsi_14":          80,
		"bb_position":     0.98,
		"macd_histogram":  -0.2,
		"price_change_1d": 0,
		"price_change_3d": 6,
		"price_change_7d": 12,
		"volume_ratio":    3,
	})

	w := DetectCorrection(f, det)
	if w == nil {
		t.Fatalf("expected warning")
	}
	if w.Score > det.SeverityCap {
		t.Fatalf("score %v exceeds cap %v", w.Score, det.SeverityCap)
	}
	if w.Severity != models.SeverityCritical {
		t.Fatalf("stacked patterns should be CRITICAL, got %v", w.Severity)
	}
}
