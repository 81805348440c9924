package usecase

import (
	"context"
	"math"
	"strings"
	"testing"

	"StockPulse/internal/domain/models"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/services/newswatch"
	"StockPulse/internal/services/patterns"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"
)

type fakeMetrics struct {
	predictions int
	overrides   int
	patternHits []string
	errors      []string
}

func (m *fakeMetrics) RecordPrediction(symbol, label string) { m.predictions++ }
func (m *fakeMetrics) RecordOverride(symbol string)          { m.overrides++ }
func (m *fakeMetrics) RecordPatternFire(pattern string)      { m.patternHits = append(m.patternHits, pattern) }
func (m *fakeMetrics) RecordError(kind string)               { m.errors = append(m.errors, kind) }
func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64)     {}

type allowCooldown struct{}

func (allowCooldown) Allow(ctx context.Context, symbol string) bool { return true }

func testPredictor(t *testing.T) (*Predictor, *fakeMetrics) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := &config.Config{
		Environment: "test",
		Model:       config.DefaultModel(),
		Detector:    config.DefaultDetector(),
		Keywords:    config.DefaultKeywords(),
	}
	m := &fakeMetrics{}
	override := newswatch.NewOverride(cfg.Keywords, allowCooldown{}, log)
	p := NewPredictor(cfg, patterns.NewDetector(cfg.Detector), override, nil, nil, nil, m, log)
	return p, m
}

func fullFeatures() models.FeatureSet {
	f := models.NewFeatureSet()
	f.Values["rsi_14"] = 55
	f.Values["news_sentiment_score"] = 0.2
	f.Values["volume_ratio"] = 1.2
	f.Values["pe_percentile"] = 40
	f.Values["current_price"] = 101
	f.Values["previous_close"] = 100
	return f
}

func TestPredictRequiresSymbol(t *testing.T) {
	p, _ := testPredictor(t)
	if _, err := p.Predict(context.Background(), domsvc.PredictionInput{}); err == nil {
		t.Fatalf("empty symbol must be rejected")
	}
}

func TestPredictFullModelPath(t *testing.T) {
	p, m := testPredictor(t)
	r, err := p.Predict(context.Background(), domsvc.PredictionInput{
		Symbol:   "AAPL",
		Features: fullFeatures(),
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	floor := p.cfg.Model.Probability.Floor
	ceiling := p.cfg.Model.Probability.Ceiling
	if r.Probability < floor || r.Probability > ceiling {
		t.Fatalf("probability %v outside [%v, %v]", r.Probability, floor, ceiling)
	}
	if r.ModelVersion != p.cfg.Model.Version {
		t.Fatalf("version = %q, want %q", r.ModelVersion, p.cfg.Model.Version)
	}
	wantTarget := 100 * (1 + r.ExpectedPctMove/100)
	if math.Abs(r.TargetPrice-wantTarget) > 0.01 {
		t.Fatalf("target %v, want %v from previous close 100", r.TargetPrice, wantTarget)
	}
	if m.predictions != 1 {
		t.Fatalf("predictions recorded = %d, want 1", m.predictions)
	}
}

func TestPredictFallbackOnSparseFeatures(t *testing.T) {
	p, _ := testPredictor(t)
	f := models.NewFeatureSet()
	f.Values["price_change_7d"] = 5
	f.Values["current_price"] = 100

	r, err := p.Predict(context.Background(), domsvc.PredictionInput{Symbol: "TSLA", Features: f})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !strings.HasSuffix(r.ModelVersion, "-fallback") {
		t.Fatalf("version = %q, want -fallback suffix", r.ModelVersion)
	}
	if r.Probability > 0.75 {
		t.Fatalf("fallback probability %v exceeds cap", r.Probability)
	}
}

func TestPredictOverrideForcesLabel(t *testing.T) {
	p, m := testPredictor(t)
	articles := []models.NewsArticle{
		{Title: "guidance cut after earnings miss"},
	}
	r, err := p.Predict(context.Background(), domsvc.PredictionInput{
		Symbol:   "NFLX",
		Features: fullFeatures(), // mildly bullish base
		Articles: articles,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !r.OverrideApplied || r.Label != models.LabelBearish {
		t.Fatalf("expected a bearish override, got %+v", r)
	}
	if r.ExpectedPctMove >= 0 {
		t.Fatalf("move %v must follow the forced direction", r.ExpectedPctMove)
	}
	if r.OverrideReason == "" {
		t.Fatalf("applied override must carry a reason")
	}
	if m.overrides != 1 {
		t.Fatalf("overrides recorded = %d, want 1", m.overrides)
	}
}

func TestPredictCorrectionSurfacesInResult(t *testing.T) {
	p, m := testPredictor(t)
	f := fullFeatures()
	f.Values["rsi_14"] = 78

	r, err := p.Predict(context.Background(), domsvc.PredictionInput{Symbol: "NVDA", Features: f})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if r.Correction == nil || !r.Correction.Triggered {
		t.Fatalf("overbought snapshot must surface a correction warning")
	}
	if len(m.patternHits) == 0 {
		t.Fatalf("pattern fires must be recorded")
	}
}

func TestFeaturesFromBars(t *testing.T) {
	bars := make([]models.PriceBar, 0, 9)
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108}
	for _, c := range closes {
		bars = append(bars, models.PriceBar{Close: c, Volume: 1e6})
	}
	f := featuresFromBars(bars)

	if f.Values["current_price"] != 108 {
		t.Fatalf("current_price = %v, want 108", f.Values["current_price"])
	}
	want1d := (108.0 - 107.0) / 107.0 * 100
	if math.Abs(f.Values["price_change_1d"]-want1d) > 1e-9 {
		t.Fatalf("price_change_1d = %v, want %v", f.Values["price_change_1d"], want1d)
	}
	want7d := (108.0 - 101.0) / 101.0 * 100
	if math.Abs(f.Values["price_change_7d"]-want7d) > 1e-9 {
		t.Fatalf("price_change_7d = %v, want %v", f.Values["price_change_7d"], want7d)
	}
	if _, ok := f.Values["volume_ratio"]; ok {
		t.Fatalf("volume_ratio needs 21 bars")
	}
}
