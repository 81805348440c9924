package engine

import (
	"math"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

func TestTargetPriceAnchorsOnPreviousClose(t *testing.T) {
	got := TargetPrice(356.70, -2.3734)
	if math.Abs(got-348.23) > 0.01 {
		t.Fatalf("target = %v, want 348.23 +/- 0.01", got)
	}
}

func TestTargetPriceRecoversMove(t *testing.T) {
	// (target/previous_close - 1) * 100 must give back the move for any
	// positive anchor, bullish or bearish, tiny or capped.
	closes := []float64{0.37, 4.2, 31.85, 183.16, 356.70, 4975.0}
	moves := []float64{-7, -2.3734, -0.31, 0, 0.3, 2.5, 7}
	for _, pc := range closes {
		for _, move := range moves {
			target := TargetPrice(pc, move)
			back := (target/pc - 1) * 100
			if math.Abs(back-move) > 1e-9 {
				t.Fatalf("close %v move %v: recovered %v", pc, move, back)
			}
		}
	}
}

func TestExpectedMoveScalesWithConfidence(t *testing.T) {
	m := config.DefaultModel()

	low := ExpectedMove(m.Probability.Floor, models.LabelBullish, 1, m)
	high := ExpectedMove(m.Probability.Ceiling, models.LabelBullish, 1, m)
	if math.Abs(low-m.Move.MinPct) > 1e-9 {
		t.Fatalf("floor confidence move = %v, want %v", low, m.Move.MinPct)
	}
	if math.Abs(high-m.Move.MaxPct) > 1e-9 {
		t.Fatalf("ceiling confidence move = %v, want %v", high, m.Move.MaxPct)
	}
}

func TestExpectedMoveVolatilityFloor(t *testing.T) {
	m := config.DefaultModel()
	got := ExpectedMove(m.Probability.Floor, models.LabelBullish, 1.5, m)
	if got != m.Move.FloorPct {
		t.Fatalf("high-volatility move = %v, want the %v floor", got, m.Move.FloorPct)
	}

	// multiplier below the floor threshold keeps the raw magnitude
	raw := ExpectedMove(m.Probability.Floor, models.LabelBullish, 1.2, m)
	if raw >= m.Move.FloorPct {
		t.Fatalf("floor should not apply at multiplier 1.2, got %v", raw)
	}
}

func TestExpectedMoveCapAndSign(t *testing.T) {
	m := config.DefaultModel()
	got := ExpectedMove(m.Probability.Ceiling, models.LabelBearish, 3, m)
	if got != -m.Move.MaxPct {
		t.Fatalf("bearish capped move = %v, want %v", got, -m.Move.MaxPct)
	}
}

func TestExpectedMoveZeroMultiplier(t *testing.T) {
	m := config.DefaultModel()
	got := ExpectedMove(0.75, models.LabelBullish, 0, m)
	want := ExpectedMove(0.75, models.LabelBullish, 1, m)
	if got != want {
		t.Fatalf("zero multiplier should behave as 1.0: %v vs %v", got, want)
	}
}
