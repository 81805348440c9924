package engine

import (
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

func TestCalibrateBounds(t *testing.T) {
	m := config.DefaultModel()
	for _, comp := range []float64{-5, -1, -0.3, 0, 0.3, 1, 5} {
		for _, vol := range []float64{0.5, 1, 2.5, 4} {
			p := Calibrate(comp, models.ComponentScores{}, vol, m)
			if p < m.Probability.Floor || p > m.Probability.Ceiling {
				t.Fatalf("Calibrate(%v, vol=%v) = %v outside [%v, %v]",
					comp, vol, p, m.Probability.Floor, m.Probability.Ceiling)
			}
		}
	}
}

func TestLabelForZeroIsBullish(t *testing.T) {
	if LabelFor(0) != models.LabelBullish {
		t.Fatalf("zero composite should read bullish")
	}
	if LabelFor(-0.001) != models.LabelBearish {
		t.Fatalf("negative composite should read bearish")
	}
}

func TestAlignmentBoost(t *testing.T) {
	m := config.DefaultModel()
	aligned := models.ComponentScores{Technical: 0.7, Sentiment: 0.6}
	weak := models.ComponentScores{Technical: 0.7, Sentiment: 0.1}

	pa := Calibrate(0.4, aligned, 1, m)
	pw := Calibrate(0.4, weak, 1, m)
	if pa <= pw {
		t.Fatalf("aligned evidence %v should outscore weak sentiment %v", pa, pw)
	}
	if pa-pw > m.Alignment.MaxBoost+1e-9 {
		t.Fatalf("boost %v exceeds cap %v", pa-pw, m.Alignment.MaxBoost)
	}
}

func TestAlignmentBoostRequiresAgreementWithComposite(t *testing.T) {
	m := config.DefaultModel()
	s := models.ComponentScores{Technical: -0.7, Sentiment: -0.6}

	// strong bearish factor agreement against a bullish composite: no boost
	disagree := Calibrate(0.4, s, 1, m)
	plain := Calibrate(0.4, models.ComponentScores{}, 1, m)
	if disagree != plain {
		t.Fatalf("boost applied against the composite: %v vs %v", disagree, plain)
	}
}

func TestVolatilityDamping(t *testing.T) {
	m := config.DefaultModel()
	s := models.ComponentScores{Technical: 0.9, Sentiment: 0.8}

	calm := Calibrate(1.5, s, 1.0, m)
	wild := Calibrate(1.5, s, 3.0, m)
	if calm <= m.Probability.DampCeiling {
		t.Fatalf("test needs a confidence above the damp ceiling, got %v", calm)
	}
	if wild >= calm {
		t.Fatalf("volatility %v should pull %v below %v", 3.0, wild, calm)
	}
	if wild < m.Probability.DampCeiling {
		t.Fatalf("damping overshot below the ceiling: %v", wild)
	}
}

func TestClampProbability(t *testing.T) {
	p := config.DefaultModel().Probability
	if got := ClampProbability(0.2, p); got != p.Floor {
		t.Fatalf("below floor: got %v", got)
	}
	if got := ClampProbability(0.999, p); got != p.Ceiling {
		t.Fatalf("above ceiling: got %v", got)
	}
	if got := ClampProbability(0.7, p); got != 0.7 {
		t.Fatalf("in-band value mangled: %v", got)
	}
}
