package engine

import (
	"fmt"
	"math"
	"sort"

	"StockPulse/internal/domain/models"
)

const maxReasons = 3

type factor struct {
	name    string
	score   float64
	contrib float64
}

func rankedFactors(s models.ComponentScores, c models.Contributions) []factor {
	fs := []factor{
		{"technical", s.Technical, c.Technical},
		{"sentiment", s.Sentiment, c.Sentiment},
		{"global markets", s.GlobalMarkets, c.GlobalMarkets},
		{"volume", s.Volume, c.Volume},
		{"fundamentals", s.Fundamentals, c.Fundamentals},
		{"intraday", s.Intraday, c.Intraday},
	}
	sort.SliceStable(fs, func(i, j int) bool {
		return math.Abs(fs[i].contrib) > math.Abs(fs[j].contrib)
	})
	return fs
}

// TopReasons renders the strongest contributions as human-readable strings,
// at most three, strongest first. Near-zero contributions never make the list.
func TopReasons(s models.ComponentScores, c models.Contributions) []string {
	reasons := make([]string, 0, maxReasons)
	for _, f := range rankedFactors(s, c) {
		if len(reasons) == maxReasons {
			break
		}
		if math.Abs(f.contrib) < 0.01 {
			continue
		}
		reasons = append(reasons, reasonText(f))
	}
	return reasons
}

func reasonText(f factor) string {
	tone := "bullish"
	if f.score < 0 {
		tone = "bearish"
	}
	strength := "leaning"
	if math.Abs(f.score) > 0.6 {
		strength = "strongly"
	} else if math.Abs(f.score) > 0.3 {
		strength = "moderately"
	}
	return fmt.Sprintf("%s %s %s (score %+.2f)", f.name, strength, tone, f.score)
}

// Signals derives trade-actionable flags from the finished prediction.
func Signals(r *models.PredictionResult, rebound *models.ReboundEvent) []models.Signal {
	var out []models.Signal

	if r.Label == models.LabelBullish && r.Probability >= 0.75 {
		out = append(out, models.Signal{
			Type: "BUY", Strength: strengthFor(r.Probability),
			Reason: fmt.Sprintf("bullish call at %.0f%% confidence", r.Probability*100),
		})
	}
	if r.Label == models.LabelBearish && r.Probability >= 0.75 {
		out = append(out, models.Signal{
			Type: "SELL", Strength: strengthFor(r.Probability),
			Reason: fmt.Sprintf("bearish call at %.0f%% confidence", r.Probability*100),
		})
	}
	if r.Correction != nil && r.Correction.Triggered {
		out = append(out, models.Signal{
			Type: "WARNING", Strength: strengthForScore(r.Correction.Score),
			Reason: fmt.Sprintf("correction risk %s, score %.0f", r.Correction.Direction, r.Correction.Score),
		})
	}
	if rebound != nil && rebound.Type == models.ReboundStrong {
		out = append(out, models.Signal{
			Type: "OPPORTUNITY", Strength: "STRONG",
			Reason: fmt.Sprintf("rebound setup, confidence %.0f", rebound.Confidence),
		})
	}
	if r.OverrideApplied {
		out = append(out, models.Signal{
			Type: "ALERT", Strength: "STRONG",
			Reason: r.OverrideReason,
		})
	}
	return out
}

func strengthFor(prob float64) string {
	switch {
	case prob >= 0.88:
		return "STRONG"
	case prob >= 0.75:
		return "MODERATE"
	default:
		return "WEAK"
	}
}

func strengthForScore(score float64) string {
	switch {
	case score >= 60:
		return "STRONG"
	case score >= 40:
		return "MODERATE"
	default:
		return "WEAK"
	}
}
