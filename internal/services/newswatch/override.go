package newswatch

import (
	"context"
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"
)

// Override scans recent news for weighted keyword evidence and, when the
// net score clears the configured threshold, replaces the engine's label.
// News trumps model here; a per-symbol cooldown keeps it from oscillating
// within the same session.
type Override struct {
	kw       config.Keywords
	cooldown CooldownStore
	log      *logger.Logger
}

func NewOverride(kw config.Keywords, cooldown CooldownStore, log *logger.Logger) *Override {
	return &Override{kw: kw, cooldown: cooldown, log: log}
}

// Evaluate is deterministic over (articles, keyword table): identical
// inputs yield the identical decision and triggering-keyword list. Only the
// cooldown consults external state.
func (o *Override) Evaluate(ctx context.Context, symbol string, articles []models.NewsArticle, base models.Label) models.OverrideDecision {
	bullMatches := scanArticles(articles, o.kw.Bullish)
	bearMatches := scanArticles(articles, o.kw.Bearish)

	bullScore, bullHits := sumMatches(bullMatches)
	bearScore, bearHits := sumMatches(bearMatches) // negative weights
	net := bullScore + bearScore

	d := models.OverrideDecision{
		Label:          base,
		BullishScore:   bullScore,
		BearishScore:   math.Abs(bearScore),
		NetScore:       net,
		BullishMatches: bullHits,
		BearishMatches: bearHits,
	}
	if math.Abs(net) < o.kw.OverrideThreshold {
		return d
	}

	forced := models.LabelBullish
	triggering := bullMatches
	if net < 0 {
		forced = models.LabelBearish
		triggering = bearMatches
	}
	if forced == base {
		// evidence agrees with the model; nothing to replace
		return d
	}

	if !o.cooldown.Allow(ctx, symbol) {
		d.CooldownBlocked = true
		o.log.Debug("keyword override suppressed by cooldown",
			logger.String("symbol", symbol),
			logger.Float64("net_score", net))
		return d
	}

	d.Triggered = true
	d.Label = forced
	for _, m := range triggering {
		d.TriggeringKeywords = append(d.TriggeringKeywords, m.keyword)
	}
	o.log.Info("keyword override replaced label",
		logger.String("symbol", symbol),
		logger.String("label", string(forced)),
		logger.Float64("net_score", net),
		logger.Any("keywords", d.TriggeringKeywords))
	return d
}

// Reason renders the decision for the result's override reason field.
func Reason(d models.OverrideDecision) string {
	if !d.Triggered {
		return ""
	}
	return fmt.Sprintf("news keywords forced %s (net score %+.1f): %v",
		d.Label, d.NetScore, d.TriggeringKeywords)
}
