package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/services/engine"
	"StockPulse/internal/services/newswatch"
	"StockPulse/internal/services/patterns"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

const historyDays = 30

// Predictor runs the scoring pipeline: validate features, score the six
// factors, aggregate, let the pattern detector adjust the composite, derive
// the target, and give the keyword override the last word.
type Predictor struct {
	cfg      *config.Config
	rebound  *patterns.Detector
	override *newswatch.Override
	history  domrepo.HistoryStore
	storage  domrepo.Storage    // optional
	pub      domrepo.Publisher  // optional
	jobs     queue.QueueService // optional, moves persistence off the request path
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewPredictor(cfg *config.Config, rebound *patterns.Detector, override *newswatch.Override,
	history domrepo.HistoryStore, storage domrepo.Storage, pub domrepo.Publisher,
	metrics domrepo.Metrics, log *logger.Logger) *Predictor {
	return &Predictor{
		cfg:      cfg,
		rebound:  rebound,
		override: override,
		history:  history,
		storage:  storage,
		pub:      pub,
		metrics:  metrics,
		log:      log,
	}
}

var _ domsvc.Engine = (*Predictor)(nil)

// SetJobQueue routes persistence through the queue instead of writing inline.
func (p *Predictor) SetJobQueue(q queue.QueueService) { p.jobs = q }

func (p *Predictor) Predict(ctx context.Context, in domsvc.PredictionInput) (*models.PredictionResult, error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordLatency("predict", time.Since(start).Seconds())
	}()

	if in.Symbol == "" {
		return nil, fmt.Errorf("predict: symbol is required")
	}

	bars := in.Bars
	if len(bars) == 0 && p.history != nil {
		var err error
		bars, err = p.history.GetDailyBars(ctx, in.Symbol, historyDays)
		if err != nil {
			p.log.Warn("history unavailable, pattern detector will see no bars",
				logger.String("symbol", in.Symbol), logger.Error(err))
			p.metrics.RecordError("history_fetch")
		}
	}

	f := engine.Validate(in.Features)
	fallback := !engine.Sufficient(in.Features)
	model := p.cfg.Model

	var scores models.ComponentScores
	var contribs models.Contributions
	var composite float64
	if fallback {
		composite = engine.Fallback(f)
	} else {
		scores = engine.ScoreAll(f)
		contribs = engine.Contributions(scores, model.Weights)
		composite = contribs.Sum()
	}

	warning := patterns.DetectCorrection(f, p.cfg.Detector)
	if warning != nil {
		composite = patterns.AdjustComposite(composite, warning, p.cfg.Detector)
		for _, hit := range warning.Patterns {
			p.metrics.RecordPatternFire(hit.Name)
		}
	}

	rebound := p.rebound.DetectRebound(in.Symbol, bars, f)
	if boost := patterns.ReboundBoost(rebound, p.cfg.Detector); boost > 0 {
		composite += boost
		for _, name := range rebound.Patterns {
			p.metrics.RecordPatternFire(name)
		}
	}

	label := engine.LabelFor(composite)
	multiplier := f.Get("volatility_multiplier", 1.0)
	prob := engine.Calibrate(composite, scores, multiplier, model)
	if fallback {
		prob = engine.FallbackCap(prob)
	}

	prevClose := f.Get("previous_close", 0)
	if prevClose == 0 && len(bars) > 0 {
		prevClose = bars[len(bars)-1].Close
	}
	move := engine.ExpectedMove(prob, label, multiplier, model)

	version := model.Version
	if fallback {
		version += "-fallback"
	}
	result := &models.PredictionResult{
		Symbol:          in.Symbol,
		Label:           label,
		Probability:     prob,
		ExpectedPctMove: move,
		CurrentPrice:    f.Get("current_price", 0),
		PreviousClose:   prevClose,
		TargetPrice:     engine.TargetPrice(prevClose, move),
		Scores:          scores,
		Contributions:   contribs,
		Composite:       composite,
		TopReasons:      engine.TopReasons(scores, contribs),
		Correction:      warning,
		ModelVersion:    version,
		GeneratedAt:     time.Now().UTC(),
	}

	if decision := p.override.Evaluate(ctx, in.Symbol, in.Articles, label); decision.Triggered {
		result.Label = decision.Label
		result.OverrideApplied = true
		result.OverrideReason = newswatch.Reason(decision)
		// magnitude stands, direction follows the forced label
		result.ExpectedPctMove = engine.ExpectedMove(prob, decision.Label, multiplier, model)
		result.TargetPrice = engine.TargetPrice(prevClose, result.ExpectedPctMove)
		p.metrics.RecordOverride(in.Symbol)
	}

	result.Signals = engine.Signals(result, &rebound)
	p.metrics.RecordPrediction(in.Symbol, string(result.Label))

	p.persist(ctx, result)
	return result, nil
}

// Rebound evaluates only the drop/recovery detector for a symbol, with
// features derived from stored daily bars.
func (p *Predictor) Rebound(ctx context.Context, symbol string) (models.ReboundEvent, error) {
	bars, err := p.history.GetDailyBars(ctx, symbol, historyDays)
	if err != nil {
		return models.ReboundEvent{}, fmt.Errorf("rebound %s: %w", symbol, err)
	}
	f := engine.Validate(featuresFromBars(bars))
	return p.rebound.DetectRebound(symbol, bars, f), nil
}

// Correction evaluates only the overbought/oversold detector for a symbol.
// A nil warning means no pattern fired.
func (p *Predictor) Correction(ctx context.Context, symbol string) (*models.CorrectionWarning, error) {
	bars, err := p.history.GetDailyBars(ctx, symbol, historyDays)
	if err != nil {
		return nil, fmt.Errorf("correction %s: %w", symbol, err)
	}
	f := engine.Validate(featuresFromBars(bars))
	return patterns.DetectCorrection(f, p.cfg.Detector), nil
}

func (p *Predictor) persist(ctx context.Context, r *models.PredictionResult) {
	if p.jobs != nil {
		err := p.jobs.PublishMessage(ctx, TypePredictionStore, r)
		if err == nil {
			return
		}
		// fall through to inline writes so the result is not lost
		p.log.Warn("enqueue prediction failed, writing inline",
			logger.String("symbol", r.Symbol), logger.Error(err))
	}
	if p.storage != nil {
		if err := p.storage.Store(ctx, r); err != nil {
			p.log.Error("store prediction", logger.String("symbol", r.Symbol), logger.Error(err))
			p.metrics.RecordError("storage")
		}
	}
	if p.pub != nil {
		if err := p.pub.Publish(ctx, r); err != nil {
			p.log.Error("publish prediction", logger.String("symbol", r.Symbol), logger.Error(err))
			p.metrics.RecordError("publish")
		}
	}
}

// featuresFromBars derives the price-action features the detectors need
// when the caller supplied no feature set of its own.
func featuresFromBars(bars []models.PriceBar) models.FeatureSet {
	f := models.NewFeatureSet()
	n := len(bars)
	if n == 0 {
		return f
	}
	last := bars[n-1]
	f.Values["current_price"] = last.Close
	f.Values["previous_close"] = last.Close
	if n >= 2 {
		f.Values["price_change_1d"] = pct(bars[n-2].Close, last.Close)
	}
	if n >= 4 {
		f.Values["price_change_3d"] = pct(bars[n-4].Close, last.Close)
	}
	if n >= 8 {
		f.Values["price_change_7d"] = pct(bars[n-8].Close, last.Close)
	}
	if n >= 21 {
		sum := 0.0
		for _, b := range bars[n-21 : n-1] {
			sum += b.Volume
		}
		if avg := sum / 20; avg > 0 {
			f.Values["volume_ratio"] = last.Volume / avg
		}
	}
	return f
}

func pct(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
