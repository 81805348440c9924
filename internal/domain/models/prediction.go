package models

import "time"

// Label is the directional call of a prediction.
type Label string

const (
	LabelBullish Label = "BULLISH"
	LabelBearish Label = "BEARISH"
)

// Direction of an expected correction move.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Severity buckets for correction warnings.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ComponentScores holds the six factor scores, each in [-1, 1].
type ComponentScores struct {
	Technical     float64
	Sentiment     float64
	GlobalMarkets float64
	Volume        float64
	Fundamentals  float64
	Intraday      float64
}

// Contributions holds score × weight per factor; their sum (plus any
// detector adjustment) is the composite score before calibration.
type Contributions struct {
	Technical     float64
	Sentiment     float64
	GlobalMarkets float64
	Volume        float64
	Fundamentals  float64
	Intraday      float64
}

func (c Contributions) Sum() float64 {
	return c.Technical + c.Sentiment + c.GlobalMarkets + c.Volume + c.Fundamentals + c.Intraday
}

// Signal is a trade-actionable flag derived from the final scores.
type Signal struct {
	Type     string // "BUY", "SELL", "WARNING", "OPPORTUNITY", "ALERT"
	Strength string // "STRONG", "MODERATE", "WEAK"
	Reason   string
}

// PredictionResult is the immutable output of one prediction run.
// Constructed fresh per request, never mutated after return.
type PredictionResult struct {
	Symbol          string
	Label           Label
	Probability     float64 // [0.55, 0.98]
	ExpectedPctMove float64 // [-7.0, 7.0]
	CurrentPrice    float64
	PreviousClose   float64
	TargetPrice     float64
	Scores          ComponentScores
	Contributions   Contributions
	Composite       float64
	TopReasons      []string // max 3, ordered by contribution magnitude
	Signals         []Signal
	Correction      *CorrectionWarning // nil when no pattern fired
	OverrideApplied bool
	OverrideReason  string
	ModelVersion    string
	GeneratedAt     time.Time
}

// PatternHit is one fired detector rule.
type PatternHit struct {
	Name       string
	Reason     string
	Confidence float64
	Action     string
}

// CorrectionWarning is emitted by the single-snapshot overbought/oversold
// detector. Absence means "no warning", not "zero risk".
type CorrectionWarning struct {
	Triggered         bool
	Direction         Direction
	Severity          Severity
	Score             float64 // [0, 100]
	Patterns          []PatternHit
	RecommendedAction string
}

// ReboundType classifies the multi-day drop/recovery detector output.
type ReboundType string

const (
	ReboundNone     ReboundType = "NONE"
	ReboundModerate ReboundType = "MODERATE"
	ReboundStrong   ReboundType = "STRONG"
)

// ReboundMetrics snapshots the inputs the rebound detector evaluated.
type ReboundMetrics struct {
	Price1D        float64
	Price3D        float64
	Price7D        float64
	AbsoluteDrop1D float64
	AbsoluteDrop3D float64
	Sentiment      float64
	NewsCount      int
}

// ReboundEvent is produced each time the detector runs against a symbol's
// latest price series. Confidence may exceed 100 (up to 150) when several
// strong patterns stack; callers clamp at the point of use.
type ReboundEvent struct {
	Symbol           string
	Patterns         []string
	Type             ReboundType
	Confidence       float64 // [0, 150]
	Metrics          ReboundMetrics
	InsufficientData bool
}
