// Package patterns implements the correction and rebound detectors as
// prioritized rule lists: each rule is a (predicate, effect) pair evaluated
// top-to-bottom against the same input, accumulating evidence and a running
// score. Rules are independently unit-testable.
package patterns

import (
	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
)

// correctionInput is the single-snapshot view the correction rules read.
type correctionInput struct {
	RSI         float64
	BBPosition  float64
	MACDHist    float64
	Change1D    float64
	Change3D    float64
	Change7D    float64
	VolumeRatio float64
	Det         config.Detector
}

// correctionRule fires at most once per evaluation. A nil hit means the
// predicate did not hold.
type correctionRule struct {
	name  string
	apply func(in correctionInput) *correctionHit
}

type correctionHit struct {
	direction models.Direction
	severity  float64
	reason    string
	action    string
}

// reboundInput is the multi-day view the rebound rules read. AbsDrop1D is
// the qualifying dollar drop; FollowPct is the movement since that drop.
type reboundInput struct {
	Price1D     float64
	Price3D     float64
	Price7D     float64
	AbsDrop1D   float64
	AbsDrop3D   float64
	FollowPct   float64
	LastClose   float64
	RSI         float64
	VolumeRatio float64
	Sentiment   float64
	NewsCount   int
	Det         config.Detector
}

type reboundRule struct {
	name  string
	apply func(in reboundInput) (float64, bool)
}
