// Package scoring combines the questionnaire base score and the weighted model
// score into the single final compliance score.
package scoring

import "github.com/shopspring/decimal"

// Weights are the aggregation constants. MaxBase (100) plus ModelMax (20)
// times ModelWeight (2.5) gives the 150-point raw ceiling normalized onto the
// 0–100 display scale.
type Weights struct {
	ModelWeight float64
	Denominator float64
}

// DefaultWeights returns the production weighting scheme.
func DefaultWeights() Weights {
	return Weights{ModelWeight: 2.5, Denominator: 150}
}

// Aggregator computes final scores. It is pure: no I/O, no state beyond the
// injected weights.
type Aggregator struct {
	weights Weights
}

func NewAggregator(w Weights) *Aggregator {
	return &Aggregator{weights: w}
}

// Final maps (scoreBase, scoreModelRaw) onto the 0–100 scale, rounded half-up
// to two decimal places. Callers pass scoreModelRaw = 0 when the use case has
// no assigned model.
func (a *Aggregator) Final(scoreBase, scoreModelRaw float64) float64 {
	raw := decimal.NewFromFloat(scoreBase).
		Add(decimal.NewFromFloat(scoreModelRaw).Mul(decimal.NewFromFloat(a.weights.ModelWeight)))
	final := raw.Div(decimal.NewFromFloat(a.weights.Denominator)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := final.Float64()
	return f
}
