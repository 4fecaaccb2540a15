// Package risk defines the result types and tuning parameters shared by the
// marginal-statistics builder, the factor ranking engine, and the risk
// estimator. All types are plain values; every analysis call returns a
// fresh result and the inputs are never mutated.
package risk

import (
	"encoding/json"
	"math"

	"crashlens/domain/collision"
)

// Params collects the tuning constants of the statistical pipeline.
// Everything is overridable so tests can run against small synthetic
// datasets; production callers use DefaultParams.
type Params struct {
	// PriorStrength is the empirical-Bayes pseudo-count k: group rates are
	// shrunk as (a + k*baseRate) / (n + k).
	PriorStrength float64 `json:"priorStrength"`
	// MinGroupSize suppresses factor results for groups smaller than this.
	MinGroupSize int `json:"minGroupSize"`
	// TopN is a hard cap on the number of ranked factors returned.
	TopN int `json:"topN"`
	// OddsClampLow/High bound each marginal odds ratio applied in the
	// backoff product, so one sparse category cannot dominate the estimate.
	OddsClampLow  float64 `json:"oddsClampLow"`
	OddsClampHigh float64 `json:"oddsClampHigh"`
	// ExactMatchThreshold is the minimum exact-match count for the
	// estimator to trust the matched group rate outright.
	ExactMatchThreshold int `json:"exactMatchThreshold"`
	// BlendPrior weights the blend between exact and backoff estimates:
	// w = n / (n + BlendPrior).
	BlendPrior float64 `json:"blendPrior"`
	// Epsilon floors denominators in odds computations.
	Epsilon float64 `json:"-"`
}

// DefaultParams returns the production tuning constants.
func DefaultParams() Params {
	return Params{
		PriorStrength:       50,
		MinGroupSize:        30,
		TopN:                15,
		OddsClampLow:        0.25,
		OddsClampHigh:       4.0,
		ExactMatchThreshold: 30,
		BlendPrior:          50,
		Epsilon:             1e-9,
	}
}

// MarginalEntry holds per-category statistics for one observed value of one
// dimension.
//
// ShrunkRate is monotonic in a/n for fixed n and converges to the dataset
// base rate as n approaches 0.
type MarginalEntry struct {
	SampleSize  int     `json:"n"`
	InjuredSize int     `json:"injured"`
	ShrunkRate  float64 `json:"rate"`
	OddsRatio   float64 `json:"oddsRatio"`
}

// MarginalSet is the marginal-statistics builder's full output. It is
// rebuilt whole whenever the underlying record set changes.
type MarginalSet struct {
	BaseRate     float64                                           `json:"baseRate"`
	PerDimension map[collision.Dimension]map[string]MarginalEntry `json:"perDimension"`
}

// Entry looks up the marginal entry for a (dimension, value) pair.
func (m MarginalSet) Entry(d collision.Dimension, value string) (MarginalEntry, bool) {
	values, ok := m.PerDimension[d]
	if !ok {
		return MarginalEntry{}, false
	}
	e, ok := values[value]
	return e, ok
}

// FactorResult is one ranked (dimension, value) factor with its 2x2
// contingency statistics against the rest of the dataset. Field names on
// the wire follow what the bar-chart renderer expects.
type FactorResult struct {
	Dimension    collision.Dimension `json:"factor"`
	Value        string              `json:"value"`
	GroupSize    int                 `json:"n"`
	GroupInjured int                 `json:"injured"`
	GroupRate    float64             `json:"rate"`
	OtherSize    int                 `json:"otherN"`
	OtherInjured int                 `json:"otherInjured"`
	OtherRate    float64             `json:"otherRate"`
	// RiskRatio is deliberately unclamped: ranking wants the raw signal,
	// unlike the estimator's clamped backoff product.
	RiskRatio float64 `json:"rr"`
	ChiSquare float64 `json:"chi2"`
	// PValue is the df=1 chi-square tail probability. Informational only;
	// ranking and tie-breaks never consult it.
	PValue float64 `json:"pValue"`
}

// MarshalJSON emits an infinite risk ratio as null: JSON has no Inf, and
// the renderers treat null as "off the scale".
func (f FactorResult) MarshalJSON() ([]byte, error) {
	type plain FactorResult
	var rr *float64
	if !math.IsInf(f.RiskRatio, 0) && !math.IsNaN(f.RiskRatio) {
		v := f.RiskRatio
		rr = &v
	}
	return json.Marshal(struct {
		plain
		RiskRatio *float64 `json:"rr"`
	}{plain(f), rr})
}

// Selection is the user's partial choice of dimension values. A dimension
// absent from the map is a wildcard.
type Selection map[collision.Dimension]string

// Method names which estimation path produced an Estimate.
type Method string

const (
	MethodExact   Method = "exact"
	MethodBlend   Method = "blend"
	MethodBackoff Method = "backoff"
)

// Component is one marginal factor actually applied during backoff.
// OddsRatio is the raw marginal value, before clamping, for explainability.
type Component struct {
	Dimension  collision.Dimension `json:"dimension"`
	Value      string              `json:"value"`
	OddsRatio  float64             `json:"oddsRatio"`
	SampleSize int                 `json:"n"`
}

// Estimate is the risk estimator's output for one selection.
type Estimate struct {
	ExactMatchCount     int         `json:"n"`
	ExactMatchInjured   int         `json:"injured"`
	EstimatedRate       float64     `json:"rate"`
	BaselineRate        float64     `json:"baseRate"`
	RelativeRisk        float64     `json:"rr"`
	Method              Method      `json:"method"`
	Components          []Component `json:"components"`
	EffectiveSampleSize int         `json:"nEff"`
}
