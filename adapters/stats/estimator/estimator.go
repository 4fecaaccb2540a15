// Package estimator computes a single injury-risk estimate for a partial
// selection of category values, choosing between the exact-match group
// rate, a marginal-odds backoff, and a sample-size-weighted blend.
package estimator

import (
	"math"

	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

// Estimate computes the risk estimate for a selection.
//
// Dimensions absent from the selection are wildcards. A selection key
// outside the recognized dimension set is a caller error and returns
// core.ErrUnknownDimension; a selected value with no marginal entry is
// silently skipped. All statistical edge cases (no matches, empty record
// set, zero base rate) degrade to defined fallbacks rather than failing.
func Estimate(selection risk.Selection, records []collision.Record, marginals risk.MarginalSet, params risk.Params) (risk.Estimate, error) {
	if err := validate(selection); err != nil {
		return risk.Estimate{}, err
	}

	baseRate := marginals.BaseRate

	// Exact match: every selected dimension must equal the record's value.
	n, a := countMatches(selection, records)
	k := params.PriorStrength
	exactRate := (float64(a) + k*baseRate) / (float64(n) + k)

	// Backoff: multiply clamped marginal odds ratios onto the baseline odds.
	backoffRate, components, marginalN := backoff(selection, marginals, params)

	est := risk.Estimate{
		ExactMatchCount:   n,
		ExactMatchInjured: a,
		BaselineRate:      baseRate,
		Components:        components,
	}

	switch {
	case n >= params.ExactMatchThreshold:
		est.EstimatedRate = exactRate
		est.Method = risk.MethodExact
		est.EffectiveSampleSize = n
	case n > 0 && !math.IsNaN(backoffRate) && !math.IsInf(backoffRate, 0):
		w := float64(n) / (float64(n) + params.BlendPrior)
		est.EstimatedRate = w*exactRate + (1-w)*backoffRate
		est.Method = risk.MethodBlend
		est.EffectiveSampleSize = int(math.Round(float64(n) + (1-w)*params.BlendPrior))
	default:
		if math.IsNaN(backoffRate) || math.IsInf(backoffRate, 0) {
			est.EstimatedRate = baseRate
		} else {
			est.EstimatedRate = backoffRate
		}
		est.Method = risk.MethodBackoff
		est.EffectiveSampleSize = marginalN
	}

	if baseRate > 0 {
		est.RelativeRisk = est.EstimatedRate / baseRate
	} else {
		est.RelativeRisk = 1
	}
	return est, nil
}

func validate(selection risk.Selection) error {
	for dim := range selection {
		if _, err := collision.ParseDimension(string(dim)); err != nil {
			return err
		}
	}
	return nil
}

func countMatches(selection risk.Selection, records []collision.Record) (n, injured int) {
	for _, r := range records {
		if !matches(selection, r) {
			continue
		}
		n++
		if r.Injured {
			injured++
		}
	}
	return n, injured
}

func matches(selection risk.Selection, r collision.Record) bool {
	for dim, want := range selection {
		got, ok := r.Category(dim)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// backoff combines the selected values' marginal odds ratios, each clamped
// to [OddsClampLow, OddsClampHigh], onto the baseline odds and maps back to
// a rate through the logistic link. Components carry the raw unclamped
// odds ratios for explainability. Iteration follows the canonical dimension
// order so the component list is deterministic.
func backoff(selection risk.Selection, marginals risk.MarginalSet, params risk.Params) (float64, []risk.Component, int) {
	baselineOdds := marginals.BaseRate / max(params.Epsilon, 1-marginals.BaseRate)

	product := 1.0
	var components []risk.Component
	marginalN := 0
	for _, dim := range collision.Dimensions() {
		value, selected := selection[dim]
		if !selected {
			continue
		}
		entry, ok := marginals.Entry(dim, value)
		if !ok {
			continue
		}
		product *= clamp(entry.OddsRatio, params.OddsClampLow, params.OddsClampHigh)
		marginalN += entry.SampleSize
		components = append(components, risk.Component{
			Dimension:  dim,
			Value:      value,
			OddsRatio:  entry.OddsRatio,
			SampleSize: entry.SampleSize,
		})
	}

	combined := baselineOdds * product
	return combined / (1 + combined), components, marginalN
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
