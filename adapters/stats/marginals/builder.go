// Package marginals computes per-category injury statistics with
// empirical-Bayes shrinkage toward the dataset base rate.
package marginals

import (
	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

// Build computes the full marginal set for the tracked dimensions.
//
// Group rates are shrunk as (a + k*baseRate) / (n + k) with k =
// params.PriorStrength, pulling small groups toward the population mean.
// Odds ratios are floored with params.Epsilon so a rate of exactly 1 cannot
// divide by zero.
//
// An empty record set yields BaseRate 0 and empty per-dimension maps; it is
// not an error. Build is pure: same inputs, same output, no caching.
func Build(records []collision.Record, dims []collision.Dimension, params risk.Params) risk.MarginalSet {
	stats := collision.ComputeStats(records)

	set := risk.MarginalSet{
		BaseRate:     stats.BaseRate,
		PerDimension: make(map[collision.Dimension]map[string]risk.MarginalEntry, len(dims)),
	}
	baselineOdds := odds(stats.BaseRate, params.Epsilon)

	for _, dim := range dims {
		groups := groupCounts(records, dim)
		entries := make(map[string]risk.MarginalEntry, len(groups))
		for value, g := range groups {
			k := params.PriorStrength
			// n + k > 0 always holds: k defaults to 50 and groups only
			// exist for n >= 1.
			shrunk := (float64(g.injured) + k*stats.BaseRate) / (float64(g.total) + k)
			entries[value] = risk.MarginalEntry{
				SampleSize:  g.total,
				InjuredSize: g.injured,
				ShrunkRate:  shrunk,
				OddsRatio:   odds(shrunk, params.Epsilon) / max(params.Epsilon, baselineOdds),
			}
		}
		set.PerDimension[dim] = entries
	}
	return set
}

type groupCount struct {
	total   int
	injured int
}

// groupCounts tallies records per normalized category value. Absent values
// do not form a category.
func groupCounts(records []collision.Record, dim collision.Dimension) map[string]groupCount {
	groups := make(map[string]groupCount)
	for _, r := range records {
		v, ok := r.Category(dim)
		if !ok {
			continue
		}
		g := groups[v]
		g.total++
		if r.Injured {
			g.injured++
		}
		groups[v] = g
	}
	return groups
}

// odds converts a probability to odds with an epsilon floor on 1-rate.
func odds(rate, epsilon float64) float64 {
	return rate / max(epsilon, 1-rate)
}
