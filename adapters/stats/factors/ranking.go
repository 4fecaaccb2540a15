// Package factors ranks (dimension, value) pairs by how strongly they
// separate injury outcomes from the rest of the dataset, using a 2x2
// chi-square test of independence.
package factors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

// Analyze builds the ranked factor list for the tracked dimensions.
//
// Each observed category value with at least params.MinGroupSize records is
// tested against "everyone else" in a 2x2 contingency table. Values whose
// complement is empty are skipped: there is nothing to compare against.
//
// Results are sorted by chi-square descending, ties broken by group size
// descending, and capped hard at params.TopN. Callers must not assume the
// list is complete.
func Analyze(records []collision.Record, dims []collision.Dimension, params risk.Params) []risk.FactorResult {
	stats := collision.ComputeStats(records)
	if stats.Total == 0 {
		return nil
	}

	var results []risk.FactorResult
	for _, dim := range dims {
		for value, g := range tally(records, dim) {
			if g.total < params.MinGroupSize {
				continue
			}
			otherSize := stats.Total - g.total
			if otherSize == 0 {
				continue
			}
			otherInjured := stats.Injured - g.injured

			a := g.injured                // group, injured
			b := g.total - g.injured      // group, not injured
			c := otherInjured             // others, injured
			d := otherSize - otherInjured // others, not injured

			chi2 := chiSquare2x2(a, b, c, d)
			results = append(results, risk.FactorResult{
				Dimension:    dim,
				Value:        value,
				GroupSize:    g.total,
				GroupInjured: g.injured,
				GroupRate:    float64(g.injured) / float64(g.total),
				OtherSize:    otherSize,
				OtherInjured: otherInjured,
				OtherRate:    float64(otherInjured) / float64(otherSize),
				RiskRatio:    riskRatio(g.injured, g.total, otherInjured, otherSize),
				ChiSquare:    chi2,
				PValue:       chiSquarePValue(chi2),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ChiSquare != results[j].ChiSquare {
			return results[i].ChiSquare > results[j].ChiSquare
		}
		return results[i].GroupSize > results[j].GroupSize
	})
	if len(results) > params.TopN {
		results = results[:params.TopN]
	}
	return results
}

type cellCount struct {
	total   int
	injured int
}

func tally(records []collision.Record, dim collision.Dimension) map[string]cellCount {
	groups := make(map[string]cellCount)
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

// chiSquare2x2 computes the chi-square statistic, without continuity
// correction, for the table [[a b] [c d]]. Cells whose expected count is
// <= 0 contribute 0; that only happens in degenerate all-or-nothing splits.
func chiSquare2x2(a, b, c, d int) float64 {
	observed := [2][2]float64{
		{float64(a), float64(b)},
		{float64(c), float64(d)},
	}
	rowTotals := [2]float64{observed[0][0] + observed[0][1], observed[1][0] + observed[1][1]}
	colTotals := [2]float64{observed[0][0] + observed[1][0], observed[0][1] + observed[1][1]}
	grand := rowTotals[0] + rowTotals[1]
	if grand == 0 {
		return 0
	}

	chi2 := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowTotals[i] * colTotals[j] / grand
			if expected <= 0 {
				continue
			}
			diff := observed[i][j] - expected
			chi2 += diff * diff / expected
		}
	}
	return chi2
}

// chiSquarePValue is the upper-tail probability for df=1. All 2x2 tables
// share one degree of freedom, so ordering by p-value would match ordering
// by statistic; the p-value is reported for display only.
func chiSquarePValue(chi2 float64) float64 {
	if chi2 <= 0 {
		return 1.0
	}
	dist := distuv.ChiSquared{K: 1}
	return 1 - dist.CDF(chi2)
}

// riskRatio is groupRate / otherRate. When the complement has no injuries,
// it is +Inf for an injured group and exactly 1 for an uninjured one.
func riskRatio(groupInjured, groupSize, otherInjured, otherSize int) float64 {
	groupRate := float64(groupInjured) / float64(groupSize)
	otherRate := float64(otherInjured) / float64(otherSize)
	if otherRate > 0 {
		return groupRate / otherRate
	}
	if groupRate > 0 {
		return math.Inf(1)
	}
	return 1
}
