package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashlens/adapters/stats/marginals"
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/domain/risk"
)

func boroughGroup(records []collision.Record, borough, vehicle string, n, injured int) []collision.Record {
	for i := 0; i < n; i++ {
		records = append(records, collision.Record{
			Injured: i < injured,
			Hour:    -1, DayOfWeek: -1,
			Borough:     borough,
			VehicleType: vehicle,
		})
	}
	return records
}

func TestEstimate_ExactMethod(t *testing.T) {
	var records []collision.Record
	records = boroughGroup(records, "Bronx", "Sedan", 100, 40)
	records = boroughGroup(records, "Queens", "Sedan", 300, 60)

	params := risk.DefaultParams()
	set := marginals.Build(records, collision.Dimensions(), params)

	est, err := Estimate(risk.Selection{collision.DimBorough: "Bronx"}, records, set, params)
	require.NoError(t, err)

	assert.Equal(t, risk.MethodExact, est.Method)
	assert.Equal(t, 100, est.ExactMatchCount)
	assert.Equal(t, 40, est.ExactMatchInjured)
	assert.Equal(t, 100, est.EffectiveSampleSize)

	baseRate := set.BaseRate
	wantRate := (40.0 + 50*baseRate) / (100.0 + 50)
	assert.InDelta(t, wantRate, est.EstimatedRate, 1e-12)
	assert.InDelta(t, wantRate/baseRate, est.RelativeRisk, 1e-12)
}

func TestEstimate_BlendMethod(t *testing.T) {
	var records []collision.Record
	// Bronx motorcycles are rare: 10 matches, under the exact threshold.
	records = boroughGroup(records, "Bronx", "Motorcycle", 10, 6)
	records = boroughGroup(records, "Bronx", "Sedan", 200, 40)
	records = boroughGroup(records, "Queens", "Sedan", 400, 60)

	params := risk.DefaultParams()
	set := marginals.Build(records, collision.Dimensions(), params)

	sel := risk.Selection{
		collision.DimBorough:     "Bronx",
		collision.DimVehicleType: "Motorcycle",
	}
	est, err := Estimate(sel, records, set, params)
	require.NoError(t, err)

	assert.Equal(t, risk.MethodBlend, est.Method)
	assert.Equal(t, 10, est.ExactMatchCount)

	// w = 10/60; nEff = round(10 + (1-w)*50)
	w := 10.0 / 60.0
	assert.Equal(t, int(math.Round(10+(1-w)*50)), est.EffectiveSampleSize)
	assert.Len(t, est.Components, 2)
}

func TestEstimate_BackoffMethod(t *testing.T) {
	// Hand-built marginals: one selected dimension with raw odds ratio 3.0
	// (inside the clamp) and zero exact matches.
	set := risk.MarginalSet{
		BaseRate: 0.1,
		PerDimension: map[collision.Dimension]map[string]risk.MarginalEntry{
			collision.DimVehicleType: {
				"Motorcycle": {SampleSize: 500, InjuredSize: 125, ShrunkRate: 0.25, OddsRatio: 3.0},
			},
		},
	}
	params := risk.DefaultParams()

	sel := risk.Selection{collision.DimVehicleType: "Motorcycle"}
	est, err := Estimate(sel, nil, set, params)
	require.NoError(t, err)

	assert.Equal(t, risk.MethodBackoff, est.Method)
	assert.Equal(t, 0, est.ExactMatchCount)
	assert.Equal(t, 500, est.EffectiveSampleSize)

	// combined odds = baselineOdds * 3.0; rate = odds/(1+odds)
	baselineOdds := 0.1 / 0.9
	wantOdds := baselineOdds * 3.0
	assert.InDelta(t, wantOdds/(1+wantOdds), est.EstimatedRate, 1e-12)
	assert.Greater(t, est.EstimatedRate, set.BaseRate)

	require.Len(t, est.Components, 1)
	assert.Equal(t, 3.0, est.Components[0].OddsRatio)
}

func TestEstimate_OddsClamp(t *testing.T) {
	set := risk.MarginalSet{
		BaseRate: 0.1,
		PerDimension: map[collision.Dimension]map[string]risk.MarginalEntry{
			collision.DimFactor1: {
				"Extreme": {SampleSize: 40, InjuredSize: 39, ShrunkRate: 0.9, OddsRatio: 100.0},
			},
			collision.DimFactor2: {
				"Benign": {SampleSize: 40, InjuredSize: 1, ShrunkRate: 0.01, OddsRatio: 0.01},
			},
		},
	}
	params := risk.DefaultParams()

	t.Run("upper clamp", func(t *testing.T) {
		est, err := Estimate(risk.Selection{collision.DimFactor1: "Extreme"}, nil, set, params)
		require.NoError(t, err)

		baselineOdds := 0.1 / 0.9
		wantOdds := baselineOdds * 4.0 // clamped from 100
		assert.InDelta(t, wantOdds/(1+wantOdds), est.EstimatedRate, 1e-12)
		// Components keep the raw value for explainability.
		require.Len(t, est.Components, 1)
		assert.Equal(t, 100.0, est.Components[0].OddsRatio)
	})

	t.Run("lower clamp", func(t *testing.T) {
		est, err := Estimate(risk.Selection{collision.DimFactor2: "Benign"}, nil, set, params)
		require.NoError(t, err)

		baselineOdds := 0.1 / 0.9
		wantOdds := baselineOdds * 0.25 // clamped from 0.01
		assert.InDelta(t, wantOdds/(1+wantOdds), est.EstimatedRate, 1e-12)
	})
}

func TestEstimate_UnknownMarginalSkipped(t *testing.T) {
	set := risk.MarginalSet{BaseRate: 0.1, PerDimension: map[collision.Dimension]map[string]risk.MarginalEntry{}}
	params := risk.DefaultParams()

	est, err := Estimate(risk.Selection{collision.DimBorough: "Atlantis"}, nil, set, params)
	require.NoError(t, err)
	assert.Equal(t, risk.MethodBackoff, est.Method)
	assert.Empty(t, est.Components)
	// No factors applied: the backoff collapses to the base rate.
	assert.InDelta(t, 0.1, est.EstimatedRate, 1e-12)
}

func TestEstimate_EmptyDataset(t *testing.T) {
	params := risk.DefaultParams()
	set := marginals.Build(nil, collision.Dimensions(), params)

	est, err := Estimate(risk.Selection{}, nil, set, params)
	require.NoError(t, err)

	assert.Equal(t, risk.MethodBackoff, est.Method)
	assert.Equal(t, 0.0, est.EstimatedRate)
	assert.Equal(t, 1.0, est.RelativeRisk)
}

func TestEstimate_UnknownDimensionIsCallerError(t *testing.T) {
	params := risk.DefaultParams()
	set := marginals.Build(nil, collision.Dimensions(), params)

	_, err := Estimate(risk.Selection{collision.Dimension("weather"): "Rain"}, nil, set, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownDimension)
}

func TestEstimate_MethodBoundaries(t *testing.T) {
	params := risk.DefaultParams()

	t.Run("exactly at threshold uses exact", func(t *testing.T) {
		var records []collision.Record
		records = boroughGroup(records, "Bronx", "Sedan", 30, 10)
		records = boroughGroup(records, "Queens", "Sedan", 100, 20)
		set := marginals.Build(records, collision.Dimensions(), params)

		est, err := Estimate(risk.Selection{collision.DimBorough: "Bronx"}, records, set, params)
		require.NoError(t, err)
		assert.Equal(t, risk.MethodExact, est.Method)
	})

	t.Run("one under threshold blends", func(t *testing.T) {
		var records []collision.Record
		records = boroughGroup(records, "Bronx", "Sedan", 29, 10)
		records = boroughGroup(records, "Queens", "Sedan", 100, 20)
		set := marginals.Build(records, collision.Dimensions(), params)

		est, err := Estimate(risk.Selection{collision.DimBorough: "Bronx"}, records, set, params)
		require.NoError(t, err)
		assert.Equal(t, risk.MethodBlend, est.Method)
	})
}
