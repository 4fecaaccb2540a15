package marginals

import (
	"math"
	"testing"

	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

// injuredGroup appends n records carrying value for dim, injured of them
// flagged as injury crashes.
func injuredGroup(records []collision.Record, dim collision.Dimension, value string, n, injured int) []collision.Record {
	for i := 0; i < n; i++ {
		r := collision.Record{Injured: i < injured, Hour: -1, DayOfWeek: -1}
		switch dim {
		case collision.DimBorough:
			r.Borough = value
		case collision.DimVehicleType:
			r.VehicleType = value
		case collision.DimFactor1:
			r.Factor1 = value
		}
		records = append(records, r)
	}
	return records
}

func TestBuild_ShrinkageScenario(t *testing.T) {
	// 1000 records, 100 injured: baseRate 0.1. Category with n=40, a=20
	// must shrink to (20 + 50*0.1) / (40 + 50) = 25/90.
	var records []collision.Record
	records = injuredGroup(records, collision.DimBorough, "Hotspot", 40, 20)
	records = injuredGroup(records, collision.DimBorough, "Elsewhere", 960, 80)

	set := Build(records, []collision.Dimension{collision.DimBorough}, risk.DefaultParams())

	if set.BaseRate != 0.1 {
		t.Fatalf("base rate = %f, want 0.1", set.BaseRate)
	}
	entry, ok := set.Entry(collision.DimBorough, "Hotspot")
	if !ok {
		t.Fatal("missing Hotspot entry")
	}
	want := 25.0 / 90.0
	if math.Abs(entry.ShrunkRate-want) > 1e-12 {
		t.Errorf("shrunk rate = %.10f, want %.10f", entry.ShrunkRate, want)
	}
	if entry.SampleSize != 40 || entry.InjuredSize != 20 {
		t.Errorf("counts = %d/%d, want 40/20", entry.SampleSize, entry.InjuredSize)
	}
}

func TestBuild_ShrinkageLimits(t *testing.T) {
	t.Run("small group pulled to base rate", func(t *testing.T) {
		var records []collision.Record
		records = injuredGroup(records, collision.DimBorough, "Tiny", 1, 1)
		records = injuredGroup(records, collision.DimBorough, "Big", 999, 99)

		set := Build(records, []collision.Dimension{collision.DimBorough}, risk.DefaultParams())
		entry, _ := set.Entry(collision.DimBorough, "Tiny")

		// n=1 with k=50: far closer to the base rate than to the raw 1.0.
		if math.Abs(entry.ShrunkRate-set.BaseRate) > 0.05 {
			t.Errorf("tiny group rate %f strayed from base rate %f", entry.ShrunkRate, set.BaseRate)
		}
	})

	t.Run("large group approaches raw rate", func(t *testing.T) {
		var records []collision.Record
		records = injuredGroup(records, collision.DimBorough, "Huge", 100000, 50000)

		// Huge is the whole dataset here, so base rate equals its raw rate;
		// add a contrast group to move the base rate away.
		records = injuredGroup(records, collision.DimBorough, "Calm", 1000, 10)

		set := Build(records, []collision.Dimension{collision.DimBorough}, risk.DefaultParams())
		entry, _ := set.Entry(collision.DimBorough, "Huge")
		if math.Abs(entry.ShrunkRate-0.5) > 0.001 {
			t.Errorf("large group rate %f should approach raw 0.5", entry.ShrunkRate)
		}
	})
}

func TestBuild_EmptyInput(t *testing.T) {
	set := Build(nil, collision.Dimensions(), risk.DefaultParams())
	if set.BaseRate != 0 {
		t.Errorf("empty input base rate = %f, want 0", set.BaseRate)
	}
	for dim, entries := range set.PerDimension {
		if len(entries) != 0 {
			t.Errorf("dimension %s has %d entries on empty input", dim, len(entries))
		}
	}
}

func TestBuild_AbsentValuesFormNoCategory(t *testing.T) {
	records := []collision.Record{
		{Injured: true, Hour: -1, DayOfWeek: -1},                     // no borough
		{Injured: false, Hour: -1, DayOfWeek: -1, Borough: "Queens"}, // one category
	}
	set := Build(records, []collision.Dimension{collision.DimBorough}, risk.DefaultParams())
	if len(set.PerDimension[collision.DimBorough]) != 1 {
		t.Errorf("expected exactly one borough category, got %v", set.PerDimension[collision.DimBorough])
	}
}

func TestBuild_OddsRatioFinite(t *testing.T) {
	// An all-injured group would have rate near 1; the epsilon floor must
	// keep the odds ratio finite and positive.
	var records []collision.Record
	records = injuredGroup(records, collision.DimBorough, "Grim", 100, 100)
	records = injuredGroup(records, collision.DimBorough, "Fine", 100, 10)

	set := Build(records, []collision.Dimension{collision.DimBorough}, risk.DefaultParams())
	entry, _ := set.Entry(collision.DimBorough, "Grim")
	if math.IsInf(entry.OddsRatio, 0) || math.IsNaN(entry.OddsRatio) || entry.OddsRatio <= 0 {
		t.Errorf("odds ratio must be finite and positive, got %f", entry.OddsRatio)
	}
	if entry.OddsRatio <= 1 {
		t.Errorf("all-injured group should have odds ratio > 1, got %f", entry.OddsRatio)
	}
}
