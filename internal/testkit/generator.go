// Package testkit generates deterministic synthetic collision datasets
// with planted categorical effects, for tests and for running the server
// without a real data file.
package testkit

import (
	"math/rand"
	"time"

	"crashlens/adapters/stats/memo"
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/ports"
)

// GeneratorConfig configures the synthetic collision generator
type GeneratorConfig struct {
	RecordCount  int       `json:"record_count"`
	BaseRate     float64   `json:"base_rate"`
	StartDate    time.Time `json:"start_date"`
	Days         int       `json:"days"`
	Seed         int64     `json:"seed"`
	CoordsOrigin [2]float64
}

// DefaultConfig returns defaults that plant detectable effects:
// motorcycles carry a strongly elevated injury rate, SUVs a mildly
// protective one, and the Bronx a moderate elevation. Late-night hours
// skew toward injury.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		RecordCount:  5000,
		BaseRate:     0.22,
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:         180,
		Seed:         42,
		CoordsOrigin: [2]float64{40.71, -73.98},
	}
}

// Generator produces synthetic collision records
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a generator; same config, same records.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var (
	boroughs = []string{"Brooklyn", "Queens", "Manhattan", "Bronx", "Staten Island"}
	factors  = []string{
		"Driver Inattention/Distraction", "Failure to Yield Right-of-Way",
		"Following Too Closely", "Backing Unsafely", "Passing Too Closely",
		"Unsafe Speed", "Traffic Control Disregarded", "Alcohol Involvement",
	}
	vehicleTypes = []string{"Sedan", "SUV", "Taxi", "Pick-up Truck", "Box Truck", "Bike", "Motorcycle", "Bus"}
	preCrash     = []string{"Going Straight Ahead", "Making Left Turn", "Making Right Turn", "Changing Lanes", "Backing", "Stopped in Traffic"}
	sexes        = []string{"Male", "Female"}
)

// Generate produces the full synthetic record set.
func (g *Generator) Generate() []collision.Record {
	records := make([]collision.Record, 0, g.config.RecordCount)
	for i := 0; i < g.config.RecordCount; i++ {
		records = append(records, g.record())
	}
	return records
}

func (g *Generator) record() collision.Record {
	day := g.rng.Intn(g.config.Days)
	hour := g.hour()
	date := g.config.StartDate.AddDate(0, 0, day)

	rec := collision.Record{
		Date:      date,
		HasDate:   true,
		Hour:      hour,
		DayOfWeek: int(date.Weekday()),

		Borough:        pick(g.rng, boroughs),
		Factor1:        pick(g.rng, factors),
		VehicleType:    pick(g.rng, vehicleTypes),
		PreCrashAction: pick(g.rng, preCrash),
		DriverSex:      pick(g.rng, sexes),
	}
	// Second contributing factor present on roughly a third of records.
	if g.rng.Float64() < 0.35 {
		rec.Factor2 = pick(g.rng, factors)
	}
	// Some fields go unrecorded, as in the real export.
	if g.rng.Float64() < 0.10 {
		rec.Borough = ""
	}
	if g.rng.Float64() < 0.05 {
		rec.VehicleType = ""
	}

	rec.Latitude = g.config.CoordsOrigin[0] + (g.rng.Float64()-0.5)*0.3
	rec.Longitude = g.config.CoordsOrigin[1] + (g.rng.Float64()-0.5)*0.3
	rec.HasCoords = true

	rec.Injured = g.rng.Float64() < g.injuryRate(rec)
	return rec
}

// hour draws from a distribution weighted toward rush hours and late night.
func (g *Generator) hour() int {
	h := g.rng.Intn(24)
	if g.rng.Float64() < 0.4 {
		peaks := []int{8, 9, 16, 17, 18, 23, 0, 1}
		h = peaks[g.rng.Intn(len(peaks))]
	}
	return h
}

// injuryRate plants the effects the statistical pipeline should recover.
func (g *Generator) injuryRate(rec collision.Record) float64 {
	rate := g.config.BaseRate
	switch rec.VehicleType {
	case "Motorcycle", "Bike":
		rate *= 2.4
	case "SUV":
		rate *= 0.8
	}
	if rec.Borough == "Bronx" {
		rate *= 1.3
	}
	if rec.Factor1 == "Alcohol Involvement" || rec.Factor2 == "Alcohol Involvement" {
		rate *= 1.6
	}
	if rec.Hour >= 23 || rec.Hour <= 2 {
		rate *= 1.2
	}
	if rate > 0.95 {
		rate = 0.95
	}
	return rate
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

// Source adapts the generator to ports.RecordSource so entrypoints can run
// without a real data file.
type Source struct {
	Config GeneratorConfig
}

// Load implements ports.RecordSource.
func (s Source) Load() ([]collision.Record, ports.LoadReport, error) {
	records := NewGenerator(s.Config).Generate()
	return records, ports.LoadReport{
		DatasetID:   core.DatasetID(core.NewID()),
		Path:        "synthetic",
		RowsRead:    len(records),
		Fingerprint: memo.FingerprintRecords(records),
	}, nil
}
