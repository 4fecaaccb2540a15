// Package collision holds the immutable record model for a loaded
// traffic-collision dataset and the canonicalization rules for its
// categorical fields.
package collision

import (
	"time"

	"crashlens/domain/core"
)

// Dimension is one of the tracked categorical attributes of a collision.
// The set is closed: looking up a dimension outside it is a caller error,
// not a silent miss.
type Dimension string

const (
	DimBorough        Dimension = "borough"
	DimFactor1        Dimension = "factor1"
	DimFactor2        Dimension = "factor2"
	DimVehicleType    Dimension = "vehicleType"
	DimPreCrashAction Dimension = "preCrashAction"
	DimDriverSex      Dimension = "driverSex"
)

// Dimensions returns the canonical ordered set of tracked dimensions.
// The order is stable; callers rely on it for deterministic iteration.
func Dimensions() []Dimension {
	return []Dimension{
		DimBorough,
		DimFactor1,
		DimFactor2,
		DimVehicleType,
		DimPreCrashAction,
		DimDriverSex,
	}
}

// ParseDimension validates a dimension name against the recognized set
func ParseDimension(s string) (Dimension, error) {
	for _, d := range Dimensions() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", core.NewUnknownDimensionError(s)
}

// Label returns a human-readable dimension name for reports
func (d Dimension) Label() string {
	switch d {
	case DimBorough:
		return "Borough"
	case DimFactor1:
		return "Contributing Factor 1"
	case DimFactor2:
		return "Contributing Factor 2"
	case DimVehicleType:
		return "Vehicle Type"
	case DimPreCrashAction:
		return "Pre-Crash Action"
	case DimDriverSex:
		return "Driver Sex"
	}
	return string(d)
}

// Record is one collision event. Categorical fields hold normalized values;
// an empty string means the value is absent. Records are immutable once
// loaded: the analysis pipeline never writes to them.
type Record struct {
	Injured bool

	Date    time.Time
	HasDate bool
	// Hour is 0-23, or -1 when the crash time is unknown.
	Hour int
	// DayOfWeek is 0 (Sunday) through 6, or -1 when the date is unknown.
	DayOfWeek int

	Latitude  float64
	Longitude float64
	HasCoords bool

	Borough        string
	Factor1        string
	Factor2        string
	VehicleType    string
	PreCrashAction string
	DriverSex      string
}

// Category returns the record's normalized value for a dimension.
// The second return is false when the value is absent.
func (r Record) Category(d Dimension) (string, bool) {
	var v string
	switch d {
	case DimBorough:
		v = r.Borough
	case DimFactor1:
		v = r.Factor1
	case DimFactor2:
		v = r.Factor2
	case DimVehicleType:
		v = r.VehicleType
	case DimPreCrashAction:
		v = r.PreCrashAction
	case DimDriverSex:
		v = r.DriverSex
	}
	return v, v != ""
}

// DatasetStats are derived whole-dataset counts, never stored on records.
type DatasetStats struct {
	Total    int     `json:"total"`
	Injured  int     `json:"injured"`
	BaseRate float64 `json:"baseRate"`
}

// ComputeStats derives dataset-level counts and the baseline injury rate.
// An empty record set yields BaseRate 0.
func ComputeStats(records []Record) DatasetStats {
	s := DatasetStats{Total: len(records)}
	for _, r := range records {
		if r.Injured {
			s.Injured++
		}
	}
	if s.Total > 0 {
		s.BaseRate = float64(s.Injured) / float64(s.Total)
	}
	return s
}
