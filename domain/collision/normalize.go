package collision

import "strings"

// Sentinel labels the source data uses for "value not recorded".
var absentSentinels = map[string]struct{}{
	"":            {},
	"NA":          {},
	"Unknown":     {},
	"Unspecified": {},
}

// Normalize canonicalizes a raw categorical string. Whitespace is trimmed
// and sentinel "unknown" labels map to absent. The returned value is never
// an empty string when ok is true. Idempotent: normalizing an already
// normalized value returns it unchanged.
func Normalize(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if _, absent := absentSentinels[v]; absent {
		return "", false
	}
	return v, true
}

// NormalizeDriverSex expands the single-letter codes used in person-level
// source data. Other non-absent values pass through verbatim.
func NormalizeDriverSex(raw string) (string, bool) {
	v, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	switch v {
	case "M":
		return "Male", true
	case "F":
		return "Female", true
	}
	return v, true
}

// NormalizeVehicleType folds the source data's many SUV spellings
// ("station wagon/sport utility vehicle", "SPORT UTILITY", "suv", ...)
// into the single canonical label "SUV". Other labels pass through verbatim.
func NormalizeVehicleType(raw string) (string, bool) {
	v, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	lower := strings.ToLower(v)
	switch {
	case strings.Contains(lower, "station wagon"),
		strings.Contains(lower, "sport utility"),
		strings.Contains(lower, "sport-utility"),
		strings.Contains(lower, "suv"),
		strings.Contains(lower, "sport") && strings.Contains(lower, "utility"):
		return "SUV", true
	}
	return v, true
}

// NormalizeFor applies the dimension-specific normalizer.
func NormalizeFor(d Dimension, raw string) (string, bool) {
	switch d {
	case DimDriverSex:
		return NormalizeDriverSex(raw)
	case DimVehicleType:
		return NormalizeVehicleType(raw)
	}
	return Normalize(raw)
}
