// Package aggregate produces the counting aggregates the dashboard's
// heatmap, map, and hourly-profile renderers consume. It is pure tallying:
// the statistical outputs of the marginals/factors/estimator packages are
// never re-derived here.
package aggregate

import (
	"math"

	"github.com/montanaflynn/stats"

	"crashlens/domain/collision"
)

// HeatmapCell is one dayOfWeek x hour bucket.
type HeatmapCell struct {
	Count   int `json:"count"`
	Injured int `json:"injured"`
}

// Heatmap buckets records by day of week (rows, 0=Sunday) and hour of day
// (columns). Records with an unknown day or hour are left out.
func Heatmap(records []collision.Record) [7][24]HeatmapCell {
	var grid [7][24]HeatmapCell
	for _, r := range records {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 || r.Hour < 0 || r.Hour > 23 {
			continue
		}
		cell := &grid[r.DayOfWeek][r.Hour]
		cell.Count++
		if r.Injured {
			cell.Injured++
		}
	}
	return grid
}

// GeoCell is one lat/lon grid bucket for the density map.
type GeoCell struct {
	Lat        float64 `json:"lat"` // cell center
	Lon        float64 `json:"lon"`
	Count      int     `json:"count"`
	Injured    int     `json:"injured"`
	InjuryRate float64 `json:"rate"`
}

// GeoGrid bins coordinate-bearing records into square cells of cellDeg
// degrees. Cells are keyed by their center so renderers can place them
// directly. Records without coordinates are left out.
func GeoGrid(records []collision.Record, cellDeg float64) []GeoCell {
	if cellDeg <= 0 {
		cellDeg = 0.005
	}
	type key struct{ latIdx, lonIdx int }
	cells := make(map[key]*GeoCell)
	var order []key

	for _, r := range records {
		if !r.HasCoords {
			continue
		}
		k := key{
			latIdx: int(math.Floor(r.Latitude / cellDeg)),
			lonIdx: int(math.Floor(r.Longitude / cellDeg)),
		}
		cell, ok := cells[k]
		if !ok {
			cell = &GeoCell{
				Lat: (float64(k.latIdx) + 0.5) * cellDeg,
				Lon: (float64(k.lonIdx) + 0.5) * cellDeg,
			}
			cells[k] = cell
			order = append(order, k)
		}
		cell.Count++
		if r.Injured {
			cell.Injured++
		}
	}

	out := make([]GeoCell, 0, len(order))
	for _, k := range order {
		c := cells[k]
		if c.Count > 0 {
			c.InjuryRate = float64(c.Injured) / float64(c.Count)
		}
		out = append(out, *c)
	}
	return out
}

// HourBucket is one hour-of-day bucket.
type HourBucket struct {
	Hour    int `json:"hour"`
	Count   int `json:"count"`
	Injured int `json:"injured"`
}

// HourlySummary describes the shape of the hourly count distribution.
type HourlySummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Peak   int     `json:"peakHour"`
}

// HourlyProfile tallies records per hour of day and summarizes the
// distribution of hourly counts. Records with an unknown hour are left out.
func HourlyProfile(records []collision.Record) ([24]HourBucket, HourlySummary) {
	var buckets [24]HourBucket
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, r := range records {
		if r.Hour < 0 || r.Hour > 23 {
			continue
		}
		buckets[r.Hour].Count++
		if r.Injured {
			buckets[r.Hour].Injured++
		}
	}

	counts := make([]float64, 24)
	peak := 0
	for h, b := range buckets {
		counts[h] = float64(b.Count)
		if b.Count > buckets[peak].Count {
			peak = h
		}
	}

	// The stats helpers only error on empty input; a fixed 24-slot series
	// never is.
	mean, _ := stats.Mean(counts)
	median, _ := stats.Median(counts)
	stdDev, _ := stats.StandardDeviation(counts)

	return buckets, HourlySummary{Mean: mean, Median: median, StdDev: stdDev, Peak: peak}
}
