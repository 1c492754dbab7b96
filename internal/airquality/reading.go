package airquality

import (
	"sort"
	"time"
)

// Reading is a single air-quality sensor sample.
//
// RawGasIndex carries the uncalibrated MQ-135 sensor value. It is kept as a
// separate metric and never feeds severity classification; only AQI does.
type Reading struct {
	// Timestamp is always timezone-aware. Rows whose source timestamp cannot
	// be parsed are dropped upstream, never defaulted.
	Timestamp   time.Time `json:"timestamp"`
	AQI         int       `json:"aqi"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	RawGasIndex float64   `json:"raw_gas_index"`
}

// Meaningful reports whether the reading carries real sensor data.
//
// Before the first message arrives a live slot holds all-zero values; those
// startup placeholders must not pollute the trend history. A reading counts
// as meaningful when either the AQI or the raw gas value is positive.
func (r Reading) Meaningful() bool {
	return r.AQI > 0 || r.RawGasIndex > 0
}

// SortAscending orders readings oldest-first by timestamp, in place.
// This is display order for trend charts.
func SortAscending(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// Latest returns the reading with the maximum timestamp, or false when the
// slice is empty. The fetch order from the store cannot be trusted for this:
// rows with unparseable timestamps may have been dropped.
func Latest(readings []Reading) (Reading, bool) {
	if len(readings) == 0 {
		return Reading{}, false
	}
	latest := readings[0]
	for _, r := range readings[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return latest, true
}
