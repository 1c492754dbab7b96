package airquality

import (
	"errors"
	"time"
)

// ErrUnparseableTimestamp indicates a source timestamp that matched no known
// layout. Callers drop the offending row rather than defaulting the time.
var ErrUnparseableTimestamp = errors.New("airquality: unparseable timestamp")

// timestampLayouts are tried in order when parsing store timestamps.
// The store emits RFC 3339 with varying precision; naive layouts (no zone
// suffix) also appear and are treated as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999", // naive with fractional seconds
	"2006-01-02T15:04:05",           // naive
	"2006-01-02 15:04:05",           // naive, space-separated
}

// ParseTimestamp parses a source timestamp string defensively.
//
// Zone-suffixed values keep their offset; naive values are localized to UTC.
// The result is always timezone-aware.
//
// Parameters:
//   - value: Raw timestamp string from the store or payload
//
// Returns:
//   - time.Time: Parsed timezone-aware timestamp
//   - error: ErrUnparseableTimestamp if no layout matches
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrUnparseableTimestamp
	}
	for _, layout := range timestampLayouts {
		// time.Parse yields UTC for layouts without zone information,
		// which is exactly the naive-means-UTC policy.
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, ErrUnparseableTimestamp
}

// ToDisplay converts a timestamp to the display timezone.
//
// If loc is nil the timestamp is returned unchanged (fall back to the parsed
// time rather than failing the whole page).
func ToDisplay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
