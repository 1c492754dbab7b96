package airquality

import "math"

// Severity is a named AQI range with an associated display color.
type Severity struct {
	Label string
	Color string
}

// severityBucket pairs an inclusive AQI upper bound with its severity.
type severityBucket struct {
	upperBound int
	severity   Severity
}

// severityScale is the ordered threshold table scanned for first match.
// Upper bounds are inclusive: aqi=50 is Good, aqi=51 is Moderate.
// Colors are the standard AQI band colors used by the dashboard gauge.
var severityScale = []severityBucket{
	{upperBound: 50, severity: Severity{Label: "Good", Color: "#00e400"}},
	{upperBound: 100, severity: Severity{Label: "Moderate", Color: "#ffff00"}},
	{upperBound: 150, severity: Severity{Label: "Poor", Color: "#ff7e00"}},
	{upperBound: 200, severity: Severity{Label: "Unhealthy", Color: "#ff0000"}},
	{upperBound: 300, severity: Severity{Label: "Very Unhealthy", Color: "#8f3f97"}},
	{upperBound: math.MaxInt, severity: Severity{Label: "Hazardous", Color: "#7e0023"}},
}

// Classify maps an AQI value to its severity bucket.
//
// Pure and total: exactly one bucket matches any integer. Negative input is
// not validated; the first bucket catches it by construction, and callers
// are expected to supply non-negative AQI values.
//
// Parameters:
//   - aqi: Air Quality Index value
//
// Returns:
//   - Severity: The matching label and display color
func Classify(aqi int) Severity {
	for _, bucket := range severityScale {
		if aqi <= bucket.upperBound {
			return bucket.severity
		}
	}
	// Unreachable: the final bucket's bound is MaxInt.
	return severityScale[len(severityScale)-1].severity
}
