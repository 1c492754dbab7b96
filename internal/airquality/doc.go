// Package airquality holds the domain model for AirWatch Core: the sensor
// Reading type, the AQI severity scale, and defensive timestamp handling.
//
// The severity scale is a data-driven ordered table of inclusive upper
// bounds rather than a conditional ladder, so bands are easy to test and
// extend. Only AQI drives severity; the raw gas index is an independent
// metric.
package airquality
