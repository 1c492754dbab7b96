// Package config loads and validates AirWatch Core configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (AIRWATCH_SECTION_KEY pattern). Validation runs at load time; a missing
// store URL or key is a fatal startup error, because the historical data
// source cannot function without credentials.
package config
