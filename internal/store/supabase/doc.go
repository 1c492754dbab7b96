// Package supabase is the data source adapter for the persistent readings
// table.
//
// The store is the lossless historical record (the live MQTT path is lossy
// by design). Fetches are a single REST query — all columns, ordered by the
// synthetic id descending, limited — followed by shared normalization:
// defensive timestamp parsing, UTC-to-display-zone conversion, ascending
// sort. Every fetch failure is absorbed into an empty result; "no data yet"
// is a state the dashboard renders, not an error it crashes on.
package supabase
