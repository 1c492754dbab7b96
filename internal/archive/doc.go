// Package archive stores live sensor samples in the local SQLite database.
//
// Only samples that pass the meaningful-sample filter are archived, written
// by the poller on its cadence. The archive is a local cache; the remote
// store remains the lossless historical record.
package archive
