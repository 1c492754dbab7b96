// Package ingest implements the live-data pipeline: a single-slot mailbox
// fed by the MQTT listener, a fixed-cadence poller, and a bounded rolling
// trend buffer.
//
// # Concurrency model
//
// Exactly two logical actors touch shared state. The listener (driven by the
// transport client's goroutines) writes the mailbox and nothing else; the
// poller reads the mailbox and owns the trend buffer. The mailbox is an
// atomic pointer swap with last-write-wins semantics: no locks, no queue,
// no backpressure. Messages arriving faster than the poll cadence are
// dropped silently, a deliberately accepted staleness window for a live
// gauge. Lossless history comes from the persistent store instead.
package ingest
