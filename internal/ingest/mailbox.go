package ingest

import (
	"sync/atomic"

	"github.com/mkalens/airwatch-core/internal/airquality"
)

// Mailbox is a single-slot, overwrite-on-write handoff between the MQTT
// listener and the poller.
//
// Semantics: capacity one, last write wins, non-blocking on both sides.
// The listener replaces the slot atomically on every message; the poller
// reads whatever is currently present, including stale data. Intermediate
// values arriving faster than the poll cadence are silently lost, which is
// acceptable for a live gauge (the lossless history comes from the store).
//
// Thread Safety:
//   - Put and Snapshot are safe for concurrent use. The slot is an atomic
//     pointer swap, so a reader can never observe a torn reading.
type Mailbox struct {
	slot atomic.Pointer[airquality.Reading]
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Put replaces the slot with the given reading.
func (m *Mailbox) Put(r airquality.Reading) {
	m.slot.Store(&r)
}

// Snapshot returns the current slot contents.
//
// The returned reading is always fully formed: before the first Put it is
// the zero Reading with ok=false. Each call takes exactly one snapshot;
// callers must not re-read mid-computation.
//
// Returns:
//   - airquality.Reading: Last written reading, or zero value
//   - bool: false until the first Put
func (m *Mailbox) Snapshot() (airquality.Reading, bool) {
	p := m.slot.Load()
	if p == nil {
		return airquality.Reading{}, false
	}
	return *p, true
}
