package ingest

import (
	"sync"
	"time"
)

// DefaultTrendCapacity is the number of samples retained for the live trend.
const DefaultTrendCapacity = 50

// TrendPoint is one entry in the live trend history.
//
// The label, not the payload, distinguishes samples: a repeated identical
// reading appended on a later tick is a new point with a new label.
type TrendPoint struct {
	Time        time.Time `json:"time"`
	Label       string    `json:"label"`
	AQI         int       `json:"aqi"`
	RawGasIndex float64   `json:"raw_gas_index"`
}

// TrendBuffer is a fixed-capacity FIFO of recent trend points.
//
// The oldest entry is evicted on overflow, so length never exceeds capacity.
// FIFO order is display order (oldest to newest). The poller is the only
// writer; the mutex exists so HTTP handlers can take consistent snapshots.
type TrendBuffer struct {
	mu       sync.Mutex
	capacity int
	points   []TrendPoint
}

// NewTrendBuffer creates a buffer with the given capacity.
// Non-positive capacities fall back to DefaultTrendCapacity.
func NewTrendBuffer(capacity int) *TrendBuffer {
	if capacity <= 0 {
		capacity = DefaultTrendCapacity
	}
	return &TrendBuffer{
		capacity: capacity,
		points:   make([]TrendPoint, 0, capacity),
	}
}

// Append adds a point, evicting the oldest entry if the buffer is full.
// No deduplication is performed.
func (b *TrendBuffer) Append(p TrendPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.points) >= b.capacity {
		// Shift rather than reslice so the backing array never grows.
		copy(b.points, b.points[1:])
		b.points = b.points[:len(b.points)-1]
	}
	b.points = append(b.points, p)
}

// Snapshot returns a copy of the buffered points, oldest first.
func (b *TrendBuffer) Snapshot() []TrendPoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]TrendPoint, len(b.points))
	copy(out, b.points)
	return out
}

// Len returns the current number of buffered points.
func (b *TrendBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}
