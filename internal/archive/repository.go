package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
)

// Sample query limits.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// Repository persists live samples to the local SQLite archive.
//
// The archive is a restart-surviving cache of what the live pipeline saw,
// subordinate to the persistent store: it exists so the dashboard has local
// history when the store is unreachable.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a sample repository on an open database.
//
// Parameters:
//   - db: Open SQLite connection (migrations already applied)
//
// Returns:
//   - *Repository: Repository instance ready for use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertSample stores one live reading.
//
// Timestamps are stored as RFC 3339 UTC text.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - reading: Reading to persist
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) InsertSample(ctx context.Context, reading airquality.Reading) error {
	if reading.Timestamp.IsZero() {
		return fmt.Errorf("sample timestamp is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensor_samples (recorded_at, aqi, temperature, humidity, raw_gas_index)
		 VALUES (?, ?, ?, ?, ?)`,
		reading.Timestamp.UTC().Format(time.RFC3339Nano),
		reading.AQI,
		reading.Temperature,
		reading.Humidity,
		reading.RawGasIndex,
	)
	if err != nil {
		return fmt.Errorf("inserting sample: %w", err)
	}

	return nil
}

// RecentSamples returns the most recent samples, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum samples to return (default 50, max 1000)
//
// Returns:
//   - []airquality.Reading: Samples ordered by recorded_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) RecentSamples(ctx context.Context, limit int) ([]airquality.Reading, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT recorded_at, aqi, temperature, humidity, raw_gas_index
		 FROM sensor_samples
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var out []airquality.Reading
	for rows.Next() {
		var (
			reading airquality.Reading
			ts      string
		)
		if err := rows.Scan(&ts, &reading.AQI, &reading.Temperature, &reading.Humidity, &reading.RawGasIndex); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		t, err := airquality.ParseTimestamp(ts)
		if err != nil {
			// Should not happen for rows we wrote; skip rather than fail the query.
			continue
		}
		reading.Timestamp = t
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}

	return out, nil
}

// Count returns the total number of archived samples.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensor_samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting samples: %w", err)
	}
	return n, nil
}
