package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mkalens/airwatch-core/internal/airquality"
)

// maxResponseSize caps a fetch response body (guards against a misbehaving
// endpoint streaming unbounded data).
const maxResponseSize = 10 << 20 // 10 MB

// row mirrors one record of the readings table. The creation timestamp
// column carries the semantic reading time; mq135 is the legacy column name
// for the raw gas index.
type row struct {
	ID          int64    `json:"id"`
	CreatedAt   string   `json:"created_at"`
	AQI         float64  `json:"aqi"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	MQ135       *float64 `json:"mq135"`
	RawGasIndex *float64 `json:"raw_gas_index"`
}

// FetchRecent returns the most recent readings, normalized and sorted
// ascending by timestamp (display order).
//
// The query orders by the synthetic id column descending and truncates to
// limit; normalization then parses timestamps defensively (rows with
// missing or unparseable timestamps are dropped), converts to the display
// timezone, and sorts ascending. The latest reading is therefore the
// maximum-timestamp row, not necessarily the first fetched one.
//
// FetchRecent never fails: every error (network, HTTP status, schema,
// decode) is absorbed and logged, and an empty slice is returned. Callers
// treat empty as "no data yet".
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum number of rows to fetch
//
// Returns:
//   - []airquality.Reading: Normalized readings, oldest first; possibly empty
func (c *Client) FetchRecent(ctx context.Context, limit int) []airquality.Reading {
	if limit <= 0 {
		return nil
	}

	rows, err := c.queryRecent(ctx, limit)
	if err != nil {
		c.logger.Warn("store fetch failed, returning no data",
			"table", c.table,
			"limit", limit,
			"error", err,
		)
		return nil
	}

	return c.normalize(rows)
}

// queryRecent performs the single REST query against the readings table.
func (c *Client) queryRecent(ctx context.Context, limit int) ([]row, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "id.desc")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, c.table, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query failed: HTTP %d", resp.StatusCode)
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}

	return rows, nil
}

// normalize converts raw rows to readings: defensive timestamp parse (drop
// the row on failure), display-zone conversion, ascending sort.
func (c *Client) normalize(rows []row) []airquality.Reading {
	readings := make([]airquality.Reading, 0, len(rows))
	dropped := 0

	for _, r := range rows {
		ts, err := airquality.ParseTimestamp(r.CreatedAt)
		if err != nil {
			dropped++
			continue
		}

		// raw_gas_index wins over the legacy mq135 column only when it
		// carries a real value; a zero must not shadow a populated mq135.
		rawGas := 0.0
		if r.MQ135 != nil {
			rawGas = *r.MQ135
		}
		if r.RawGasIndex != nil && *r.RawGasIndex != 0 {
			rawGas = *r.RawGasIndex
		}

		readings = append(readings, airquality.Reading{
			Timestamp:   airquality.ToDisplay(ts, c.displayLoc),
			AQI:         int(r.AQI),
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			RawGasIndex: rawGas,
		})
	}

	if dropped > 0 {
		c.logger.Warn("dropped rows with unparseable timestamps",
			"table", c.table,
			"dropped", dropped,
		)
	}

	airquality.SortAscending(readings)
	return readings
}
