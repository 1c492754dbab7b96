package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mkalens/airwatch-core/internal/infrastructure/config"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return New(config.StoreConfig{
		URL:     serverURL,
		Key:     "test-key",
		Table:   "sensordata",
		Timeout: 5,
	}, "Asia/Kolkata", logging.Default())
}

const threeRows = `[
	{"id": 3, "created_at": "2024-01-01T00:02:00Z", "aqi": 30, "temperature": 25.0, "humidity": 50.0, "mq135": 300},
	{"id": 2, "created_at": "2024-01-01T00:01:00Z", "aqi": 20, "temperature": 24.0, "humidity": 51.0, "mq135": 200},
	{"id": 1, "created_at": "2024-01-01T00:00:00Z", "aqi": 10, "temperature": 23.0, "humidity": 52.0, "mq135": 100}
]`

// =============================================================================
// Successful fetches
// =============================================================================

func TestFetchRecent(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(threeRows)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	readings := c.FetchRecent(context.Background(), 50)

	if gotPath != "/rest/v1/sensordata" {
		t.Errorf("request path = %q, want /rest/v1/sensordata", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("apikey header = %q, want test-key", gotAPIKey)
	}
	for _, want := range []string{"order=id.desc", "limit=50", "select=%2A"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	if len(readings) != 3 {
		t.Fatalf("len = %d, want 3", len(readings))
	}

	// Normalized output is ascending by timestamp despite descending fetch order.
	for i, wantAQI := range []int{10, 20, 30} {
		if readings[i].AQI != wantAQI {
			t.Errorf("readings[%d].AQI = %d, want %d", i, readings[i].AQI, wantAQI)
		}
	}

	// Timestamps land in the display zone (UTC+5:30).
	if got := readings[0].Timestamp.Format("15:04:05"); got != "05:30:00" {
		t.Errorf("display timestamp = %s, want 05:30:00", got)
	}
	if readings[0].RawGasIndex != 100 {
		t.Errorf("RawGasIndex = %f, want 100 (mq135 column)", readings[0].RawGasIndex)
	}
}

func TestFetchRecentDropsUnparseableTimestamps(t *testing.T) {
	body := `[
		{"id": 2, "created_at": "garbage", "aqi": 999},
		{"id": 1, "created_at": "2024-01-01T00:00:00Z", "aqi": 10}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	readings := c.FetchRecent(context.Background(), 10)

	// The bad-timestamp row is dropped, never defaulted; the latest reading
	// is the maximum-timestamp survivor, not the first fetched row.
	if len(readings) != 1 {
		t.Fatalf("len = %d, want 1 (bad-timestamp row dropped)", len(readings))
	}
	if readings[0].AQI != 10 {
		t.Errorf("surviving AQI = %d, want 10", readings[0].AQI)
	}
}

func TestFetchRecentGasIndexPrecedence(t *testing.T) {
	body := `[
		{"id": 3, "created_at": "2024-01-01T00:02:00Z", "aqi": 30, "mq135": 150, "raw_gas_index": 200},
		{"id": 2, "created_at": "2024-01-01T00:01:00Z", "aqi": 20, "mq135": 150, "raw_gas_index": 0},
		{"id": 1, "created_at": "2024-01-01T00:00:00Z", "aqi": 10, "mq135": 150}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	readings := c.FetchRecent(context.Background(), 10)

	if len(readings) != 3 {
		t.Fatalf("len = %d, want 3", len(readings))
	}

	// Ascending order: id 1, 2, 3. A raw_gas_index of 0 must not shadow a
	// populated mq135; a nonzero one wins.
	if readings[0].RawGasIndex != 150 {
		t.Errorf("RawGasIndex = %f, want 150 (mq135 only)", readings[0].RawGasIndex)
	}
	if readings[1].RawGasIndex != 150 {
		t.Errorf("RawGasIndex = %f, want 150 (zero raw_gas_index ignored)", readings[1].RawGasIndex)
	}
	if readings[2].RawGasIndex != 200 {
		t.Errorf("RawGasIndex = %f, want 200 (raw_gas_index wins when nonzero)", readings[2].RawGasIndex)
	}
}

func TestFetchRecentIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(threeRows)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	first := c.FetchRecent(context.Background(), 50)
	second := c.FetchRecent(context.Background(), 50)

	if !reflect.DeepEqual(first, second) {
		t.Error("FetchRecent() not idempotent for identical store contents")
	}
}

// =============================================================================
// Failure absorption
// =============================================================================

func TestFetchRecentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if readings := c.FetchRecent(context.Background(), 50); len(readings) != 0 {
		t.Errorf("len = %d on HTTP 500, want 0", len(readings))
	}
}

func TestFetchRecentNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	c := newTestClient(t, server.URL)
	if readings := c.FetchRecent(context.Background(), 50); len(readings) != 0 {
		t.Errorf("len = %d on network error, want 0", len(readings))
	}
}

func TestFetchRecentSchemaMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error": "not an array"}`)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if readings := c.FetchRecent(context.Background(), 50); len(readings) != 0 {
		t.Errorf("len = %d on schema mismatch, want 0", len(readings))
	}
}

func TestFetchRecentEmptyTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if readings := c.FetchRecent(context.Background(), 50); len(readings) != 0 {
		t.Errorf("len = %d for empty table, want 0", len(readings))
	}
}

func TestFetchRecentZeroLimit(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")
	if readings := c.FetchRecent(context.Background(), 0); readings != nil {
		t.Errorf("FetchRecent(0) = %v, want nil", readings)
	}
}
