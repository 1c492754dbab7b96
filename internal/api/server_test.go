package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/infrastructure/config"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
	"github.com/mkalens/airwatch-core/internal/ingest"
)

// fakeHistory returns a canned slice of readings.
type fakeHistory struct {
	readings  []airquality.Reading
	lastLimit int
}

func (f *fakeHistory) FetchRecent(_ context.Context, limit int) []airquality.Reading {
	f.lastLimit = limit
	return f.readings
}

// fakeArchive returns canned archive samples and a canned count.
type fakeArchive struct {
	samples    []airquality.Reading
	samplesErr error
	queried    bool

	n        int
	countErr error
}

func (f *fakeArchive) RecentSamples(_ context.Context, _ int) ([]airquality.Reading, error) {
	f.queried = true
	return f.samples, f.samplesErr
}

func (f *fakeArchive) Count(context.Context) (int, error) {
	return f.n, f.countErr
}

// fakeSubscriber satisfies ingest.Subscriber without a broker.
type fakeSubscriber struct{}

func (f *fakeSubscriber) Subscribe(string, byte, func(string, []byte) error) error { return nil }
func (f *fakeSubscriber) SetOnConnect(func())                                      {}
func (f *fakeSubscriber) SetOnDisconnect(func(error))                              {}
func (f *fakeSubscriber) IsConnected() bool                                        { return true }

// testServer builds a server around the given fakes and returns it with
// its router and mailbox for direct manipulation.
func testServer(t *testing.T, history HistorySource, archive SampleArchive) (*Server, http.Handler, *ingest.Mailbox) {
	t.Helper()

	logger := logging.Default()
	mailbox := ingest.NewMailbox()
	trend := ingest.NewTrendBuffer(ingest.DefaultTrendCapacity)

	listener := ingest.NewListener(&fakeSubscriber{}, mailbox, "airwatch/sensors/readings", 1, logger)
	if err := listener.Start(); err != nil {
		t.Fatalf("listener.Start() error = %v", err)
	}

	poller := ingest.NewPoller(ingest.PollerDeps{
		Mailbox:  mailbox,
		Buffer:   trend,
		Interval: time.Second,
		Logger:   logger,
	})

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 8080},
		Logger:   logger,
		Mailbox:  mailbox,
		Listener: listener,
		Trend:    trend,
		Poller:   poller,
		History:  history,
		Archive:  archive,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return srv, srv.buildRouter(), mailbox
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response: %v\nbody: %s", err, rec.Body.String())
	}
}

// =============================================================================
// Constructor validation
// =============================================================================

func TestNewMissingDeps(t *testing.T) {
	_, err := New(Deps{})
	if err == nil {
		t.Fatal("New() expected error for missing dependencies")
	}
}

// =============================================================================
// Live view
// =============================================================================

func TestHandleLiveBeforeFirstMessage(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	rec := get(t, router, "/api/v1/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp LiveResponse
	decode(t, rec, &resp)

	if resp.Reading != nil {
		t.Errorf("Reading = %+v, want nil before first message", resp.Reading)
	}
	if resp.Severity != nil {
		t.Errorf("Severity = %+v, want nil before first message", resp.Severity)
	}
	if resp.State != "subscribed" {
		t.Errorf("State = %q, want %q", resp.State, "subscribed")
	}
	if len(resp.Trend) != 0 {
		t.Errorf("len(Trend) = %d, want 0", len(resp.Trend))
	}
}

func TestHandleLiveWithReading(t *testing.T) {
	_, router, mailbox := testServer(t, &fakeHistory{}, nil)

	mailbox.Put(airquality.Reading{
		Timestamp:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		AQI:         42,
		Temperature: 24.5,
		Humidity:    55,
		RawGasIndex: 120,
	})

	rec := get(t, router, "/api/v1/live")

	var resp LiveResponse
	decode(t, rec, &resp)

	if resp.Reading == nil {
		t.Fatal("Reading = nil, want populated")
	}
	if resp.Reading.AQI != 42 {
		t.Errorf("Reading.AQI = %d, want 42", resp.Reading.AQI)
	}
	if resp.Severity == nil {
		t.Fatal("Severity = nil, want populated")
	}
	if resp.Severity.Label != "Good" {
		t.Errorf("Severity.Label = %q, want %q", resp.Severity.Label, "Good")
	}
	if resp.Severity.Color != "#00e400" {
		t.Errorf("Severity.Color = %q, want %q", resp.Severity.Color, "#00e400")
	}
}

func TestHandleLiveNilListener(t *testing.T) {
	logger := logging.Default()
	mailbox := ingest.NewMailbox()
	trend := ingest.NewTrendBuffer(0)

	srv, err := New(Deps{
		Logger:  logger,
		Mailbox: mailbox,
		Trend:   trend,
		History: &fakeHistory{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := get(t, srv.buildRouter(), "/api/v1/live")

	var resp LiveResponse
	decode(t, rec, &resp)

	if resp.State != "disconnected" {
		t.Errorf("State = %q, want %q", resp.State, "disconnected")
	}
}

// =============================================================================
// History view
// =============================================================================

func TestHandleHistory(t *testing.T) {
	history := &fakeHistory{readings: []airquality.Reading{
		{AQI: 40}, {AQI: 55},
	}}
	_, router, _ := testServer(t, history, nil)

	rec := get(t, router, "/api/v1/history")

	var resp HistoryResponse
	decode(t, rec, &resp)

	if resp.Count != 2 {
		t.Errorf("Count = %d, want 2", resp.Count)
	}
	if resp.NoData {
		t.Error("NoData = true, want false")
	}
	if history.lastLimit != defaultHistoryLimit {
		t.Errorf("limit = %d, want %d", history.lastLimit, defaultHistoryLimit)
	}
}

func TestHandleHistoryEmpty(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	rec := get(t, router, "/api/v1/history")

	var resp HistoryResponse
	decode(t, rec, &resp)

	if !resp.NoData {
		t.Error("NoData = false, want true")
	}
	if resp.Readings == nil {
		t.Error("Readings = null, want empty array")
	}
}

func TestHandleHistoryLimitCapped(t *testing.T) {
	history := &fakeHistory{}
	_, router, _ := testServer(t, history, nil)

	rec := get(t, router, "/api/v1/history?limit=5000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if history.lastLimit != maxHistoryLimit {
		t.Errorf("limit = %d, want capped to %d", history.lastLimit, maxHistoryLimit)
	}
}

func TestHandleHistoryInvalidLimit(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	for _, raw := range []string{"abc", "0", "-5"} {
		rec := get(t, router, "/api/v1/history?limit="+raw)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestHandleHistoryArchiveFallback(t *testing.T) {
	// Archive rows arrive newest first; the view must come back ascending.
	archive := &fakeArchive{samples: []airquality.Reading{
		{Timestamp: time.Date(2026, 1, 10, 12, 5, 0, 0, time.UTC), AQI: 60},
		{Timestamp: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), AQI: 45},
	}}
	_, router, _ := testServer(t, &fakeHistory{}, archive)

	rec := get(t, router, "/api/v1/history")

	var resp HistoryResponse
	decode(t, rec, &resp)

	if resp.NoData {
		t.Error("NoData = true, want false when archive has samples")
	}
	if resp.Source != "archive" {
		t.Errorf("Source = %q, want %q", resp.Source, "archive")
	}
	if resp.Count != 2 {
		t.Fatalf("Count = %d, want 2", resp.Count)
	}
	if resp.Readings[0].AQI != 45 || resp.Readings[1].AQI != 60 {
		t.Errorf("readings = [%d %d], want ascending [45 60]",
			resp.Readings[0].AQI, resp.Readings[1].AQI)
	}
}

func TestHandleHistoryArchiveAlsoEmpty(t *testing.T) {
	archive := &fakeArchive{}
	_, router, _ := testServer(t, &fakeHistory{}, archive)

	rec := get(t, router, "/api/v1/history")

	var resp HistoryResponse
	decode(t, rec, &resp)

	if !archive.queried {
		t.Error("archive not consulted despite empty store result")
	}
	if !resp.NoData {
		t.Error("NoData = false, want true")
	}
	if resp.Source != "store" {
		t.Errorf("Source = %q, want %q", resp.Source, "store")
	}
}

func TestHandleHistoryStoreDataSkipsArchive(t *testing.T) {
	archive := &fakeArchive{samples: []airquality.Reading{{AQI: 99}}}
	history := &fakeHistory{readings: []airquality.Reading{{AQI: 40}}}
	_, router, _ := testServer(t, history, archive)

	rec := get(t, router, "/api/v1/history")

	var resp HistoryResponse
	decode(t, rec, &resp)

	if archive.queried {
		t.Error("archive consulted despite store returning readings")
	}
	if resp.Source != "store" {
		t.Errorf("Source = %q, want %q", resp.Source, "store")
	}
	if resp.Count != 1 || resp.Readings[0].AQI != 40 {
		t.Errorf("readings = %+v, want the store's single reading", resp.Readings)
	}
}

func TestHandleHistoryArchiveFallbackError(t *testing.T) {
	archive := &fakeArchive{samplesErr: errors.New("database locked")}
	_, router, _ := testServer(t, &fakeHistory{}, archive)

	rec := get(t, router, "/api/v1/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (archive errors degrade to empty)", rec.Code)
	}

	var resp HistoryResponse
	decode(t, rec, &resp)
	if !resp.NoData {
		t.Error("NoData = false, want true when fallback fails")
	}
}

// =============================================================================
// Forecast placeholder
// =============================================================================

func TestHandleForecast(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	rec := get(t, router, "/api/v1/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	decode(t, rec, &resp)
	if resp["status"] != "coming_soon" {
		t.Errorf("status = %q, want %q", resp["status"], "coming_soon")
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHandleHealth(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, &fakeArchive{n: 7})

	rec := get(t, router, "/api/v1/health")

	var resp HealthResponse
	decode(t, rec, &resp)

	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
	if resp.Components["mqtt"] != "subscribed" {
		t.Errorf("mqtt = %q, want %q", resp.Components["mqtt"], "subscribed")
	}
	if resp.Components["archive"] != "ok" {
		t.Errorf("archive = %q, want %q", resp.Components["archive"], "ok")
	}
}

func TestHandleHealthArchiveError(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, &fakeArchive{countErr: errors.New("disk full")})

	rec := get(t, router, "/api/v1/health")

	var resp HealthResponse
	decode(t, rec, &resp)

	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want %q", resp.Status, "degraded")
	}
	if resp.Components["archive"] != "error" {
		t.Errorf("archive = %q, want %q", resp.Components["archive"], "error")
	}
}

func TestHandleHealthNoArchive(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	rec := get(t, router, "/api/v1/health")

	var resp HealthResponse
	decode(t, rec, &resp)

	if resp.Components["archive"] != "disabled" {
		t.Errorf("archive = %q, want %q", resp.Components["archive"], "disabled")
	}
}

// =============================================================================
// Metrics
// =============================================================================

func TestHandleMetrics(t *testing.T) {
	_, router, mailbox := testServer(t, &fakeHistory{}, &fakeArchive{n: 3})

	mailbox.Put(airquality.Reading{AQI: 60})

	rec := get(t, router, "/api/v1/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SystemMetrics
	decode(t, rec, &resp)

	if resp.Version != "test" {
		t.Errorf("Version = %q, want %q", resp.Version, "test")
	}
	if resp.Runtime.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want >= 1", resp.Runtime.Goroutines)
	}
	if resp.Ingest.State != "subscribed" {
		t.Errorf("Ingest.State = %q, want %q", resp.Ingest.State, "subscribed")
	}
	if !resp.Archive.Enabled {
		t.Error("Archive.Enabled = false, want true")
	}
	if resp.Archive.Samples != 3 {
		t.Errorf("Archive.Samples = %d, want 3", resp.Archive.Samples)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func TestRequestIDHeader(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	rec := get(t, router, "/api/v1/forecast")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestCORSPreflight(t *testing.T) {
	_, router, _ := testServer(t, &fakeHistory{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/live", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Errorf("Access-Control-Allow-Origin = %q, want request origin", got)
	}
}
