// Package api provides the HTTP REST API for AirWatch Core.
//
// It exposes the dashboard's three views as read-only JSON endpoints:
//
//	GET /api/v1/live      — latest reading, severity, transport state, trend series
//	GET /api/v1/history   — recent readings from the historical store
//	GET /api/v1/forecast  — placeholder (coming soon)
//	GET /api/v1/health    — component health
//	GET /api/v1/metrics   — runtime and ingestion counters
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Handlers never block on ingestion: they read atomic mailbox snapshots and
// copied buffer snapshots, so a slow HTTP client cannot stall the pipeline.
package api
