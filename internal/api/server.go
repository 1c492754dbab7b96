package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/infrastructure/config"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
	"github.com/mkalens/airwatch-core/internal/ingest"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HistorySource serves the historical readings view.
// Satisfied by *supabase.Client; its error absorption means handlers only
// ever see a (possibly empty) slice.
type HistorySource interface {
	FetchRecent(ctx context.Context, limit int) []airquality.Reading
}

// SampleArchive is the local archive surface the API reads: recent samples
// for the history fallback and the sample count for health/metrics.
// Satisfied by *archive.Repository.
type SampleArchive interface {
	RecentSamples(ctx context.Context, limit int) ([]airquality.Reading, error)
	Count(ctx context.Context) (int, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Mailbox  *ingest.Mailbox
	Listener *ingest.Listener
	Trend    *ingest.TrendBuffer
	Poller   *ingest.Poller
	History  HistorySource
	Archive  SampleArchive  // may be nil
	Location *time.Location // display zone for archive fallback rows, may be nil
	Version  string
}

// Server is the HTTP API server for AirWatch Core.
//
// It exposes the live reading, the rolling trend, historical readings, and
// operational health as JSON. The server is created with New() and started
// with Start().
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	mailbox   *ingest.Mailbox
	listener  *ingest.Listener
	trend     *ingest.TrendBuffer
	poller    *ingest.Poller
	history   HistorySource
	archive   SampleArchive
	loc       *time.Location
	version   string
	startTime time.Time
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, ingestion handles, history source)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Mailbox == nil || deps.Trend == nil {
		return nil, fmt.Errorf("mailbox and trend buffer are required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("history source is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		mailbox:   deps.Mailbox,
		listener:  deps.Listener,
		trend:     deps.Trend,
		poller:    deps.Poller,
		history:   deps.History,
		archive:   deps.Archive,
		loc:       deps.Location,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
