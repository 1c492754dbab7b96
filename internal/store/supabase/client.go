package supabase

import (
	"net/http"
	"strings"
	"time"

	"github.com/mkalens/airwatch-core/internal/infrastructure/config"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
)

// defaultTimeout bounds a fetch when the config does not set one.
const defaultTimeout = 10 * time.Second

// Client queries the backend-as-a-service readings table over its REST
// interface. The table is treated as an opaque data source: one filtered,
// ordered, limited query per fetch, authenticated with the project key.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	table      string
	displayLoc *time.Location
	logger     *logging.Logger
}

// New creates a store client from configuration.
//
// The display timezone is resolved here once; if it cannot be loaded the
// client falls back to leaving timestamps in their parsed zone (readings
// are never dropped over a display conversion failure).
//
// Parameters:
//   - cfg: Store connection settings (URL and key are validated at startup)
//   - timezone: IANA display zone name
//   - logger: Structured logger for absorbed fetch failures
//
// Returns:
//   - *Client: Ready client; construction itself cannot fail
func New(cfg config.StoreConfig, timezone string, logger *logging.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("display timezone unavailable, keeping source timestamps",
			"timezone", timezone,
			"error", err,
		)
		loc = nil
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		table:      cfg.Table,
		displayLoc: loc,
		logger:     logger,
	}
}
