package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
)

// Default timeouts for TSDB operations.
const (
	defaultQueryTimeout  = 15 * time.Second
	defaultHealthTimeout = 5 * time.Second
)

// Client queries VictoriaMetrics through the Prometheus HTTP API.
//
// Pointwatch is a pure consumer of the time-series store: the telemetry
// ingestion path writes setpoint series elsewhere, and this client reads
// them back as ordered snapshots via PromQL range queries and series
// metadata lookups.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a client for the configured VictoriaMetrics endpoint.
//
// No connection is attempted at construction: the snapshot store being
// temporarily unreachable is a per-room batch failure, not a startup
// failure. Use HealthCheck for an active probe.
//
// Parameters:
//   - cfg: TSDB configuration from config.yaml
//
// Returns:
//   - *Client: Client ready for use
func New(cfg config.TSDBConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &Client{
		url: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// HealthCheck verifies the VictoriaMetrics endpoint is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tsdb health check: status %d", resp.StatusCode)
	}

	return nil
}

// URL returns the configured endpoint URL (for logging).
func (c *Client) URL() string {
	return c.url
}
