// Package catalogapi reads the listing catalog from the remote product service.
package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/comparaprecios/backend/internal/domain"
)

const maxAttempts = 3

// Client fetches listings from the product service. It satisfies
// domain.ListingRepository; every write returns domain.ErrReadOnlyCatalog.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
	// backoff returns the pause before the given retry attempt
	backoff func(attempt int) time.Duration
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets requests per second and burst
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithBackoff overrides the retry pause
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = backoff }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a product service client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:      zerolog.Nop(),
		backoff:     exponentialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "catalogapi").Logger()
	return c
}

// List fetches the full product list
func (c *Client) List(ctx context.Context) ([]domain.Listing, error) {
	reqURL := c.baseURL + "/products"

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("product service request failed")
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusNotFound:
			// no catalog published yet
			return []domain.Listing{}, nil
		case status >= 500 || status == http.StatusTooManyRequests:
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("product service unavailable")
			lastErr = fmt.Errorf("product service: status %d", status)
			continue
		case status != http.StatusOK:
			return nil, fmt.Errorf("product service: status %d: %s", status, truncate(string(body), 200))
		}

		var products []Product
		if err := json.Unmarshal(body, &products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}

		listings, skipped := MapToListings(products)
		if skipped > 0 {
			c.logger.Debug().Int("skipped", skipped).Msg("dropped incomplete products")
		}
		c.logger.Debug().Int("count", len(listings)).Msg("fetched catalog")
		return listings, nil
	}

	return nil, lastErr
}

// Add is not supported by the remote catalog
func (c *Client) Add(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	return domain.Listing{}, domain.ErrReadOnlyCatalog
}

// AddBatch is not supported by the remote catalog
func (c *Client) AddBatch(ctx context.Context, listings []domain.Listing) (int, error) {
	return 0, domain.ErrReadOnlyCatalog
}

// Delete is not supported by the remote catalog
func (c *Client) Delete(ctx context.Context, id string) error {
	return domain.ErrReadOnlyCatalog
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "comparaprecios-backend/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// exponentialBackoff doubles from 250ms
func exponentialBackoff(attempt int) time.Duration {
	return 250 * time.Millisecond << (attempt - 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
