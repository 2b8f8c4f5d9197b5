// Package dogapi is the HTTP client for the dog breed API (dog.ceo). It is the
// live BreedCatalog capability.
package dogapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Ngone6325/appfac/model"
)

// Config configures the client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64 // 0 disables rate limiting
	Burst         int
	HTTPClient    *http.Client
}

// Client calls the breed API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

var _ model.BreedCatalog = (*Client)(nil)

// envelope is the shape of every API response
type envelope[T any] struct {
	Message T      `json:"message"`
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("dogapi: invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    limiter,
		log:        log.With().Str("component", "dogapi").Logger(),
	}, nil
}

// AllBreeds returns every breed mapped to its sub-breeds.
func (c *Client) AllBreeds(ctx context.Context) (map[string][]string, error) {
	var resp envelope[map[string][]string]
	if err := c.get(ctx, "/breeds/list/all", &resp); err != nil {
		return nil, err
	}
	if resp.Message == nil {
		resp.Message = map[string][]string{}
	}
	return resp.Message, nil
}

// RandomImage returns the URL of a random image of breed ("hound" or "hound/afghan").
func (c *Client) RandomImage(ctx context.Context, breed string) (string, error) {
	breed = model.NormalizeBreed(breed)
	if breed == "" {
		return "", fmt.Errorf("%w: empty breed", model.ErrInvalidBreed)
	}
	parts := strings.Split(breed, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	var resp envelope[string]
	if err := c.get(ctx, "/breed/"+strings.Join(parts, "/")+"/images/random", &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", model.ErrUnavailable, err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode != http.StatusOK {
		var apiErr envelope[string]
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", model.ErrInvalidBreed, msg)
		}
		return fmt.Errorf("%w: status %d: %s", model.ErrUnavailable, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", model.ErrUnavailable, err)
	}
	return nil
}
