// Package api talks to the OJP service: it posts XML documents built by the
// ojp codec and hands the answers back to it for parsing.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/cache"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/ojp"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultCacheTTL     = 10 * time.Minute
	defaultMaxElapsed   = 20 * time.Second
	defaultMaxRetries   = 3
	maxResponseBytes    = 4 << 20
	defaultUserAgent    = "ojp-sign"
	headerRequestID     = "X-Request-ID"
	headerAuthorization = "Authorization"
)

// Cache interface for caching response bodies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Client posts OJP requests to one endpoint
type Client struct {
	httpClient   *http.Client
	endpoint     string
	requestorRef string
	userAgent    string
	codec        *ojp.Codec
	cache        Cache
	maxRetries   uint64
	maxElapsed   time.Duration
	retryDelay   time.Duration
	log          zerolog.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables caching of stop searches with the provided implementation
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDefaultCache enables caching with the default file cache
func WithDefaultCache(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), ttl)
		if err == nil {
			c.cache = fc
		}
	}
}

// WithEndpoint overrides the dialect's default endpoint
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithRequestorRef sets the requestor identifier sent in every document
func WithRequestorRef(ref string) ClientOption {
	return func(c *Client) {
		if ref != "" {
			c.requestorRef = ref
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetry bounds retries of transient failures. maxRetries 0 disables retrying.
func WithRetry(maxRetries uint64, maxElapsed time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if maxElapsed > 0 {
			c.maxElapsed = maxElapsed
		}
	}
}

// WithLogger sets the logger for retry notices
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new API client speaking the codec's dialect
func NewClient(codec *ojp.Codec, opts ...ClientOption) (*Client, error) {
	if codec == nil {
		return nil, errors.New("codec is required")
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		endpoint:     codec.Dialect().Endpoint(),
		requestorRef: ojp.DefaultRequestorRef,
		userAgent:    defaultUserAgent,
		codec:        codec,
		maxRetries:   defaultMaxRetries,
		maxElapsed:   defaultMaxElapsed,
		retryDelay:   500 * time.Millisecond,
		log:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.ParseRequestURI(c.endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}

	return c, nil
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Codec returns the codec used to build and parse documents
func (c *Client) Codec() *ojp.Codec {
	return c.codec
}

// Departures fetches the next departures at stopID
func (c *Client) Departures(ctx context.Context, apiKey, stopID string, limit int) ([]models.Departure, error) {
	body, err := c.DeparturesRaw(ctx, apiKey, stopID, limit)
	if err != nil {
		return nil, err
	}

	deps, err := c.codec.ParseDepartures(body)
	if err != nil {
		return deps, fmt.Errorf("failed to parse departures response: %w", err)
	}
	return deps, nil
}

// DeparturesRaw fetches departures and returns the raw XML
func (c *Client) DeparturesRaw(ctx context.Context, apiKey, stopID string, limit int) ([]byte, error) {
	doc, err := c.codec.BuildDeparturesRequest(stopID, c.requestorRef, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build departures request: %w", err)
	}
	return c.doRequest(ctx, apiKey, doc, "")
}

// SearchStops searches stops by name. Answers are cached when a cache is set.
func (c *Client) SearchStops(ctx context.Context, apiKey, query string, limit int) ([]models.StopSearchResult, error) {
	body, err := c.SearchStopsRaw(ctx, apiKey, query, limit)
	if err != nil {
		return nil, err
	}

	stops, err := c.codec.ParseLocationSearch(body)
	if err != nil {
		return stops, fmt.Errorf("failed to parse location response: %w", err)
	}
	return stops, nil
}

// SearchStopsRaw searches stops and returns the raw XML
func (c *Client) SearchStopsRaw(ctx context.Context, apiKey, query string, limit int) ([]byte, error) {
	doc, err := c.codec.BuildLocationSearchRequest(query, c.requestorRef, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build location request: %w", err)
	}
	key := cache.Key(c.endpoint, c.codec.Dialect().String(), "stops", query, fmt.Sprint(limit))
	return c.doRequest(ctx, apiKey, doc, key)
}

// doRequest posts doc with bounded retries on transient failures.
// A non-empty cacheKey enables the response cache.
func (c *Client) doRequest(ctx context.Context, apiKey string, doc []byte, cacheKey string) ([]byte, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cacheKey != "" && c.cache != nil {
		if data, ok := c.cache.Get(cacheKey); ok {
			return data, nil
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxElapsedTime = c.maxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	body, err := backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			data, err := c.post(ctx, apiKey, doc)
			if err == nil {
				return data, nil
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Transient() {
				return nil, backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		},
		policy,
		func(err error, d time.Duration) {
			c.log.Warn().Err(err).Dur("retry_in", d).Msg("upstream request failed, retrying")
		},
	)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && c.cache != nil {
		_ = c.cache.Set(cacheKey, body)
	}
	return body, nil
}

// post performs a single HTTP round trip
func (c *Client) post(ctx context.Context, apiKey string, doc []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", ojp.ContentType)
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set(headerAuthorization, "Bearer "+apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, NewAPIError(resp.StatusCode, resp.Status, extractEndpoint(c.endpoint))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// extractEndpoint extracts the endpoint path from a full URL
func extractEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
