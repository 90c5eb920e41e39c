package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/forkcast/nutrition/internal/domain"
)

const (
	defaultPageSize        = 25
	defaultTimeout         = 30 * time.Second
	defaultRequestsPerHour = 1000
	defaultDataTypes       = "Foundation,SR Legacy,Survey (FNDDS)"
	maxAttempts            = 3
	maxLoggedBody          = 512
)

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient  *resty.Client
	apiKey      string
	baseURL     string
	pageSize    int
	dataTypes   string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
	backoff     func(attempt int) time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithPageSize sets the number of search candidates requested per query
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.SetTimeout(d)
		}
	}
}

// WithRequestsPerHour sets the client-side rate limit
func WithRequestsPerHour(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.rateLimiter = newHourlyLimiter(n)
		}
	}
}

// WithDataTypes restricts searches to the given comma-separated data types
func WithDataTypes(dataTypes string) Option {
	return func(c *Client) {
		if dataTypes != "" {
			c.dataTypes = dataTypes
		}
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", "Forkcast/1.0").
		SetHeader("Accept", "application/json")

	c := &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		baseURL:     baseURL,
		pageSize:    defaultPageSize,
		dataTypes:   defaultDataTypes,
		rateLimiter: newHourlyLimiter(defaultRequestsPerHour),
		logger:      zap.NewNop(),
		backoff:     exponentialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHourlyLimiter converts an hourly quota into a token bucket with a burst of 10
func newHourlyLimiter(perHour int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perHour)/3600), 10)
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns the wait before retrying after a failed attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// SearchFoods searches for foods in the USDA database
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	c.debugLog("usda search", zap.String("query", query))

	body, err := c.get(ctx, "/v1/foods/search", map[string]string{
		"query":    query,
		"dataType": c.dataTypes,
		"pageSize": strconv.Itoa(c.pageSize),
	})
	if err != nil {
		return nil, err
	}

	var searchResp domain.USDASearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		c.logger.Warn("usda search decode failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searchResp.Foods) == 0 {
		c.debugLog("usda search returned no foods", zap.String("query", query))
		return nil, domain.ErrFoodNotFound
	}

	c.debugLog("usda search results", zap.String("query", query), zap.Int("foods", len(searchResp.Foods)))
	return &searchResp, nil
}

// GetFoodDetails retrieves detailed nutrition information for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	c.debugLog("usda food details", zap.String("fdc_id", fdcID))

	body, err := c.get(ctx, "/v1/food/"+fdcID, nil)
	if err != nil {
		return nil, err
	}

	var food domain.USDAFood
	if err := json.Unmarshal(body, &food); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &food, nil
}

// get performs a rate-limited GET with up to maxAttempts tries.
// Transport errors, 429 and 5xx responses are retried; 404 maps to
// ErrFoodNotFound and other 4xx responses fail immediately.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("api_key", c.apiKey).
			Get(path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrUSDAAPIFailure, ctxErr)
			}
			c.logger.Warn("usda request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
			continue
		}

		status := resp.StatusCode()
		switch {
		case status == http.StatusOK:
			return resp.Body(), nil
		case status == http.StatusNotFound:
			return nil, domain.ErrFoodNotFound
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %w: status %d", domain.ErrUSDAAPIFailure, domain.ErrRateLimited, status)
		case status >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, status)
		default:
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrUSDAAPIFailure, status, truncateBody(resp.Body(), maxLoggedBody))
		}

		c.logger.Warn("usda api error",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.String("body", truncateBody(resp.Body(), maxLoggedBody)),
		)
	}

	c.logger.Error("usda retries exhausted", zap.String("path", path), zap.Error(lastErr))
	return nil, lastErr
}

// sleep waits for d or until ctx is done
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = time.Nanosecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrUSDAAPIFailure, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// truncateBody limits a response body for logs and error messages
func truncateBody(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
