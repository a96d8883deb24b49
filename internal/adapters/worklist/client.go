// Package worklist is an HTTP client for the upstream worklist service
// that tracks reading assignments and series validation state.
package worklist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// ClientOptions configures the worklist client. Zero values fall back
// to safe defaults.
type ClientOptions struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client implements secondary.WorklistClient against the worklist HTTP
// API. Transient failures (connection errors, 429, 5xx) are retried
// with exponential backoff before an error is surfaced; callers treat
// surfaced errors as fail-open.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewClient creates a worklist client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// HTTPError is a non-2xx response that exhausted retries.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("worklist request failed: status=%d message=%s", e.StatusCode, e.Message)
}

type validateResponse struct {
	Validated bool `json:"validated"`
}

type progressResponse struct {
	Series []secondary.SeriesProgress `json:"series"`
}

// ValidateSeries asks the worklist whether a series passed validation.
func (c *Client) ValidateSeries(ctx context.Context, studyUID, seriesUID string) (bool, error) {
	path := fmt.Sprintf("/v1/studies/%s/series/%s/validation",
		url.PathEscape(studyUID), url.PathEscape(seriesUID))
	var resp validateResponse
	if err := c.doJSON(ctx, path, &resp); err != nil {
		return false, err
	}
	return resp.Validated, nil
}

// FetchProgress retrieves per-series reading progress for a user's study.
func (c *Client) FetchProgress(ctx context.Context, username, studyUID string) ([]secondary.SeriesProgress, error) {
	path := fmt.Sprintf("/v1/users/%s/studies/%s/progress",
		url.PathEscape(username), url.PathEscape(studyUID))
	var resp progressResponse
	if err := c.doJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Series, nil
}

// doJSON performs a GET with retry and decodes the response body into out.
func (c *Client) doJSON(ctx context.Context, path string, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("worklist base URL is not configured")
	}
	fullURL := c.baseURL + path

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("worklist request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode worklist response: %w", err)
			}
			return nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ secondary.WorklistClient = (*Client)(nil)
