// Package medsearch looks up medicine availability and pricing through a web
// search API and fans lookups out across a bounded worker pool.
package medsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://api.firecrawl.dev"
	searchPath        = "/v1/search"
	defaultResultCap  = 1
	searchTimeoutMS   = 10000
	maxSearchAttempts = 3
)

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("FIRECRAWL_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg}, nil
}

type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type searchAPIResponse struct {
	Success bool           `json:"success"`
	Data    []SearchResult `json:"data"`
	Error   string         `json:"error"`
}

// Search runs one web search with bounded retries. Rate limiting honors the
// Retry-After header when present.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultResultCap
	}
	body := map[string]any{
		"query":   query,
		"limit":   limit,
		"timeout": searchTimeoutMS,
	}

	var lastErr error
	for attempt := 1; attempt <= maxSearchAttempts; attempt++ {
		results, code, retryAfter, err := c.searchOnce(ctx, body)
		if err == nil {
			return results, nil
		}
		lastErr = err

		if code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusBadRequest {
			return nil, err
		}
		if attempt == maxSearchAttempts {
			break
		}
		switch {
		case code == http.StatusTooManyRequests:
			sleep := retryAfter
			if sleep <= 0 {
				sleep = backoffDelay(attempt)
			}
			if err := sleepCtx(ctx, sleep); err != nil {
				return nil, err
			}
		case code >= 500 || isTimeoutError(err):
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) searchOnce(ctx context.Context, body map[string]any) ([]SearchResult, int, time.Duration, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d", res.StatusCode)
	}

	var parsed searchAPIResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, res.StatusCode, retryAfter, err
	}
	if !parsed.Success {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("search failed: %s", parsed.Error)
	}
	return parsed.Data, res.StatusCode, retryAfter, nil
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
