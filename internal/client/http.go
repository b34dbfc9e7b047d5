package client

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

	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/logger"
)

// ReloadIndexParam is the form field carrying the requested page
const ReloadIndexParam = "request_history_reload_index"

// SessionCookieName is the cookie the portal keys its session on
const SessionCookieName = "session"

// Response is the body returned by the history endpoint
type Response struct {
	RequestHistory []string `json:"request_history" yaml:"request_history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPConfig configures an HTTPFetcher
type HTTPConfig struct {
	URL           string
	BaseURL       string // portal root for HealthCheck; defaults to the URL's host root
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	SessionCookie string
	Headers       map[string]string
}

// HTTPFetcher fetches request history from the portal API
type HTTPFetcher struct {
	config   HTTPConfig
	client   *http.Client
	endpoint *url.URL
	root     *url.URL
	log      *logger.Logger
}

// NewHTTPFetcher creates a fetcher for the given endpoint
func NewHTTPFetcher(config HTTPConfig, log *logger.Logger) (*HTTPFetcher, error) {
	endpoint, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid history URL: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid history URL scheme: %q", endpoint.Scheme)
	}
	if config.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be non-negative")
	}

	root := &url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: "/"}
	if config.BaseURL != "" {
		root, err = url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		if root.Scheme != "http" && root.Scheme != "https" {
			return nil, fmt.Errorf("invalid base URL scheme: %q", root.Scheme)
		}
	}
	if log == nil {
		log = logger.New("client", nil)
	}

	return &HTTPFetcher{
		config:   config,
		client:   &http.Client{Timeout: config.Timeout},
		endpoint: endpoint,
		root:     root,
		log:      log,
	}, nil
}

// Fetch posts the reload index and returns the accumulated history.
// Retryable failures are retried for the same page up to MaxRetries times.
func (f *HTTPFetcher) Fetch(ctx context.Context, reloadIndex int) ([]string, error) {
	var lastErr *history.FetchError

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			f.log.WarnWithFields("retrying request history fetch", []logger.Field{
				logger.Page(reloadIndex),
				logger.F("attempt", attempt),
				logger.Error(lastErr),
			})
			select {
			case <-time.After(f.config.RetryDelay):
			case <-ctx.Done():
				return nil, history.NewFetchError(reloadIndex, "request cancelled", ctx.Err())
			}
		}

		events, err := f.fetchOnce(ctx, reloadIndex)
		if err == nil {
			return events, nil
		}
		lastErr = err
		if !err.Retryable() {
			break
		}
	}

	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, reloadIndex int) ([]string, *history.FetchError) {
	start := time.Now()

	form := url.Values{}
	form.Set(ReloadIndexParam, strconv.Itoa(reloadIndex))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, history.NewFetchError(reloadIndex, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for name, value := range f.config.Headers {
		req.Header.Set(name, value)
	}
	if f.config.SessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: f.config.SessionCookie})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, history.NewFetchError(reloadIndex, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var errResp errorResponse
		message := ""
		if json.Unmarshal(body, &errResp) == nil {
			message = errResp.Error
		}
		return nil, history.NewStatusError(reloadIndex, resp.StatusCode, message)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, history.NewFetchError(reloadIndex, "failed to decode response", err)
	}
	if result.RequestHistory == nil {
		return nil, history.NewFetchError(reloadIndex, "response has no request_history", nil)
	}

	f.log.DebugWithFields("request history fetched", []logger.Field{
		logger.Page(reloadIndex),
		logger.Count(len(result.RequestHistory)),
		logger.Duration(time.Since(start)),
	})

	return result.RequestHistory, nil
}

// HealthCheck verifies the portal answers at all
func (f *HTTPFetcher) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.root.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}
