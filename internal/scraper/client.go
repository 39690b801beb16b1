package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
	maxBodyBytes     = 8 << 20

	desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
)

// StatusError is returned when an upstream answers with a non-200 status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is one the transport retries (429 and 5xx)
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions configures the shared upstream client
type ClientOptions struct {
	Timeout           time.Duration
	MaxAttempts       int
	BaseDelay         time.Duration
	RequestsPerSecond float64
}

// Client is the one HTTP client shared by every fetcher. It is safe for concurrent use:
// the underlying http.Client pools connections and the limiter paces outbound requests.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient creates the shared upstream client
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16

	return &Client{
		http:        &http.Client{Timeout: opts.Timeout, Transport: transport},
		limiter:     rate.NewLimiter(limit, burst),
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
	}
}

// request describes one upstream call. body is re-created for every attempt.
type request struct {
	method  string
	url     string
	headers map[string]string
	body    func() io.Reader
}

// Get fetches rawURL with optional query parameters and returns the body
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return c.do(ctx, request{method: http.MethodGet, url: rawURL, headers: headers})
}

// GetJSON fetches rawURL and decodes a JSON body into out
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, headers map[string]string, out any) error {
	body, err := c.Get(ctx, rawURL, query, headers)
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, body, out)
}

// PostJSON sends payload as a JSON body and decodes the JSON response into out
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, headers map[string]string, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", rawURL, err)
	}
	h := withHeader(headers, "Content-Type", "application/json")
	body, err := c.do(ctx, request{
		method:  http.MethodPost,
		url:     rawURL,
		headers: h,
		body:    func() io.Reader { return bytes.NewReader(data) },
	})
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, body, out)
}

// PostForm sends form as an urlencoded body and returns the raw response
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	encoded := form.Encode()
	h := withHeader(headers, "Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return c.do(ctx, request{
		method:  http.MethodPost,
		url:     rawURL,
		headers: h,
		body:    func() io.Reader { return strings.NewReader(encoded) },
	})
}

// PostFormJSON sends form and decodes the JSON response into out
func (c *Client) PostFormJSON(ctx context.Context, rawURL string, form url.Values, headers map[string]string, out any) error {
	body, err := c.PostForm(ctx, rawURL, form, headers)
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, body, out)
}

// do runs the request with retries on network errors, 429 and 5xx, backing off
// exponentially between attempts.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.once(ctx, r)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil || attempt == c.maxAttempts {
			break
		}

		log.Printf("🔁 %s %s failed (attempt %d/%d): %v, retrying in %v", r.method, r.url, attempt, c.maxAttempts, err, delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		body = r.body()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", desktopUserAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: r.url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", r.url, err)
	}
	return data, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// transport-level failures: timeouts, resets, refused connections
	return true
}

func decodeJSON(rawURL string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

func withHeader(headers map[string]string, key, value string) map[string]string {
	h := make(map[string]string, len(headers)+1)
	h[key] = value
	for k, v := range headers {
		h[k] = v
	}
	return h
}
