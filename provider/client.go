package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/internal/logger"
	"github.com/yourorg/agentdesk-api/internal/metrics"
)

const maxPayload = 4 << 20

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// UpstreamError is a non-2xx answer from a provider. Body holds the decoded
// JSON error body when there was one.
type UpstreamError struct {
	Provider string
	Status   int
	Body     map[string]any
}

func (e *UpstreamError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s error %d", e.Provider, e.Status)
}

// Message digs the human message out of common error envelopes.
func (e *UpstreamError) Message() string {
	for _, k := range []string{"message", "error", "detail", "errorMessage"} {
		if s, ok := e.Body[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Options configures one provider client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to one provider in its own dialect.
type Client struct {
	dialect Dialect
	key     string
	baseURL string
	http    *retryablehttp.Client
}

// NewClient builds a client for the given provider id. Failed calls are
// retried once with a short flat wait; nothing beyond that.
func NewClient(id ID, opts Options) (*Client, error) {
	d, err := DialectFor(id)
	if err != nil {
		return nil, err
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%s: base url required", id)
	}
	return &Client{
		dialect: d,
		key:     opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    NewRetryable(opts.Timeout, opts.HTTPClient, "provider."+string(id)),
	}, nil
}

// NewRetryable returns the retry policy shared by every upstream client in
// this service: one retry, flat 200ms wait, passthrough of the last response.
func NewRetryable(timeout time.Duration, base *http.Client, component string) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	if base != nil {
		rc.HTTPClient = base
	}
	rc.RetryMax = 1
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 200 * time.Millisecond
	rc.Backoff = retryablehttp.LinearJitterBackoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	rc.HTTPClient.Timeout = timeout
	rc.Logger = logger.NewLeveled(component)
	return rc
}

func (c *Client) ID() ID { return c.dialect.ID() }

// Search encodes the criteria in the provider's dialect, appends pagination
// and returns the normalised result. Errors never carry partial data.
func (c *Client) Search(ctx context.Context, crit criteria.Criteria, page Page) (Result, error) {
	q := c.dialect.Encode(crit)
	c.dialect.Paginate(q, page.normalized())
	raw, err := c.get(ctx, c.dialect.SearchPath(), q)
	if err != nil {
		return Result{}, err
	}
	res, err := c.dialect.Decode(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%s decode: %w", c.ID(), err)
	}
	if res.Source == "" {
		res.Source = string(c.ID())
	}
	return res, nil
}

// Autocomplete returns suggestions for one of the list fields.
func (c *Client) Autocomplete(ctx context.Context, field, prefix string) ([]string, error) {
	q := url.Values{}
	if prefix != "" {
		q.Set("q", prefix)
	}
	raw, err := c.get(ctx, "/api/autocomplete/"+url.PathEscape(field), q)
	if err != nil {
		return nil, err
	}
	return DecodeSuggestions(raw)
}

// Health probes the provider's availability endpoint.
func (c *Client) Health(ctx context.Context) error {
	raw, err := c.get(ctx, c.dialect.HealthPath(), nil)
	if err != nil {
		return err
	}
	var body struct {
		OK     *bool  `json:"ok"`
		Status string `json:"status"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return nil
	}
	if body.OK != nil && !*body.OK {
		return fmt.Errorf("%s reports unhealthy", c.ID())
	}
	switch strings.ToLower(body.Status) {
	case "down", "error", "unavailable":
		return fmt.Errorf("%s reports status %q", c.ID(), body.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if c.key != "" {
		req.Header.Set("authorization", "Bearer "+c.key)
	}
	return Do(c.http, req, string(c.ID()))
}

// Do runs a request, records metrics and turns non-2xx responses into
// *UpstreamError.
func Do(hc *retryablehttp.Client, req *retryablehttp.Request, target string) ([]byte, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	metrics.UpstreamDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(target, "network_error").Inc()
		return nil, fmt.Errorf("%s request: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(target, "http_error").Inc()
		var body map[string]any
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		return nil, &UpstreamError{Provider: target, Status: resp.StatusCode, Body: body}
	}
	metrics.UpstreamRequests.WithLabelValues(target, "ok").Inc()
	return ReadAllLimit(resp.Body, maxPayload)
}

func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrPayloadTooLarge
	}
	return b, nil
}
