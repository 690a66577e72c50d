// Package fub is a small Follow Up Boss client covering the calendar, user
// and identity endpoints.
package fub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/yourorg/agentdesk-api/provider"
)

const (
	DefaultBaseURL = "https://api.followupboss.com"
	pageLimit      = 100
	maxPages       = 10
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("follow up boss is not configured")

// PermissionHint accompanies calendar failures; FUB keys are often scoped to
// a single agent and cannot read other users' calendars.
const PermissionHint = "The Follow Up Boss API key may not have permission to read appointments or tasks for this user. Check the key's owner and role in FUB."

type Options struct {
	BaseURL   string
	APIKey    string
	System    string
	SystemKey string
	Timeout   time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	opts Options
	http *retryablehttp.Client
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts, http: provider.NewRetryable(opts.Timeout, opts.HTTPClient, "fub")}
}

func (c *Client) Configured() bool { return c != nil && c.opts.APIKey != "" }

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.opts.APIKey, "")
	req.Header.Set("accept", "application/json")
	if c.opts.System != "" {
		req.Header.Set("X-System", c.opts.System)
	}
	if c.opts.SystemKey != "" {
		req.Header.Set("X-System-Key", c.opts.SystemKey)
	}
	raw, err := provider.Do(c.http, req, "fub")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("fub decode %s: %w", path, err)
	}
	return nil
}

// pages walks offset pagination until the reported total is reached, a
// short page arrives or maxPages is hit.
func (c *Client) pages(ctx context.Context, path string, q url.Values, decode func(raw json.RawMessage) (int, error), key string) error {
	for page := 0; page < maxPages; page++ {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		pq.Set("limit", strconv.Itoa(pageLimit))
		pq.Set("offset", strconv.Itoa(page*pageLimit))

		var env map[string]json.RawMessage
		if err := c.get(ctx, path, pq, &env); err != nil {
			return err
		}
		n, err := decode(env[key])
		if err != nil {
			return fmt.Errorf("fub decode %s: %w", key, err)
		}
		var meta Metadata
		if m, ok := env["_metadata"]; ok {
			_ = json.Unmarshal(m, &meta)
		}
		if n < pageLimit || (meta.Total > 0 && (page+1)*pageLimit >= meta.Total) {
			return nil
		}
	}
	return nil
}

// Appointments lists appointments overlapping [start, end).
func (c *Client) Appointments(ctx context.Context, start, end time.Time, userID int) ([]Appointment, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	if userID > 0 {
		q.Set("userId", strconv.Itoa(userID))
	}
	var out []Appointment
	err := c.pages(ctx, "/v1/appointments", q, func(raw json.RawMessage) (int, error) {
		var batch []Appointment
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &batch); err != nil {
				return 0, err
			}
		}
		out = append(out, batch...)
		return len(batch), nil
	}, "appointments")
	return out, err
}

// Tasks lists tasks due within [start, end).
func (c *Client) Tasks(ctx context.Context, start, end time.Time, userID int) ([]Task, error) {
	q := url.Values{}
	q.Set("dueStart", start.UTC().Format(time.RFC3339))
	q.Set("dueEnd", end.UTC().Format(time.RFC3339))
	if userID > 0 {
		q.Set("assignedUserId", strconv.Itoa(userID))
	}
	var out []Task
	err := c.pages(ctx, "/v1/tasks", q, func(raw json.RawMessage) (int, error) {
		var batch []Task
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &batch); err != nil {
				return 0, err
			}
		}
		out = append(out, batch...)
		return len(batch), nil
	}, "tasks")
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	err := c.pages(ctx, "/v1/users", url.Values{}, func(raw json.RawMessage) (int, error) {
		var batch []User
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &batch); err != nil {
				return 0, err
			}
		}
		out = append(out, batch...)
		return len(batch), nil
	}, "users")
	return out, err
}

func (c *Client) Identity(ctx context.Context) (Identity, error) {
	var id Identity
	err := c.get(ctx, "/v1/identity", nil, &id)
	return id, err
}
