// Package uploads pushes brochure files to object storage through the
// uploads service's presigned-URL flow.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/provider"
)

// MaxSize is the largest brochure accepted.
const MaxSize = 20 << 20

var (
	ErrUnsupportedType = errors.New("uploads: only pdf and image files are accepted")
	ErrTooLarge        = errors.New("uploads: file exceeds 20 MiB")
	ErrEmpty           = errors.New("uploads: file is empty")
	ErrNotConfigured   = errors.New("uploads: service is not configured")
	ErrNoUploadURL     = errors.New("uploads: service returned no upload url")
)

type Options struct {
	BaseURL string
	APIKey  string
	// Prefix is prepended to object keys, e.g. "brochures".
	Prefix  string
	Timeout time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	opts Options
	http *retryablehttp.Client
	now  func() time.Time
	log  *logrus.Entry
}

func NewClient(opts Options) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Prefix == "" {
		opts.Prefix = "brochures"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		opts: opts,
		http: provider.NewRetryable(opts.Timeout, opts.HTTPClient, "uploads"),
		now:  time.Now,
		log:  logrus.WithField("component", "uploads"),
	}
}

func (c *Client) Configured() bool { return c != nil && c.opts.BaseURL != "" }

type ticketRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Key         string `json:"key"`
	Size        int    `json:"size"`
}

// Ticket is the uploads service's answer to request-url.
type Ticket struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds a collision-free storage key that keeps a readable name.
func (c *Client) ObjectKey(cmaID, filename string) string {
	base := reUnsafe.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "brochure"
	}
	return path.Join(c.opts.Prefix, cmaID, uuid.NewString()+"-"+base)
}

// Upload validates the file, asks for a presigned URL and PUTs the bytes.
// It returns brochure metadata only when both steps succeed; callers persist
// nothing otherwise.
func (c *Client) Upload(ctx context.Context, cmaID, filename, contentType string, body []byte) (cma.Brochure, error) {
	if !c.Configured() {
		return cma.Brochure{}, ErrNotConfigured
	}
	kind, ok := cma.DetectBrochureType(filename, contentType)
	if !ok {
		return cma.Brochure{}, ErrUnsupportedType
	}
	if len(body) == 0 {
		return cma.Brochure{}, ErrEmpty
	}
	if len(body) > MaxSize {
		return cma.Brochure{}, ErrTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	t, err := c.requestURL(ctx, ticketRequest{
		Filename:    filename,
		ContentType: contentType,
		Key:         c.ObjectKey(cmaID, filename),
		Size:        len(body),
	})
	if err != nil {
		return cma.Brochure{}, err
	}
	if err := c.put(ctx, t.UploadURL, contentType, body); err != nil {
		return cma.Brochure{}, err
	}
	fileURL := t.FileURL
	if fileURL == "" {
		// Presigned URLs carry the object path before the signature.
		fileURL = strings.SplitN(t.UploadURL, "?", 2)[0]
	}
	c.log.WithFields(logrus.Fields{"cma": cmaID, "key": t.Key, "bytes": len(body)}).Info("brochure uploaded")
	return cma.Brochure{
		Filename:   filename,
		URL:        fileURL,
		Type:       kind,
		UploadedAt: c.now().UTC(),
	}, nil
}

func (c *Client) requestURL(ctx context.Context, in ticketRequest) (Ticket, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return Ticket{}, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/api/uploads/request-url", b)
	if err != nil {
		return Ticket{}, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("authorization", "Bearer "+c.opts.APIKey)
	}
	raw, err := provider.Do(c.http, req, "uploads")
	if err != nil {
		return Ticket{}, fmt.Errorf("failed to upload: %w", err)
	}
	var t Ticket
	if err := json.Unmarshal(raw, &t); err != nil {
		return Ticket{}, fmt.Errorf("failed to upload: decode ticket: %w", err)
	}
	if t.Key == "" {
		t.Key = in.Key
	}
	if t.UploadURL == "" {
		return Ticket{}, ErrNoUploadURL
	}
	return t, nil
}

func (c *Client) put(ctx context.Context, url, contentType string, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", contentType)
	req.ContentLength = int64(len(body))
	if _, err := provider.Do(c.http, req, "uploads.put"); err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	return nil
}
