// Package supabase implements the backend over a Supabase-compatible hosted
// service: GoTrue for auth, PostgREST for tables and object storage for photos.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusplug/campusplug/internal/backend"
)

// Config configures the hosted service client.
type Config struct {
	URL     string
	AnonKey string

	// JWTSecret, when set, is used to verify access tokens. Otherwise
	// tokens are only decoded.
	JWTSecret string

	// ImageBucket is the public storage bucket for listing photos.
	ImageBucket string

	HTTPClient *http.Client
}

// Client is the process-wide handle on the hosted service.
type Client struct {
	baseURL   string
	apiKey    string
	jwtSecret string
	bucket    string
	http      *http.Client
	now       func() time.Time
}

// New returns a client for the service at cfg.URL.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", cfg.URL)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("service API key is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	bucket := cfg.ImageBucket
	if bucket == "" {
		bucket = "item-images"
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		apiKey:    cfg.AnonKey,
		jwtSecret: cfg.JWTSecret,
		bucket:    bucket,
		http:      hc,
		now:       time.Now,
	}, nil
}

// Connect returns a connection for one browser session.
func (c *Client) Connect() backend.Client {
	return &Conn{c: c}
}

// request is one HTTP call to the service.
type request struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	token   string
	body    any
	raw     []byte
}

// do sends req and decodes a JSON response into dst (if non-nil).
// Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, req request, dst any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	switch {
	case req.raw != nil:
		body = bytes.NewReader(req.raw)
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	token := req.token
	if token == "" {
		token = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.path, err)
	}
	return nil
}
