/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package r1 is a client for the RUCKUS One controller REST API.
package r1

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/metrics"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// Config holds what a Client needs to reach one controller tenant.
type Config struct {
	BaseURL       string        `json:"-" koanf:"-"`
	TenantID      string        `json:"-" koanf:"-"`
	ClientID      string        `json:"-" koanf:"-"`
	ClientSecret  string        `json:"-" koanf:"-"`
	Timeout       time.Duration `json:"timeout" koanf:"timeout"`
	SkipTLSVerify bool          `json:"skip_tls_verify" koanf:"skip_tls_verify"`
	RateLimit     float64       `json:"rate_limit" koanf:"rate_limit" validate:"gte=0"`
	RateBurst     int           `json:"rate_burst" koanf:"rate_burst" validate:"gte=0"`
	Breaker       BreakerConfig `json:"breaker" koanf:"breaker"`
}

// Client talks to one controller tenant. It caches its bearer token and is
// safe for concurrent use.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string

	http    HTTPClient
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*exchange]
	logger  logger.Logger
	now     func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default redirect-refusing http.Client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides time.Now for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New validates cfg and builds a Client. Missing base URL, tenant id or
// credentials are configuration errors.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := normalizeBaseURL(cfg.BaseURL)
	tenantID := strings.TrimSpace(cfg.TenantID)
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.ClientSecret)

	switch {
	case base == "":
		return nil, syncerr.New(syncerr.KindConfiguration, "r1 client", errEmptyBaseURL)
	case tenantID == "":
		return nil, syncerr.New(syncerr.KindConfiguration, "r1 client", errEmptyTenantID)
	case clientID == "" || secret == "":
		return nil, syncerr.New(syncerr.KindConfiguration, "r1 client", errEmptyCredentials)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL:      base,
		tokenURL:     TokenURL(base, tenantID),
		clientID:     clientID,
		clientSecret: secret,
		logger:       logger.NewTestLogger(),
		now:          time.Now,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = newHTTPClient(cfg)
	}

	c.breaker = newBreaker("r1:"+tenantID, cfg.Breaker, c.logger)

	return c, nil
}

func newHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.SkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	return raw
}

// TokenURL derives the OAuth2 token endpoint from the resource base URL:
// https://api.eu.ruckus.cloud becomes https://eu.ruckus.cloud/oauth2/token/{tenantID}.
func TokenURL(baseURL, tenantID string) string {
	scheme := "https"
	host := baseURL

	if u, err := url.Parse(baseURL); err == nil {
		if u.Scheme != "" {
			scheme = u.Scheme
		}

		host = u.Host
		if host == "" {
			host = u.Path
		}
	}

	host = strings.SplitN(host, "/", 2)[0]
	host = strings.TrimPrefix(host, "api.")

	return fmt.Sprintf("%s://%s/oauth2/token/%s", scheme, host, tenantID)
}

// Get issues an authenticated GET and returns the decoded JSON body, or the
// raw text when the body is not JSON.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (interface{}, error) {
	return c.get(ctx, path, path, params)
}

// get is Get with an explicit metrics label for paths carrying ids.
func (c *Client) get(ctx context.Context, path, label string, params url.Values) (interface{}, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	ex, err := c.authorized(ctx, http.MethodGet, path, label, target, nil)
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := json.Unmarshal(ex.body, &out); err != nil {
		return string(ex.body), nil //nolint:nilerr // non-JSON bodies are returned verbatim
	}

	return out, nil
}

// Post issues an authenticated JSON POST and decodes the JSON object reply.
func (c *Client) Post(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	if body == nil {
		body = map[string]interface{}{}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode POST %s body: %w", path, err)
	}

	ex, err := c.authorized(ctx, http.MethodPost, path, path, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal(ex.body, &out); err != nil {
		return nil, syncerr.New(syncerr.KindUpstream, "POST "+path, fmt.Errorf("decode response: %w", err))
	}

	return out, nil
}

// QueryAll posts a single query page with limit defaulted to pageSize and
// returns the object items under dataKey. Cursors are not followed; a
// warning is logged when the reply looks truncated.
func (c *Client) QueryAll(ctx context.Context, path string, pageSize int, extraBody map[string]interface{}, dataKey string) ([]Record, error) {
	body := make(map[string]interface{}, len(extraBody)+1)
	for k, v := range extraBody {
		body[k] = v
	}

	if _, ok := body["limit"]; !ok {
		body["limit"] = pageSize
	}

	if dataKey == "" {
		dataKey = "data"
	}

	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	items, _ := resp[dataKey].([]interface{})
	out := make([]Record, 0, len(items))

	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Record(m))
		}
	}

	total, _ := resp["totalCount"].(float64)
	limit := asInt(body["limit"])

	if int(total) > len(items) || (limit > 0 && len(items) >= limit) {
		c.logger.Warn().
			Str("path", path).
			Int("returned", len(items)).
			Int("limit", limit).
			Int("total_count", int(total)).
			Msg("Controller query may be truncated; only the first page is read")
	}

	return out, nil
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}

	return 0
}

// authorized sends a request with the cached bearer token. A 401 drops the
// token and retries once with a fresh one.
func (c *Client) authorized(ctx context.Context, method, path, label, target string, payload []byte) (*exchange, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.Authenticate(ctx)
		if err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, syncerr.New(syncerr.KindConfiguration, method+" "+path, err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		ex, err := c.roundTrip(req, label)
		if err != nil {
			return nil, syncerr.New(syncerr.KindUpstream, method+" "+path, err)
		}

		if ex.status == http.StatusUnauthorized && attempt == 0 {
			c.InvalidateToken()
			continue
		}

		if ex.status >= http.StatusBadRequest {
			return nil, syncerr.Errorf(syncerr.KindUpstream, "%s %s failed (%d): %s",
				method, path, ex.status, strings.TrimSpace(string(ex.body)))
		}

		return ex, nil
	}
}

type exchange struct {
	status int
	header http.Header
	body   []byte
}

var errServerStatus = errors.New("server error status")

// roundTrip applies the rate limiter and circuit breaker around one request.
// 5xx replies count as breaker failures but are still returned to the caller.
func (c *Client) roundTrip(req *http.Request, endpoint string) (*exchange, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	ex, err := c.breaker.Execute(func() (*exchange, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}

		out := &exchange{status: resp.StatusCode, header: resp.Header, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return out, errServerStatus
		}

		return out, nil
	})

	status := 0
	if ex != nil {
		status = ex.status
	}

	metrics.ObserveAPIRequest(req.Method, endpoint, status, time.Since(start))

	if errors.Is(err, errServerStatus) {
		return ex, nil
	}

	if err != nil {
		return nil, err
	}

	return ex, nil
}
