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

package r1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/r1sync/pkg/syncerr"
)

const (
	defaultTokenLifetime = 3600 * time.Second
	tokenRefreshMargin   = 30 * time.Second
)

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   lifetime `json:"expires_in"`
}

// lifetime accepts expires_in as a number or a numeric string.
type lifetime int64

func (l *lifetime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*l = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expires_in: %w", err)
	}

	*l = lifetime(f)

	return nil
}

// Authenticate returns a bearer token, fetching a new one when the cached
// token is missing or within 30 seconds of expiry.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.tokenValid() {
		token := c.token
		c.mu.RUnlock()

		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokenValid() {
		return c.token, nil
	}

	issued := c.now()

	token, ttl, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiry = issued.Add(ttl)

	return token, nil
}

// InvalidateToken clears the cached token
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiry = time.Time{}
}

func (c *Client) tokenValid() bool {
	return c.token != "" && c.now().Before(c.expiry.Add(-tokenRefreshMargin))
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	const op = "oauth token"

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, syncerr.New(syncerr.KindConfiguration, op, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	ex, err := c.roundTrip(req, "/oauth2/token")
	if err != nil {
		return "", 0, syncerr.New(syncerr.KindUpstream, op, err)
	}

	if ex.status >= http.StatusMultipleChoices && ex.status < http.StatusBadRequest {
		return "", 0, syncerr.New(syncerr.KindAuthentication, op,
			fmt.Errorf("%w (status %d, location %q)", errTokenRedirect, ex.status, ex.header.Get("Location")))
	}

	if ex.status < http.StatusOK || ex.status >= http.StatusMultipleChoices {
		return "", 0, syncerr.New(syncerr.KindAuthentication, op,
			fmt.Errorf("%w: status %d, response: %s", errTokenStatus, ex.status, strings.TrimSpace(string(ex.body))))
	}

	var tr tokenResponse
	if err := json.Unmarshal(ex.body, &tr); err != nil {
		return "", 0, syncerr.New(syncerr.KindAuthentication, op, fmt.Errorf("decode token response: %w", err))
	}

	if tr.AccessToken == "" {
		return "", 0, syncerr.New(syncerr.KindAuthentication, op, errNoAccessToken)
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenLifetime
	}

	return tr.AccessToken, ttl, nil
}
