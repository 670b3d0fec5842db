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

package db

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func parseConnString(t *testing.T, cfg *Config) *url.URL {
	t.Helper()

	raw, err := buildConnString(cfg)
	if err != nil {
		t.Fatalf("buildConnString error: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error: %v", raw, err)
	}

	return u
}

func TestBuildConnStringDefaultsSSLModeDisableWithoutTLS(t *testing.T) {
	t.Parallel()

	u := parseConnString(t, &Config{Host: "pg", Database: "inventory"})

	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Fatalf("sslmode=%q, want %q", got, "disable")
	}

	if u.Host != "pg:5432" {
		t.Fatalf("host=%q, want default port", u.Host)
	}
}

func TestBuildConnStringDefaultsSSLModeVerifyFullWithTLS(t *testing.T) {
	t.Parallel()

	u := parseConnString(t, &Config{
		Host:     "pg",
		Port:     5433,
		Database: "inventory",
		TLS:      &TLSConfig{CertFile: "client.crt", KeyFile: "client.key", CAFile: "ca.crt"},
	})

	if got := u.Query().Get("sslmode"); got != "verify-full" {
		t.Fatalf("sslmode=%q, want %q", got, "verify-full")
	}
}

func TestBuildConnStringRejectsTLSWithSSLModeDisable(t *testing.T) {
	t.Parallel()

	_, err := buildConnString(&Config{
		Host:     "pg",
		Database: "inventory",
		SSLMode:  "disable",
		TLS:      &TLSConfig{CertFile: "client.crt", KeyFile: "client.key", CAFile: "ca.crt"},
	})
	if !errors.Is(err, ErrTLSDisabled) {
		t.Fatalf("error=%v, want %v", err, ErrTLSDisabled)
	}
}

func TestBuildConnStringUsesRuntimeSSLMode(t *testing.T) {
	t.Parallel()

	u := parseConnString(t, &Config{
		Host:               "pg",
		Database:           "inventory",
		ExtraRuntimeParams: map[string]string{"sslmode": "Require"},
	})

	if got := u.Query().Get("sslmode"); got != "require" {
		t.Fatalf("sslmode=%q, want %q", got, "require")
	}
}

func TestBuildConnStringCarriesCredentialsAndApplicationName(t *testing.T) {
	t.Parallel()

	u := parseConnString(t, &Config{
		Host:            "pg",
		Database:        "inventory",
		Username:        "r1sync",
		Password:        "s3cret/with:chars",
		ApplicationName: "r1sync",
	})

	if u.User.Username() != "r1sync" {
		t.Fatalf("user=%q", u.User.Username())
	}

	if pw, _ := u.User.Password(); pw != "s3cret/with:chars" {
		t.Fatalf("password=%q", pw)
	}

	if got := u.Query().Get("application_name"); got != "r1sync" {
		t.Fatalf("application_name=%q", got)
	}

	if u.Path != "/inventory" {
		t.Fatalf("path=%q", u.Path)
	}
}

func TestBuildConnStringPrefersURL(t *testing.T) {
	t.Parallel()

	const raw = "postgres://user@db.internal:6432/other?sslmode=require"

	got, err := buildConnString(&Config{URL: raw, Host: "ignored", StatementTimeout: time.Second})
	if err != nil {
		t.Fatalf("buildConnString error: %v", err)
	}

	if got != raw {
		t.Fatalf("conn string=%q, want %q", got, raw)
	}
}

func TestBuildTLSConfigRequiresEveryFile(t *testing.T) {
	t.Parallel()

	_, err := buildTLSConfig(&Config{Host: "pg", TLS: &TLSConfig{CertFile: "client.crt"}})
	if !errors.Is(err, ErrTLSIncomplete) {
		t.Fatalf("error=%v, want %v", err, ErrTLSIncomplete)
	}
}

func TestNewPoolRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(t.Context(), nil, nil); !errors.Is(err, ErrNoDatabaseConfig) {
		t.Fatalf("error=%v, want %v", err, ErrNoDatabaseConfig)
	}
}
