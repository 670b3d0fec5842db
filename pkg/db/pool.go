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
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/r1sync/pkg/logger"
)

const defaultPort = 5432

// TLSConfig holds client certificate paths. Relative paths resolve against
// Config.CertDir.
type TLSConfig struct {
	CertFile string `json:"cert_file" koanf:"cert_file"`
	KeyFile  string `json:"key_file" koanf:"key_file"`
	CAFile   string `json:"ca_file" koanf:"ca_file"`
}

// Config describes the PostgreSQL connection. URL, when set, wins over the
// discrete fields.
type Config struct {
	URL                string            `json:"url" koanf:"url"`
	Host               string            `json:"host" koanf:"host" validate:"required_without=URL"`
	Port               int               `json:"port" koanf:"port" validate:"omitempty,min=1,max=65535"`
	Database           string            `json:"database" koanf:"database" validate:"required_without=URL"`
	Username           string            `json:"username" koanf:"username"`
	Password           string            `json:"password" koanf:"password"`
	SSLMode            string            `json:"ssl_mode" koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	ApplicationName    string            `json:"application_name" koanf:"application_name"`
	CertDir            string            `json:"cert_dir" koanf:"cert_dir"`
	TLS                *TLSConfig        `json:"tls,omitempty" koanf:"tls"`
	MaxConns           int32             `json:"max_conns" koanf:"max_conns" validate:"gte=0"`
	MinConns           int32             `json:"min_conns" koanf:"min_conns" validate:"gte=0"`
	MaxConnLifetime    time.Duration     `json:"max_conn_lifetime" koanf:"max_conn_lifetime"`
	HealthCheckPeriod  time.Duration     `json:"health_check_period" koanf:"health_check_period"`
	StatementTimeout   time.Duration     `json:"statement_timeout" koanf:"statement_timeout"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params" koanf:"extra_runtime_params"`
}

// NewPool dials PostgreSQL and returns a pgx pool.
func NewPool(ctx context.Context, cfg *Config, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, ErrNoDatabaseConfig
	}

	connString, err := buildConnString(cfg)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}

	for k, v := range cfg.ExtraRuntimeParams {
		if k == "" || k == "sslmode" {
			continue
		}

		poolConfig.ConnConfig.RuntimeParams[k] = v
	}

	if cfg.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	if tlsConfig, err := buildTLSConfig(cfg); err != nil {
		return nil, err
	} else if tlsConfig != nil {
		poolConfig.ConnConfig.TLSConfig = tlsConfig
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to initialize pool: %w", err)
	}

	if log != nil {
		log.Info().
			Str("host", poolConfig.ConnConfig.Host).
			Uint16("port", poolConfig.ConnConfig.Port).
			Int32("max_conns", poolConfig.MaxConns).
			Msg("Connected to PostgreSQL")
	}

	return pool, nil
}

// buildConnString renders cfg as a postgres:// URL.
func buildConnString(cfg *Config) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	sslMode, err := resolveSSLMode(cfg)
	if err != nil {
		return "", err
	}

	query := connURL.Query()
	query.Set("sslmode", sslMode)

	if cfg.ApplicationName != "" {
		query.Set("application_name", cfg.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	return connURL.String(), nil
}

// resolveSSLMode picks the explicit mode, then a runtime param, then
// verify-full when client TLS is configured and disable otherwise.
func resolveSSLMode(cfg *Config) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.SSLMode))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(cfg.ExtraRuntimeParams["sslmode"]))
	}

	if mode == "" {
		if cfg.TLS != nil {
			return "verify-full", nil
		}

		return "disable", nil
	}

	if mode == "disable" && cfg.TLS != nil {
		return "", ErrTLSDisabled
	}

	return mode, nil
}

func buildTLSConfig(cfg *Config) (*tls.Config, error) {
	if cfg.TLS == nil {
		return nil, nil
	}

	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) || cfg.CertDir == "" {
			return path
		}

		return filepath.Join(cfg.CertDir, path)
	}

	certFile := resolve(cfg.TLS.CertFile)
	keyFile := resolve(cfg.TLS.KeyFile)
	caFile := resolve(cfg.TLS.CAFile)

	if certFile == "" || keyFile == "" || caFile == "" {
		return nil, ErrTLSIncomplete
	}

	clientCert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("postgres tls: failed to load client keypair: %w", err)
	}

	caBytes, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("postgres tls: failed to read CA file: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caBytes) {
		return nil, ErrInvalidCA
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
		ServerName:   cfg.Host,
	}, nil
}
