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

package natsutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/r1sync/pkg/logger"
)

var (
	// ErrTLSIncomplete is returned when only part of the client TLS material is set.
	ErrTLSIncomplete = errors.New("nats tls: cert_file, key_file, and ca_file are required")
	// ErrCAParsingFailed is returned when CA certificate cannot be parsed
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

// TLSConfig holds NATS mTLS client material.
type TLSConfig struct {
	CertFile   string `json:"cert_file" koanf:"cert_file"`
	KeyFile    string `json:"key_file" koanf:"key_file"`
	CAFile     string `json:"ca_file" koanf:"ca_file"`
	ServerName string `json:"server_name" koanf:"server_name"`
}

// Config describes the optional event stream. Events are not published when
// Enabled is false.
type Config struct {
	Enabled       bool          `json:"enabled" koanf:"enabled"`
	URL           string        `json:"url" koanf:"url" validate:"required_if=Enabled true"`
	Stream        string        `json:"stream" koanf:"stream"`
	Subject       string        `json:"subject" koanf:"subject"`
	Domain        string        `json:"domain" koanf:"domain"`
	CredsFile     string        `json:"creds_file" koanf:"creds_file"`
	ConnectWait   time.Duration `json:"connect_wait" koanf:"connect_wait"`
	TLS           *TLSConfig    `json:"tls,omitempty" koanf:"tls"`
	MaxReconnects int           `json:"max_reconnects" koanf:"max_reconnects"`
}

// tlsConfig builds a tls.Config for connecting to NATS using mTLS.
func tlsConfig(c *TLSConfig) (*tls.Config, error) {
	if c.CertFile == "" || c.KeyFile == "" || c.CAFile == "" {
		return nil, ErrTLSIncomplete
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, ErrCAParsingFailed
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ServerName:   c.ServerName,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// connectOptions translates cfg into nats.Options with logging handlers.
func connectOptions(cfg *Config, log logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name("r1sync"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.ConnectWait > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectWait))
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	if cfg.TLS != nil {
		tlsConf, err := tlsConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	return opts, nil
}

// Connect dials NATS, ensures the event stream and returns a publisher. The
// caller owns the returned connection.
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*EventPublisher, *nats.Conn, error) {
	if log == nil {
		log = logger.NewTestLogger()
	}

	log = log.WithComponent("events")

	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}

	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	opts, err := connectOptions(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var js jetstream.JetStream
	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := EnsureStream(ctx, js, stream, subject); err != nil {
		nc.Close()
		return nil, nil, err
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("stream", stream).Msg("Connected to NATS JetStream")

	return NewEventPublisher(js, stream, subject, log), nc, nil
}
