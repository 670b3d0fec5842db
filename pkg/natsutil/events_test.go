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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/r1sync/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type published struct {
	subject string
	data    []byte
	opts    int
}

type fakeStream struct {
	msgs []published
	err  error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.msgs = append(f.msgs, published{subject: subject, data: data, opts: len(opts)})

	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

func finishedRun() *models.SyncRun {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	return &models.SyncRun{
		ID:          uuid.MustParse("6f1c1b4e-8f55-4d7c-9a53-2f1f0c7c1a01"),
		ConfigID:    3,
		TenantID:    7,
		Started:     started,
		Finished:    &finished,
		Status:      models.RunStatusSuccess,
		Summary:     "Done. venues=1 devices=2",
		RunCounters: models.RunCounters{Venues: 1, Devices: 2},
	}
}

func TestPublishRunFinished(t *testing.T) {
	t.Parallel()

	js := &fakeStream{}
	pub := NewEventPublisher(js, DefaultStream, "", nil)

	require.NoError(t, pub.PublishRunFinished(context.Background(), finishedRun()))
	require.Len(t, js.msgs, 1)

	msg := js.msgs[0]
	assert.Equal(t, DefaultSubject, msg.subject)
	assert.Equal(t, 1, msg.opts, "message id option for dedupe")

	var event struct {
		models.CloudEvent
		Data models.SyncRunEvent `json:"data"`
	}

	require.NoError(t, json.Unmarshal(msg.data, &event))

	assert.Equal(t, models.CloudEventsSpecVersion, event.SpecVersion)
	assert.Equal(t, models.EventTypeSyncRunFinished, event.Type)
	assert.Equal(t, "configs/3/runs/6f1c1b4e-8f55-4d7c-9a53-2f1f0c7c1a01", event.Subject)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 30, 0, time.UTC), event.Time.UTC())

	assert.Equal(t, int64(7), event.Data.TenantID)
	assert.Equal(t, models.RunStatusSuccess, event.Data.Status)
	assert.Equal(t, 2, event.Data.Counters.Devices)
	assert.Equal(t, 90*time.Second, time.Duration(event.Data.Duration))
}

func TestPublishRunFinishedErrors(t *testing.T) {
	t.Parallel()

	pub := NewEventPublisher(&fakeStream{err: errTestFixture}, DefaultStream, "custom.subject", nil)

	err := pub.PublishRunFinished(context.Background(), finishedRun())
	require.ErrorIs(t, err, errTestFixture)

	require.ErrorIs(t, pub.PublishRunFinished(context.Background(), nil), errNilRun)
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		want     []string
	}{
		{"adds subject when list empty", nil, []string{DefaultSubject}},
		{"keeps list when wildcard matches", []string{"events.r1sync.*"}, []string{"events.r1sync.*"}},
		{"keeps list when greater wildcard matches", []string{"events.>"}, []string{"events.>"}},
		{"appends when unmatched", []string{"logs.syslog.*"}, []string{"logs.syslog.*", DefaultSubject}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), DefaultSubject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		expected bool
	}{
		{"exact match", "events.r1sync.run", true},
		{"single wildcard", "events.*.run", true},
		{"greater wildcard", "events.>", true},
		{"no match length", "events.*", false},
		{"no match tokens", "logs.syslog.*", false},
		{"pattern longer than subject", "events.r1sync.run.extra", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, DefaultSubject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isStreamMissingErr(tc.err))
		})
	}
}

func TestConnectOptionsRejectPartialTLS(t *testing.T) {
	t.Parallel()

	_, err := connectOptions(&Config{TLS: &TLSConfig{CertFile: "client.crt"}}, nil)
	require.ErrorIs(t, err, ErrTLSIncomplete)

	opts, err := connectOptions(&Config{ConnectWait: time.Second, CredsFile: "user.creds"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}
