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

// Package natsutil publishes sync run events to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
)

const (
	DefaultStream  = "R1SYNC_EVENTS"
	DefaultSubject = "events.r1sync.run"

	eventSource = "r1sync/scheduler"
)

var errNilRun = errors.New("sync run is nil")

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher emits CloudEvents for finalized sync runs.
type EventPublisher struct {
	js      streamPublisher
	stream  string
	subject string
	logger  logger.Logger
}

// NewEventPublisher wraps an existing JetStream context.
func NewEventPublisher(js streamPublisher, stream, subject string, log logger.Logger) *EventPublisher {
	if subject == "" {
		subject = DefaultSubject
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EventPublisher{js: js, stream: stream, subject: subject, logger: log}
}

// PublishRunFinished publishes one run.finished event.
func (p *EventPublisher) PublishRunFinished(ctx context.Context, run *models.SyncRun) error {
	if run == nil {
		return errNilRun
	}

	ts := run.Started
	if run.Finished != nil {
		ts = *run.Finished
	}

	event := models.CloudEvent{
		SpecVersion:     models.CloudEventsSpecVersion,
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            models.EventTypeSyncRunFinished,
		DataContentType: "application/json",
		Subject:         fmt.Sprintf("configs/%d/runs/%s", run.ConfigID, run.ID),
		Time:            &ts,
		Data:            models.NewSyncRunEvent(run),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync run event: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.subject, payload, jetstream.WithMsgID(run.ID.String()))
	if err != nil {
		return fmt.Errorf("failed to publish sync run event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", p.subject).
		Uint64("seq", ack.Sequence).
		Msg("Published sync run event")

	return nil
}

// EnsureStream creates the stream when it is missing and makes sure an
// existing one captures subject.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream, subject string) error {
	info, err := js.Stream(ctx, stream)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", stream, err)
		}

		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     stream,
			Subjects: []string{subject},
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", stream, err)
		}

		return nil
	}

	cfg := info.CachedInfo().Config

	subjects := ensureSubjectList(append([]string(nil), cfg.Subjects...), subject)
	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject %s to stream %s: %w", subject, stream, err)
	}

	return nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern (with * and > wildcards) covers subject.
func matchesSubject(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")

	for i, tok := range p {
		if tok == ">" {
			return len(s) > i
		}

		if i >= len(s) {
			return false
		}

		if tok != "*" && tok != s[i] {
			return false
		}
	}

	return len(p) == len(s)
}
