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

// Package syncerr classifies failures raised while reconciling a controller
// tenant into the inventory.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration covers missing credentials, bad mapping mode and
	// redirecting token endpoints.
	KindConfiguration
	// KindAuthentication is a token endpoint refusal or malformed token reply.
	KindAuthentication
	// KindUpstream is a non-success controller API response or transport failure.
	KindUpstream
	// KindDataAnomaly marks a record that was skipped or defaulted. It never aborts a run.
	KindDataAnomaly
	// KindStoreWrite is a failed inventory or run log write.
	KindStoreWrite
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindUpstream:
		return "upstream"
	case KindDataAnomaly:
		return "data_anomaly"
	case KindStoreWrite:
		return "store_write"
	case KindUnknown:
		return "unknown"
	}

	return "unknown"
}

// Error carries a Kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}

	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fatal reports whether err must abort the run.
func Fatal(err error) bool {
	return err != nil && KindOf(err) != KindDataAnomaly
}
