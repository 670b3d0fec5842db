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

import "errors"

var (
	ErrNoDatabaseConfig = errors.New("database config is required")
	ErrTLSDisabled      = errors.New("postgres tls configured but ssl_mode is disable")
	ErrTLSIncomplete    = errors.New("postgres tls: cert_file, key_file, and ca_file are required")
	ErrInvalidCA        = errors.New("postgres tls: unable to append CA certificate")

	errNilPool     = errors.New("postgres pool is nil")
	errCableEnds   = errors.New("link endpoints must differ")
	errUnsupported = errors.New("schema does not support this object")
)
