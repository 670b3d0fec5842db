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

import "errors"

var (
	errEmptyBaseURL     = errors.New("base_url is empty")
	errEmptyTenantID    = errors.New("ruckus_tenant_id is empty")
	errEmptyCredentials = errors.New("client_id/client_secret is empty")
	errTokenRedirect    = errors.New("OAuth token endpoint redirected; expected a direct token response, check the region host and application credentials")
	errNoAccessToken    = errors.New("no access_token in OAuth response")
	errTokenStatus      = errors.New("OAuth token request failed")
)
