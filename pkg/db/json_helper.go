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
	"encoding/json"
	"fmt"
	"reflect"
)

// rawJSON stores an empty payload as NULL.
func rawJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	return []byte(raw)
}

// jsonb encodes v for a JSONB column. Nil slices and maps are written as
// empty containers so NOT NULL columns never receive a JSON null.
func jsonb(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)

	if rv.IsValid() && rv.IsNil() {
		switch rv.Kind() {
		case reflect.Slice:
			return []byte("[]"), nil
		case reflect.Map:
			return []byte("{}"), nil
		default:
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}

	return b, nil
}

// fromJSONB decodes a JSONB column into dst. An empty column leaves dst
// untouched.
func fromJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}

	return nil
}
