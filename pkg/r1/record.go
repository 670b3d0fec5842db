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
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
)

// Record is one loosely typed object from a controller reply. The API
// reports the same attribute under different names depending on endpoint
// and firmware, so accessors take a list of candidate keys.
type Record map[string]interface{}

// Str returns the first candidate key holding a non-blank string or number,
// trimmed.
func (r Record) Str(keys ...string) string {
	for _, k := range keys {
		if s := scalarString(r[k]); s != "" {
			return s
		}
	}

	return ""
}

// Obj returns the nested object at key, or an empty Record.
func (r Record) Obj(key string) Record {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Record(m)
	}

	return Record{}
}

// Bool returns the boolean at key. The second result is false when the key
// is absent or null.
func (r Record) Bool(key string) (bool, bool) {
	switch v := r[key].(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return strings.TrimSpace(v) != "", true
		}

		return b, true
	}

	return false, false
}

// Has reports whether key is present with a non-null value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// FirstMAC returns the first string value that looks like a MAC, scanning
// keys in sorted order so the pick is stable.
func (r Record) FirstMAC() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if s, ok := r[k].(string); ok && identity.LooksLikeMAC(s) {
			return identity.NormalizeMAC(s)
		}
	}

	return ""
}

// JSON re-encodes the record for storage.
func (r Record) JSON() json.RawMessage {
	b, err := json.Marshal(r)
	if err != nil {
		return json.RawMessage("{}")
	}

	return b
}

func scalarString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}

	return ""
}

// stringList flattens a list or a comma/semicolon separated string.
func stringList(v interface{}) []string {
	var out []string

	switch x := v.(type) {
	case []interface{}:
		for _, item := range x {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(strings.ReplaceAll(x, ";", ","), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case float64:
		out = append(out, scalarString(x))
	}

	return out
}

// displayValue renders a value the way it should appear in a description.
func displayValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, displayValue(item))
		}

		return strings.Join(parts, ",")
	}

	if s := scalarString(v); s != "" {
		return s
	}

	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(b)
}
