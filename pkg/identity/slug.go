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

// Package identity derives the deterministic keys r1sync uses to match
// controller records against inventory objects.
package identity

import (
	"strings"
	"unicode"
)

const (
	// SlugMaxLen bounds every generated slug.
	SlugMaxLen = 100

	slugFallback = "ruckus"
)

// Slug lower-cases s, keeps letters and digits, maps space, '-', '_', '.'
// and '/' to '-', collapses runs of '-' and trims them from both ends.
// The result is at most SlugMaxLen runes and never empty.
func Slug(s string) string {
	return SlugMax(s, SlugMaxLen)
}

// SlugMax is Slug with a caller-chosen length bound.
func SlugMax(s string, maxLen int) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder

	lastDash := false

	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)

			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '/':
			if !lastDash {
				b.WriteByte('-')
			}

			lastDash = true
		}
	}

	slug := strings.Trim(Clip(strings.Trim(b.String(), "-"), maxLen), "-")

	if slug == "" {
		return slugFallback
	}

	return slug
}

// Clip cuts s to at most n runes without adding a marker.
func Clip(s string, n int) string {
	if n <= 0 {
		return ""
	}

	if len(s) <= n {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

// Truncate cuts s to at most n runes, replacing the tail with "..." when
// anything was dropped.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	if n <= 3 {
		return string(runes[:n])
	}

	return string(runes[:n-3]) + "..."
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
