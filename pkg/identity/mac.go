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

package identity

import "strings"

// UnknownMAC is the bucket key for clients reported without a usable MAC.
const UnknownMAC = "unknown"

const serialMaxLen = 50

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

// LooksLikeMAC accepts 12 hex digits or 17 characters holding exactly five
// colons and hex digits otherwise.
func LooksLikeMAC(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))

	switch len(s) {
	case 12:
		for _, r := range s {
			if !isHex(r) {
				return false
			}
		}

		return true
	case 17:
		colons := 0

		for _, r := range s {
			if r == ':' {
				colons++

				continue
			}

			if !isHex(r) {
				return false
			}
		}

		return colons == 5
	}

	return false
}

// NormalizeMAC lower-cases s and inserts colons into a bare 12 hex digit
// value. Other input is returned trimmed and lower-cased.
func NormalizeMAC(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	if len(s) != 12 || !LooksLikeMAC(s) {
		return s
	}

	var b strings.Builder

	b.Grow(17)

	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}

		b.WriteString(s[i : i+2])
	}

	return b.String()
}

// MACToSerial is the canonical MAC without separators. Client devices use it
// as their serial, so one MAC is one device.
func MACToSerial(mac string) string {
	return Clip(strings.ReplaceAll(NormalizeMAC(mac), ":", ""), serialMaxLen)
}
