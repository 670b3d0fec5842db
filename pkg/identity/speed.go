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

import (
	"math"
	"strconv"
	"strings"
)

// ParseLinkSpeedKbps parses values such as "10G", "1 Gb/sec" or "100M".
func ParseLinkSpeedKbps(s string) (int64, bool) {
	t := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
	if t == "" {
		return 0, false
	}

	t = strings.NewReplacer("gb/sec", "g", "mb/sec", "m", "kb/sec", "k").Replace(t)

	return unitToKbps(t)
}

// CapacityToKbps parses a port capacity such as "2.5G/5G/10G MultiGig"
// and returns the largest candidate.
func CapacityToKbps(s string) (int64, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return 0, false
	}

	t = strings.NewReplacer(
		"multigig", "",
		"persecond", "",
		" ", "",
		"gb/sec", "g",
		"mb/sec", "m",
		"kb/sec", "k",
		"gbps", "g",
		"mbps", "m",
	).Replace(t)

	var (
		best  int64
		found bool
	)

	for _, part := range strings.Split(t, "/") {
		v, ok := unitToKbps(part)
		if !ok {
			continue
		}

		if !found || v > best {
			best = v
			found = true
		}
	}

	return best, found
}

func unitToKbps(t string) (int64, bool) {
	if len(t) < 2 {
		return 0, false
	}

	var mult float64

	switch t[len(t)-1] {
	case 'g':
		mult = 1_000_000
	case 'm':
		mult = 1_000
	case 'k':
		mult = 1
	default:
		return 0, false
	}

	f, err := strconv.ParseFloat(t[:len(t)-1], 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}

	return int64(f * mult), true
}
