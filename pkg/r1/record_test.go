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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordStr(t *testing.T) {
	r := Record{"a": "  ", "b": 42.0, "c": "x"}

	assert.Equal(t, "42", r.Str("a", "b", "c"))
	assert.Equal(t, "x", r.Str("missing", "c"))
	assert.Empty(t, r.Str("missing"))
	assert.Empty(t, r.Obj("a").Str("anything"))
}

func TestRecordBool(t *testing.T) {
	r := Record{"t": true, "s": "false", "n": nil}

	v, ok := r.Bool("t")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = r.Bool("s")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = r.Bool("n")
	assert.False(t, ok)
}

func TestRecordFirstMACIsStable(t *testing.T) {
	r := Record{
		"zMac":  "AA:BB:CC:DD:EE:02",
		"aMac":  "aabbccddee01",
		"label": "not a mac",
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, "aa:bb:cc:dd:ee:01", r.FirstMAC())
	}

	assert.Empty(t, Record{"x": "1"}.FirstMAC())
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, stringList([]interface{}{1.0, "2", ""}))
	assert.Equal(t, []string{"10", "20", "30"}, stringList("10, 20;30"))
	assert.Nil(t, stringList(nil))
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "10,20", displayValue([]interface{}{10.0, "20"}))
	assert.Equal(t, "", displayValue(nil))
	assert.Equal(t, `{"a":1}`, displayValue(map[string]interface{}{"a": 1}))
}
