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
	"strings"
	"unicode"
)

// splitSQLStatements splits a migration file on top-level semicolons. Quoted
// strings and dollar-quoted function bodies stay intact; comments are
// dropped.
func splitSQLStatements(content string) []string {
	sp := &migrationSplitter{src: content}

	for sp.pos < len(sp.src) {
		sp.step()
	}

	sp.flush()

	return sp.out
}

// migrationSplitter walks one migration file a byte at a time.
type migrationSplitter struct {
	src string
	pos int
	buf strings.Builder
	out []string

	quote     byte // ' or " while inside a quoted literal or identifier
	dollarTag string
	comment   byte // '-' for a line comment, '*' for a block comment
}

func (sp *migrationSplitter) next() byte {
	if sp.pos+1 < len(sp.src) {
		return sp.src[sp.pos+1]
	}

	return 0
}

func (sp *migrationSplitter) emit(s string) {
	sp.buf.WriteString(s)
	sp.pos += len(s)
}

func (sp *migrationSplitter) flush() {
	if stmt := strings.TrimSpace(sp.buf.String()); stmt != "" {
		sp.out = append(sp.out, stmt)
	}

	sp.buf.Reset()
}

func (sp *migrationSplitter) step() {
	ch := sp.src[sp.pos]

	switch {
	case sp.comment == '-':
		if ch == '\n' {
			sp.comment = 0
			sp.emit("\n")

			return
		}

		sp.pos++
	case sp.comment == '*':
		if ch == '*' && sp.next() == '/' {
			sp.comment = 0
			sp.pos++
		}

		sp.pos++
	case sp.dollarTag != "":
		if strings.HasPrefix(sp.src[sp.pos:], sp.dollarTag) {
			sp.emit(sp.dollarTag)
			sp.dollarTag = ""

			return
		}

		sp.emit(sp.src[sp.pos : sp.pos+1])
	case sp.quote != 0:
		if ch == sp.quote {
			sp.quote = 0
		}

		sp.emit(sp.src[sp.pos : sp.pos+1])
	case ch == '-' && sp.next() == '-', ch == '/' && sp.next() == '*':
		sp.comment = sp.next()
		sp.pos += 2
	case ch == '\'' || ch == '"':
		sp.quote = ch
		sp.emit(sp.src[sp.pos : sp.pos+1])
	case ch == ';':
		sp.flush()
		sp.pos++
	default:
		if tag := dollarTagAt(sp.src[sp.pos:]); tag != "" {
			sp.dollarTag = tag
			sp.emit(tag)

			return
		}

		sp.emit(sp.src[sp.pos : sp.pos+1])
	}
}

// dollarTagAt returns the $tag$ opening s, or "" when s does not start with
// one. Positional parameters such as $1 are not tags.
func dollarTagAt(s string) string {
	if s == "" || s[0] != '$' {
		return ""
	}

	for i := 1; i < len(s); i++ {
		ch := s[i]

		switch {
		case ch == '$':
			return s[:i+1]
		case ch == '_', unicode.IsLetter(rune(ch)), unicode.IsDigit(rune(ch)):
		default:
			return ""
		}
	}

	return ""
}

// extractVersion returns the numeric prefix of a migration file name, e.g.
// "00002" for "00002_sync_runs.up.sql". Names without a prefix are returned
// whole.
func extractVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")

	return version
}
