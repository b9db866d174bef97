// Copyright 2026 The Paperdex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package textclean normalizes text extracted from PDFs.
package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ligatures maps typographic ligatures to their expansions. NFKC handles
// most of these already; the explicit map covers renderers that emit the
// raw codepoints after decomposition fails.
var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Clean normalizes raw extracted PDF text:
//
//   - line endings become \n
//   - typographic ligatures are expanded (NFKC plus an explicit map)
//   - lines consisting only of digits are dropped (page numbers)
//   - whitespace runs within a line collapse to a single space
//   - runs of three or more blank lines collapse to two
//   - leading/trailing whitespace is trimmed
//
// Clean is idempotent: Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = ligatures.Replace(norm.NFKC.String(text))

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			cleaned = append(cleaned, "")
			continue
		}
		joined := strings.Join(fields, " ")
		if isDigits(joined) {
			continue
		}
		cleaned = append(cleaned, joined)
	}

	text = strings.Join(cleaned, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
