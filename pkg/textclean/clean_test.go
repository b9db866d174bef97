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

package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ligatures expanded",
			input:    "eﬃcient classiﬁcation of workﬂows",
			expected: "efficient classification of workflows",
		},
		{
			name:     "crlf normalized",
			input:    "line one\r\nline two\rline three",
			expected: "line one\nline two\nline three",
		},
		{
			name:     "page numbers dropped",
			input:    "Introduction\n42\nMethods",
			expected: "Introduction\nMethods",
		},
		{
			name:     "spaced page number dropped",
			input:    "Results\n 1 7 \nDiscussion",
			expected: "Results\nDiscussion",
		},
		{
			name:     "numbers inside prose kept",
			input:    "section 42 covers this",
			expected: "section 42 covers this",
		},
		{
			name:     "whitespace runs collapse",
			input:    "too   many\t\tspaces",
			expected: "too many spaces",
		},
		{
			name:     "blank line runs collapse",
			input:    "para one\n\n\n\n\npara two",
			expected: "para one\n\npara two",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "\n\n  hello  \n\n",
			expected: "hello",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only page numbers",
			input:    "1\n2\n3",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"eﬃcient  classiﬁcation\r\n\r\n\r\n\r\n42\nof workﬂows",
		"plain already-clean text",
		"",
	}
	for _, input := range inputs {
		once := Clean(input)
		assert.Equal(t, once, Clean(once))
	}
}
