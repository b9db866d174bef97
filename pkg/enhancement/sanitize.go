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

package enhancement

import "strings"

// sanitizeContent walks a content tree and removes NUL bytes from every
// string leaf. Postgres JSONB rejects \u0000, so violating content is
// repaired at the store boundary rather than rejected; robots never need
// to know about the backing format.
func sanitizeContent(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ReplaceAll(val, "\x00", "")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[strings.ReplaceAll(k, "\x00", "")] = sanitizeContent(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeContent(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = strings.ReplaceAll(item, "\x00", "")
		}
		return out
	default:
		return v
	}
}
