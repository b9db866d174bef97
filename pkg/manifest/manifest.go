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

// Package manifest loads Paperpile CSV exports into a filename-keyed
// metadata map.
//
// Two formats are recognized: the full Paperpile export (detected by an
// Attachments or Abstract column, carrying rich metadata) and a
// normalized format with file_name/title/venue/year/tags columns.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Row is one parsed manifest entry.
type Row struct {
	FileName string
	Title    string
	Venue    string
	Year     int // 0 means unknown
	Tags     []string
	Folders  []string

	// Rich metadata, only present in the full export format.
	Abstract string
	Authors  []string
	Keywords []string
	DOI      string
	ArxivID  string
	ItemType string
}

// Content builds the enhancement payload for this row. Missing fields are
// emitted as explicit nulls so that search filters behave correctly.
func (r *Row) Content() map[string]any {
	return map[string]any{
		"title":     nullable(r.Title),
		"venue":     nullable(r.Venue),
		"year":      nullableInt(r.Year),
		"tags":      r.Tags,
		"folders":   r.Folders,
		"abstract":  nullable(r.Abstract),
		"authors":   r.Authors,
		"keywords":  r.Keywords,
		"doi":       nullable(r.DOI),
		"arxiv_id":  nullable(r.ArxivID),
		"item_type": nullable(r.ItemType),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// Load parses a manifest CSV into a map keyed by lowercased file name.
// Rows without a resolvable file name are skipped.
func Load(path string) (map[string]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	_, hasAttachments := cols["Attachments"]
	_, hasAbstract := cols["Abstract"]
	fullFormat := hasAttachments || hasAbstract

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest rows: %w", err)
	}

	out := make(map[string]Row, len(records))
	for _, rec := range records {
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		var row Row
		if fullFormat {
			row = parseFullRow(get)
		} else {
			row = parseNormalizedRow(get)
		}
		if row.FileName == "" {
			continue
		}
		out[strings.ToLower(row.FileName)] = row
	}
	return out, nil
}

func parseFullRow(get func(string) string) Row {
	venue := get("Journal")
	if venue == "" {
		venue = get("Proceedings title")
	}
	return Row{
		FileName: attachmentFileName(get("Attachments")),
		Title:    get("Title"),
		Venue:    venue,
		Year:     parseYear(get("Publication year")),
		Tags:     splitList(get("Labels filed in"), ";"),
		Folders:  splitList(get("Folders filed in"), ";"),
		Abstract: get("Abstract"),
		Authors:  splitList(get("Authors"), ","),
		Keywords: splitKeywords(get("Keywords")),
		DOI:      get("DOI"),
		ArxivID:  get("Arxiv ID"),
		ItemType: get("Item type"),
	}
}

func parseNormalizedRow(get func(string) string) Row {
	return Row{
		FileName: get("file_name"),
		Title:    get("title"),
		Venue:    get("venue"),
		Year:     parseYear(get("year")),
		Tags:     splitList(get("tags"), ";"),
	}
}

// attachmentFileName pulls the PDF base name out of the Attachments
// column, e.g. "All Papers/X/Xia et al. 2025 - Title.pdf;...".
func attachmentFileName(attachments string) string {
	if attachments == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(attachments, ";")[0])
	if first == "" {
		return ""
	}
	return filepath.Base(first)
}

func parseYear(s string) int {
	if s == "" {
		return 0
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return year
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitKeywords splits on semicolons when present, otherwise commas.
func splitKeywords(s string) []string {
	if strings.Contains(s, ";") {
		return splitList(s, ";")
	}
	return splitList(s, ",")
}

// duplicateSuffix matches parenthesized numeric duplicate markers such as
// "(1)" or " (12)" that downloaders append to file names.
var duplicateSuffix = regexp.MustCompile(`\s*\(\d+\)`)

// Lookup finds the manifest row for a file name (case-folded). When there
// is no direct hit and the name carries a duplicate suffix, the lookup is
// retried with the suffix stripped.
func Lookup(rows map[string]Row, fileName string) (Row, bool) {
	key := strings.ToLower(fileName)
	if row, ok := rows[key]; ok {
		return row, true
	}
	if duplicateSuffix.MatchString(key) {
		alt := strings.TrimSpace(duplicateSuffix.ReplaceAllString(key, ""))
		if row, ok := rows[alt]; ok {
			return row, true
		}
	}
	return Row{}, false
}
