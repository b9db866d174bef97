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

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/paperdex/paperdex/pkg/enhancement"
)

// Paper is the per-document indexable view. Missing fields serialize as
// null (pointers) or are absent (nil slices) rather than empty strings,
// so term and range filters behave correctly.
type Paper struct {
	Title    *string  `json:"title"`
	Abstract *string  `json:"abstract"`
	Authors  []string `json:"authors,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Venue    *string  `json:"venue"`
	Year     *int     `json:"year"`
	Tags     []string `json:"tags,omitempty"`
	ItemType *string  `json:"item_type"`
	DOI      *string  `json:"doi"`
	ArxivID  *string  `json:"arxiv_id"`
	Folders  []string `json:"folders,omitempty"`
	FilePath string   `json:"file_path"`
	FullText string   `json:"full_text"`
}

// BuildPaper derives the indexable view from a document and its
// artifacts: full text from the latest FULL_TEXT artifact (empty string
// if none) and the bibliographic record from the latest
// PAPERPILE_METADATA artifact.
func BuildPaper(da enhancement.DocumentArtifacts) Paper {
	var fullText string
	var meta map[string]any

	// Artifacts arrive ordered by creation time ascending, so the last
	// match of each type is the latest.
	for _, e := range da.Enhancements {
		switch e.Type {
		case enhancement.TypeFullText:
			if text, ok := e.Content["text"].(string); ok {
				fullText = text
			}
		case enhancement.TypePaperpileMetadata:
			meta = e.Content
		}
	}

	return Paper{
		Title:    strField(meta, "title"),
		Abstract: strField(meta, "abstract"),
		Authors:  strSlice(meta, "authors"),
		Keywords: strSlice(meta, "keywords"),
		Venue:    strField(meta, "venue"),
		Year:     intField(meta, "year"),
		Tags:     strSlice(meta, "tags"),
		ItemType: strField(meta, "item_type"),
		DOI:      strField(meta, "doi"),
		ArxivID:  strField(meta, "arxiv_id"),
		Folders:  strSlice(meta, "folders"),
		FilePath: da.Document.FilePath,
		FullText: fullText,
	}
}

func strField(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok && s != "" {
		return &s
	}
	return nil
}

// intField reads a JSON number (decoded as float64) or a Go int.
func intField(m map[string]any, key string) *int {
	switch v := m[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}

func strSlice(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BulkIndex writes documents with their derived views into the alias.
// Per-document failures are logged and skipped, not raised; the count of
// successfully flushed documents is returned.
func (c *Client) BulkIndex(ctx context.Context, docs []enhancement.DocumentArtifacts) (int, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: c.es,
		Index:  c.alias,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for _, da := range docs {
		payload, err := json.Marshal(BuildPaper(da))
		if err != nil {
			slog.Warn("Failed to encode document, skipping", "document_id", da.Document.ID, "error", err)
			continue
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.FormatInt(da.Document.ID, 10),
			Body:       bytes.NewReader(payload),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					slog.Warn("Failed to index document", "document_id", item.DocumentID, "error", err)
				} else {
					slog.Warn("Failed to index document", "document_id", item.DocumentID, "reason", res.Error.Reason)
				}
			},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue bulk item: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("bulk indexing failed: %w", err)
	}

	stats := bi.Stats()
	if stats.NumFailed > 0 {
		slog.Warn("Bulk indexing had failures", "failed", stats.NumFailed, "flushed", stats.NumFlushed)
	}
	return int(stats.NumFlushed), nil
}

// ProjectionSource is the bulk join the reprojection reads from.
type ProjectionSource interface {
	ListWithArtifacts(ctx context.Context, ids []int64, limit int) ([]enhancement.DocumentArtifacts, error)
}

// Reproject rebuilds the index contents from the catalog and artifact
// store. An empty ids slice means all documents. The alias is created if
// missing and refreshed afterwards for immediate searchability. Returns
// the count successfully indexed.
func (c *Client) Reproject(ctx context.Context, source ProjectionSource, ids []int64) (int, error) {
	docs, err := source.ListWithArtifacts(ctx, ids, 0)
	if err != nil {
		return 0, err
	}
	slog.Info("Fetched documents for projection", "count", len(docs))
	if len(docs) == 0 {
		return 0, nil
	}

	if err := c.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	count, err := c.BulkIndex(ctx, docs)
	if err != nil {
		return 0, err
	}

	if err := c.Refresh(ctx); err != nil {
		return 0, err
	}

	slog.Info("Projection complete", "indexed", count)
	return count, nil
}
