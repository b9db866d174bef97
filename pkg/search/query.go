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
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// searchFields are the free-text match fields with their boosts.
var searchFields = []string{"title^4", "abstract^3", "keywords^3", "authors^2", "full_text"}

// Filters are the conjunctive filter predicates shared by search, grep
// and venues. Nil year bounds leave the range open on that side.
type Filters struct {
	YearFrom *int
	YearTo   *int
	Tag      string
	Folder   string
}

// Hit is one search result.
type Hit struct {
	ID         string
	Score      float64
	Source     Paper
	Highlights []string
}

var phrasePattern = regexp.MustCompile(`"([^"]+)"`)

// parseQuery splits a query into unquoted terms and quoted phrases.
func parseQuery(query string) (terms []string, phrases []string) {
	for _, match := range phrasePattern.FindAllStringSubmatch(query, -1) {
		phrases = append(phrases, match[1])
	}
	remaining := strings.TrimSpace(phrasePattern.ReplaceAllString(query, ""))
	if remaining != "" {
		terms = strings.Fields(remaining)
	}
	return terms, phrases
}

// buildQueryClause builds the free-text clause: quoted substrings become
// phrase predicates combined conjunctively with the unquoted remainder.
func buildQueryClause(query string) map[string]any {
	terms, phrases := parseQuery(query)

	multiMatch := func(q string, phrase bool) map[string]any {
		mm := map[string]any{"query": q, "fields": searchFields}
		if phrase {
			mm["type"] = "phrase"
		}
		return map[string]any{"multi_match": mm}
	}

	if len(phrases) == 0 && len(terms) > 0 {
		return multiMatch(strings.Join(terms, " "), false)
	}
	if len(phrases) == 1 && len(terms) == 0 {
		return multiMatch(phrases[0], true)
	}
	if len(phrases) == 0 && len(terms) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	var must []map[string]any
	if len(terms) > 0 {
		must = append(must, multiMatch(strings.Join(terms, " "), false))
	}
	for _, phrase := range phrases {
		must = append(must, multiMatch(phrase, true))
	}
	return map[string]any{"bool": map[string]any{"must": must}}
}

// buildFilters renders the conjunctive filter clauses.
func buildFilters(f Filters) []map[string]any {
	var filters []map[string]any
	if f.YearFrom != nil || f.YearTo != nil {
		yearRange := map[string]any{}
		if f.YearFrom != nil {
			yearRange["gte"] = *f.YearFrom
		}
		if f.YearTo != nil {
			yearRange["lte"] = *f.YearTo
		}
		filters = append(filters, map[string]any{"range": map[string]any{"year": yearRange}})
	}
	if f.Tag != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"tags": f.Tag}})
	}
	if f.Folder != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"folders": f.Folder}})
	}
	return filters
}

// buildBoolQuery combines the free-text clause and filters. An empty
// query matches everything (filters still apply).
func buildBoolQuery(query string, f Filters) map[string]any {
	must := []map[string]any{}
	if strings.TrimSpace(query) != "" {
		must = append(must, buildQueryClause(query))
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}
	return map[string]any{
		"bool": map[string]any{
			"must":   must,
			"filter": buildFilters(f),
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID        string  `json:"_id"`
			Score     float64 `json:"_score"`
			Source    Paper   `json:"_source"`
			Highlight struct {
				FullText []string `json:"full_text"`
			} `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		ByVenue struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"by_venue"`
	} `json:"aggregations"`
}

func (c *Client) runSearch(ctx context.Context, body map[string]any) (*searchResponse, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.alias),
		c.es.Search.WithBody(esutil.NewJSONReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	var parsed searchResponse
	if err := decodeResponse("search", res, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func hitsOf(parsed *searchResponse) []Hit {
	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{
			ID:         h.ID,
			Score:      h.Score,
			Source:     h.Source,
			Highlights: h.Highlight.FullText,
		})
	}
	return hits
}

// Search runs a filtered free-text query against the alias.
func (c *Client) Search(ctx context.Context, query string, f Filters, size int) ([]Hit, error) {
	body := map[string]any{
		"query": buildBoolQuery(query, f),
		"size":  size,
	}
	parsed, err := c.runSearch(ctx, body)
	if err != nil {
		return nil, err
	}
	return hitsOf(parsed), nil
}

// Count returns the number of documents matching the query and filters.
func (c *Client) Count(ctx context.Context, query string, f Filters) (int, error) {
	body := map[string]any{"query": buildBoolQuery(query, f)}
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.alias),
		c.es.Count.WithBody(esutil.NewJSONReader(body)),
	)
	if err != nil {
		return 0, fmt.Errorf("count request failed: %w", err)
	}
	var parsed struct {
		Count int `json:"count"`
	}
	if err := decodeResponse("count", res, &parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}

// GrepOptions controls the highlighted context search.
type GrepOptions struct {
	Size         int
	Fragments    int    // max fragments per document
	FragmentSize int    // max characters per fragment
	Sort         string // "relevance" (default), "year-asc", "year-desc"
	Highlight    string // highlight this instead of the query, if set
}

// Grep searches with highlighted fragments of full_text around matches,
// delimited by >>> and <<< markers.
func (c *Client) Grep(ctx context.Context, query string, f Filters, opts GrepOptions) ([]Hit, error) {
	highlight := map[string]any{
		"fields": map[string]any{
			"full_text": map[string]any{
				"fragment_size":       opts.FragmentSize,
				"number_of_fragments": opts.Fragments,
				"pre_tags":            []string{">>>"},
				"post_tags":           []string{"<<<"},
			},
		},
	}
	if opts.Highlight != "" {
		highlight["highlight_query"] = map[string]any{
			"match": map[string]any{"full_text": opts.Highlight},
		}
	}

	body := map[string]any{
		"query":     buildBoolQuery(query, f),
		"highlight": highlight,
		"size":      opts.Size,
	}

	switch opts.Sort {
	case "year-desc":
		body["sort"] = []map[string]any{{"year": map[string]any{"order": "desc", "missing": "_last"}}}
	case "year-asc":
		body["sort"] = []map[string]any{{"year": map[string]any{"order": "asc", "missing": "_last"}}}
	}

	parsed, err := c.runSearch(ctx, body)
	if err != nil {
		return nil, err
	}
	return hitsOf(parsed), nil
}

// VenueBucket is one venue aggregation bucket.
type VenueBucket struct {
	Venue string
	Count int
}

// Venues returns the top venues by document count among matches.
func (c *Client) Venues(ctx context.Context, query string, f Filters, size int) ([]VenueBucket, error) {
	body := map[string]any{
		"query": buildBoolQuery(query, f),
		"size":  0,
		"aggs": map[string]any{
			"by_venue": map[string]any{
				"terms": map[string]any{"field": "venue", "size": size},
			},
		},
	}
	parsed, err := c.runSearch(ctx, body)
	if err != nil {
		return nil, err
	}

	buckets := make([]VenueBucket, 0, len(parsed.Aggregations.ByVenue.Buckets))
	for _, b := range parsed.Aggregations.ByVenue.Buckets {
		buckets = append(buckets, VenueBucket{Venue: b.Key, Count: b.DocCount})
	}
	return buckets, nil
}
