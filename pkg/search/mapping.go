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

// Package search projects the catalog and artifact store into an
// Elasticsearch index managed through versioned aliases, and exposes the
// query surface over it.
//
// The application only ever reads and writes through the alias; physical
// indices are named <alias>_vN and swapped atomically on migration.
package search

// MappingVersion is informational: bump it together with indexMapping so
// operators can correlate es-status output with deployed mappings.
// Migrations themselves derive the next version from the alias target.
const MappingVersion = 2

// indexMapping is the settings + mappings body for newly created physical
// indices.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "title": {
        "type": "text",
        "analyzer": "english",
        "fields": {"raw": {"type": "keyword"}}
      },
      "abstract": {
        "type": "text",
        "analyzer": "english"
      },
      "authors": {
        "type": "text",
        "fields": {"raw": {"type": "keyword"}}
      },
      "keywords": {"type": "keyword"},
      "venue": {"type": "keyword"},
      "year": {"type": "integer"},
      "tags": {"type": "keyword"},
      "item_type": {"type": "keyword"},
      "doi": {"type": "keyword"},
      "arxiv_id": {"type": "keyword"},
      "folders": {"type": "keyword"},
      "file_path": {"type": "keyword"},
      "full_text": {"type": "text"}
    }
  }
}`
