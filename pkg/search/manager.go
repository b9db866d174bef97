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
	"log/slog"
	"sort"
	"strconv"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// IndexManager runs zero-downtime mapping migrations via versioned
// indices behind an alias.
//
//	Initialize()  creates <alias>_v1 and points the alias at it
//	Migrate()     creates _v(k+1), reindexes server-side, swaps the alias
//	Rollback()    swaps the alias back to _v(k-1)
//	Cleanup(n)    deletes old versions, keeping the n latest
//
// The alias resolves to exactly one physical index at every point; swaps
// are a single _aliases action.
type IndexManager struct {
	es    *elasticsearch.Client
	alias string
}

// NewIndexManager builds a manager for the given alias.
func NewIndexManager(es *elasticsearch.Client, alias string) *IndexManager {
	return &IndexManager{es: es, alias: alias}
}

// CurrentIndex returns the physical index behind the alias, or "" when
// the alias does not exist.
func (m *IndexManager) CurrentIndex(ctx context.Context) (string, error) {
	res, err := m.es.Indices.GetAlias(
		m.es.Indices.GetAlias.WithContext(ctx),
		m.es.Indices.GetAlias.WithName(m.alias),
	)
	if err != nil {
		return "", fmt.Errorf("failed to resolve alias: %w", err)
	}
	if res.StatusCode == 404 {
		res.Body.Close()
		return "", nil
	}

	// Response shape: {"papers_v1": {"aliases": {"papers": {}}}}
	var body map[string]any
	if err := decodeResponse("get alias", res, &body); err != nil {
		return "", err
	}
	for index := range body {
		return index, nil
	}
	return "", nil
}

// version extracts N from "<alias>_vN".
func (m *IndexManager) version(indexName string) (int, error) {
	i := strings.LastIndex(indexName, "_v")
	if i < 0 {
		return 0, fmt.Errorf("invalid versioned index name: %s", indexName)
	}
	v, err := strconv.Atoi(indexName[i+2:])
	if err != nil {
		return 0, fmt.Errorf("invalid versioned index name: %s", indexName)
	}
	return v, nil
}

func (m *IndexManager) indexName(version int) string {
	return fmt.Sprintf("%s_v%d", m.alias, version)
}

// Initialize creates <alias>_v1 with the current mapping and points the
// alias at it, unless the alias already exists. Returns the physical
// index name behind the alias.
func (m *IndexManager) Initialize(ctx context.Context) (string, error) {
	current, err := m.CurrentIndex(ctx)
	if err != nil {
		return "", err
	}
	if current != "" {
		return current, nil
	}

	name := m.indexName(1)
	slog.Info("Creating initial index", "index", name)
	if err := m.createIndex(ctx, name); err != nil {
		return "", err
	}

	res, err := m.es.Indices.PutAlias([]string{name}, m.alias,
		m.es.Indices.PutAlias.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create alias: %w", err)
	}
	if err := decodeResponse("put alias", res, nil); err != nil {
		return "", err
	}

	slog.Info("Created alias", "alias", m.alias, "index", name)
	return name, nil
}

// Migrate creates the next index version with the current mapping, copies
// the data server-side waiting for completion, atomically swings the
// alias, and write-blocks the old index. Returns the new index name.
func (m *IndexManager) Migrate(ctx context.Context) (string, error) {
	oldIndex, err := m.CurrentIndex(ctx)
	if err != nil {
		return "", err
	}
	if oldIndex == "" {
		slog.Info("No existing index, initializing instead")
		return m.Initialize(ctx)
	}

	oldVersion, err := m.version(oldIndex)
	if err != nil {
		return "", err
	}
	newIndex := m.indexName(oldVersion + 1)
	slog.Info("Migrating index", "from", oldIndex, "to", newIndex)

	if err := m.createIndex(ctx, newIndex); err != nil {
		return "", err
	}

	if err := m.reindex(ctx, oldIndex, newIndex); err != nil {
		return "", err
	}

	if err := m.swapAlias(ctx, oldIndex, newIndex); err != nil {
		return "", err
	}

	// Write-block the superseded index so nothing stale lands in it
	// while it is kept around for rollback.
	res, err := m.es.Indices.AddBlock([]string{oldIndex}, "write",
		m.es.Indices.AddBlock.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to write-block old index: %w", err)
	}
	if err := decodeResponse("add block", res, nil); err != nil {
		return "", err
	}

	slog.Info("Migration complete", "from", oldIndex, "to", newIndex)
	return newIndex, nil
}

// Rollback swings the alias back to the previous version. It fails when
// the alias is at v1 or the previous index no longer exists.
func (m *IndexManager) Rollback(ctx context.Context) (string, error) {
	current, err := m.CurrentIndex(ctx)
	if err != nil {
		return "", err
	}
	if current == "" {
		return "", fmt.Errorf("no index to roll back from")
	}

	version, err := m.version(current)
	if err != nil {
		return "", err
	}
	if version <= 1 {
		return "", fmt.Errorf("cannot roll back past %s", m.indexName(1))
	}

	previous := m.indexName(version - 1)
	exists, err := m.indexExists(ctx, previous)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("previous index %s does not exist", previous)
	}

	slog.Info("Rolling back index", "from", current, "to", previous)

	// Lift the write block before the swap so the index is writable the
	// moment the alias lands on it.
	res, err := m.es.Indices.PutSettings(
		strings.NewReader(`{"index.blocks.write": false}`),
		m.es.Indices.PutSettings.WithContext(ctx),
		m.es.Indices.PutSettings.WithIndex(previous),
	)
	if err != nil {
		return "", fmt.Errorf("failed to unblock previous index: %w", err)
	}
	if err := decodeResponse("put settings", res, nil); err != nil {
		return "", err
	}

	if err := m.swapAlias(ctx, current, previous); err != nil {
		return "", err
	}

	slog.Info("Rollback complete", "from", current, "to", previous)
	return previous, nil
}

// Cleanup deletes versioned indices older than the keep latest ones.
// Already-missing indices are tolerated. Returns the deleted names.
func (m *IndexManager) Cleanup(ctx context.Context, keep int) ([]string, error) {
	current, err := m.CurrentIndex(ctx)
	if err != nil {
		return nil, err
	}
	if current == "" {
		return nil, nil
	}
	version, err := m.version(current)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for v := 1; v <= version-keep; v++ {
		name := m.indexName(v)
		ok, err := m.deleteIndex(ctx, name)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted = append(deleted, name)
			slog.Info("Deleted old index", "index", name)
		}
	}
	return deleted, nil
}

// DeleteAll removes every versioned index (and with them the alias).
// Used by sync-es --rebuild.
func (m *IndexManager) DeleteAll(ctx context.Context) ([]string, error) {
	versions, err := m.AllVersions(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, name := range versions {
		ok, err := m.deleteIndex(ctx, name)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted = append(deleted, name)
			slog.Info("Deleted index", "index", name)
		}
	}
	return deleted, nil
}

// Status describes the alias and its versioned indices.
type Status struct {
	Alias         string
	Exists        bool
	CurrentIndex  string
	Version       int
	DocumentCount int
	AllVersions   []string
}

// GetStatus reports the alias, its current physical index and version,
// the document count behind the alias, and all discovered versions.
func (m *IndexManager) GetStatus(ctx context.Context) (*Status, error) {
	current, err := m.CurrentIndex(ctx)
	if err != nil {
		return nil, err
	}
	if current == "" {
		return &Status{Alias: m.alias}, nil
	}

	version, err := m.version(current)
	if err != nil {
		return nil, err
	}

	res, err := m.es.Count(
		m.es.Count.WithContext(ctx),
		m.es.Count.WithIndex(m.alias),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	var count struct {
		Count int `json:"count"`
	}
	if err := decodeResponse("count", res, &count); err != nil {
		return nil, err
	}

	versions, err := m.AllVersions(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Alias:         m.alias,
		Exists:        true,
		CurrentIndex:  current,
		Version:       version,
		DocumentCount: count.Count,
		AllVersions:   versions,
	}, nil
}

// AllVersions lists every <alias>_vN index, ordered by version.
func (m *IndexManager) AllVersions(ctx context.Context) ([]string, error) {
	res, err := m.es.Indices.Get([]string{m.alias + "_v*"},
		m.es.Indices.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list versioned indices: %w", err)
	}
	if res.StatusCode == 404 {
		res.Body.Close()
		return nil, nil
	}

	var body map[string]any
	if err := decodeResponse("get indices", res, &body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body))
	for name := range body {
		if _, err := m.version(name); err == nil {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		vi, _ := m.version(names[i])
		vj, _ := m.version(names[j])
		return vi < vj
	})
	return names, nil
}

func (m *IndexManager) createIndex(ctx context.Context, name string) error {
	res, err := m.es.Indices.Create(name,
		m.es.Indices.Create.WithContext(ctx),
		m.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	return decodeResponse("create index", res, nil)
}

func (m *IndexManager) reindex(ctx context.Context, from, to string) error {
	body := fmt.Sprintf(`{"source": {"index": %q}, "dest": {"index": %q}}`, from, to)
	res, err := m.es.Reindex(strings.NewReader(body),
		m.es.Reindex.WithContext(ctx),
		m.es.Reindex.WithWaitForCompletion(true),
	)
	if err != nil {
		return fmt.Errorf("failed to reindex %s into %s: %w", from, to, err)
	}

	var result struct {
		Total int `json:"total"`
		Took  int `json:"took"`
	}
	if err := decodeResponse("reindex", res, &result); err != nil {
		return err
	}
	slog.Info("Reindexed documents", "total", result.Total, "took_ms", result.Took)
	return nil
}

// swapAlias removes the alias from old and adds it to new in one atomic
// _aliases action, so the alias never has zero or two bindings.
func (m *IndexManager) swapAlias(ctx context.Context, oldIndex, newIndex string) error {
	body := fmt.Sprintf(`{"actions": [
  {"remove": {"index": %q, "alias": %q}},
  {"add": {"index": %q, "alias": %q}}
]}`, oldIndex, m.alias, newIndex, m.alias)

	res, err := m.es.Indices.UpdateAliases(strings.NewReader(body),
		m.es.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to swap alias: %w", err)
	}
	return decodeResponse("update aliases", res, nil)
}

func (m *IndexManager) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := m.es.Indices.Exists([]string{name},
		m.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// deleteIndex deletes name, reporting whether it existed.
func (m *IndexManager) deleteIndex(ctx context.Context, name string) (bool, error) {
	res, err := m.es.Indices.Delete([]string{name},
		m.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return false, nil
	}
	if res.IsError() {
		return false, responseError("delete index", res)
	}
	return true, nil
}
