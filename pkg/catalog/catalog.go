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

// Package catalog is the durable record of known documents.
//
// A Document is registered once, keyed by its absolute file path, and is
// never mutated afterwards. All derived data lives in the enhancement
// store, not on the document row.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrAlreadyRegistered is returned by Register when the path is already
// in the catalog. Registration is idempotent; callers usually ignore it.
var ErrAlreadyRegistered = errors.New("catalog: path already registered")

// ErrNotFound is returned by the read accessors when no row matches.
var ErrNotFound = errors.New("catalog: document not found")

// Document is an immutable registration of a source file.
type Document struct {
	ID        int64
	FilePath  string
	CreatedAt time.Time
}

// FileName returns the base name of the document's file path.
func (d *Document) FileName() string {
	return filepath.Base(d.FilePath)
}

// Catalog provides access to the documents table.
type Catalog struct {
	db *sql.DB
}

// New creates a Catalog over an existing connection pool.
func New(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

const registerSQL = `
INSERT INTO documents (file_path)
VALUES ($1)
ON CONFLICT (file_path) DO NOTHING
RETURNING id`

// Register inserts a new document keyed by path and returns its id.
// If the path is already registered the catalog is left untouched and
// ErrAlreadyRegistered is returned.
func (c *Catalog) Register(ctx context.Context, path string) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, registerSQL, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAlreadyRegistered
	}
	if err != nil {
		return 0, fmt.Errorf("failed to register document: %w", err)
	}
	return id, nil
}

// RegisterMany registers a batch of paths and reports how many rows were
// newly inserted. Paths already present are skipped silently.
func (c *Catalog) RegisterMany(ctx context.Context, paths []string) (int, error) {
	count := 0
	for _, p := range paths {
		if _, err := c.Register(ctx, p); err != nil {
			if errors.Is(err, ErrAlreadyRegistered) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

const selectDocumentSQL = `
SELECT id, file_path, created_at
FROM documents`

// GetByID fetches a document by its id.
func (c *Catalog) GetByID(ctx context.Context, id int64) (*Document, error) {
	return c.scanOne(c.db.QueryRowContext(ctx, selectDocumentSQL+" WHERE id = $1", id))
}

// GetByPath fetches a document by its unique file path.
func (c *Catalog) GetByPath(ctx context.Context, path string) (*Document, error) {
	return c.scanOne(c.db.QueryRowContext(ctx, selectDocumentSQL+" WHERE file_path = $1", path))
}

// ListAll returns all documents ordered by id. A limit <= 0 means no limit.
func (c *Catalog) ListAll(ctx context.Context, limit int) ([]Document, error) {
	query := selectDocumentSQL + " ORDER BY id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.FilePath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (c *Catalog) scanOne(row *sql.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.FilePath, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	return &d, nil
}
