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

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/paperdex/paperdex/pkg/catalog"
)

// ErrNoArtifact is returned by Get when no artifact of the requested type
// exists for the document.
var ErrNoArtifact = errors.New("enhancement: no artifact found")

// ArtifactStore accumulates per-document enhancement payloads. Multiple
// robots may each contribute an artifact of the same type; consumers
// decide how to merge.
type ArtifactStore struct {
	db *sql.DB
}

// NewArtifactStore creates an ArtifactStore over an existing pool.
func NewArtifactStore(db *sql.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

const putArtifactSQL = `
INSERT INTO enhancements (document_id, enhancement_type, content, robot_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id, enhancement_type, robot_id)
DO UPDATE SET content = EXCLUDED.content, created_at = now()
RETURNING id`

// Put upserts an artifact on (documentID, typ, robotID). On conflict the
// content is overwritten and the creation timestamp refreshed. NUL bytes
// are stripped from string leaves before serialization.
func (s *ArtifactStore) Put(ctx context.Context, documentID int64, typ Type, content map[string]any, robotID string) (int64, error) {
	clean := sanitizeContent(content)
	payload, err := json.Marshal(clean)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize enhancement content: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, putArtifactSQL, documentID, string(typ), payload, robotID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert enhancement: %w", err)
	}
	return id, nil
}

const selectArtifactSQL = `
SELECT id, document_id, enhancement_type, content, robot_id, created_at
FROM enhancements`

// ListForDocument returns all artifacts for a document ordered by
// creation time ascending.
func (s *ArtifactStore) ListForDocument(ctx context.Context, documentID int64) ([]Enhancement, error) {
	rows, err := s.db.QueryContext(ctx,
		selectArtifactSQL+" WHERE document_id = $1 ORDER BY created_at, id", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enhancements: %w", err)
	}
	defer rows.Close()
	return scanEnhancements(rows)
}

// Get returns the most recently created artifact of the given type for
// the document. Ties on creation time break by id descending.
func (s *ArtifactStore) Get(ctx context.Context, documentID int64, typ Type) (*Enhancement, error) {
	row := s.db.QueryRowContext(ctx,
		selectArtifactSQL+` WHERE document_id = $1 AND enhancement_type = $2
ORDER BY created_at DESC, id DESC LIMIT 1`, documentID, string(typ))

	e, err := scanEnhancement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoArtifact
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enhancement: %w", err)
	}
	return e, nil
}

// DocumentArtifacts pairs a document with its accumulated artifacts.
type DocumentArtifacts struct {
	Document     catalog.Document
	Enhancements []Enhancement
}

// ListWithArtifacts fetches documents together with their artifacts in a
// single transaction, so each document sees a self-consistent artifact
// set. An empty ids slice means all documents; limit <= 0 means no limit.
// This is the bulk join the search projection is built on.
func (s *ArtifactStore) ListWithArtifacts(ctx context.Context, ids []int64, limit int) ([]DocumentArtifacts, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	docQuery := "SELECT id, file_path, created_at FROM documents"
	var docArgs []any
	if len(ids) > 0 {
		docQuery += " WHERE id = ANY($1)"
		docArgs = append(docArgs, pq.Array(ids))
	}
	docQuery += " ORDER BY id"
	if limit > 0 {
		docQuery += fmt.Sprintf(" LIMIT $%d", len(docArgs)+1)
		docArgs = append(docArgs, limit)
	}

	rows, err := tx.QueryContext(ctx, docQuery, docArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var result []DocumentArtifacts
	index := make(map[int64]int)
	docIDs := make([]int64, 0)
	for rows.Next() {
		var d catalog.Document
		if err := rows.Scan(&d.ID, &d.FilePath, &d.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		index[d.ID] = len(result)
		docIDs = append(docIDs, d.ID)
		result = append(result, DocumentArtifacts{Document: d})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(result) == 0 {
		return nil, tx.Commit()
	}

	artRows, err := tx.QueryContext(ctx,
		selectArtifactSQL+" WHERE document_id = ANY($1) ORDER BY document_id, created_at, id",
		pq.Array(docIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list enhancements: %w", err)
	}
	defer artRows.Close()

	arts, err := scanEnhancements(artRows)
	if err != nil {
		return nil, err
	}
	for _, e := range arts {
		i := index[e.DocumentID]
		result[i].Enhancements = append(result[i].Enhancements, e)
	}

	return result, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnhancement(row rowScanner) (*Enhancement, error) {
	var e Enhancement
	var typ string
	var payload []byte
	if err := row.Scan(&e.ID, &e.DocumentID, &typ, &payload, &e.RobotID, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Type = Type(typ)
	if err := json.Unmarshal(payload, &e.Content); err != nil {
		return nil, fmt.Errorf("failed to decode enhancement content: %w", err)
	}
	return &e, nil
}

func scanEnhancements(rows *sql.Rows) ([]Enhancement, error) {
	var out []Enhancement
	for rows.Next() {
		e, err := scanEnhancement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enhancement: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
