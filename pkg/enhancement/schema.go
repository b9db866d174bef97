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
	"fmt"
)

// Schema statements are kept as separate constants so indexes can be
// created one statement at a time.
const (
	createDocumentsSQL = `
CREATE TABLE IF NOT EXISTS documents (
    id BIGSERIAL PRIMARY KEY,
    file_path TEXT UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	createEnhancementsSQL = `
CREATE TABLE IF NOT EXISTS enhancements (
    id BIGSERIAL PRIMARY KEY,
    document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    enhancement_type TEXT NOT NULL,
    content JSONB NOT NULL,
    robot_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (document_id, enhancement_type, robot_id)
)`

	createPendingSQL = `
CREATE TABLE IF NOT EXISTS pending_enhancements (
    id BIGSERIAL PRIMARY KEY,
    document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    enhancement_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    attempts INT NOT NULL DEFAULT 0,
    last_error TEXT,
    UNIQUE (document_id, enhancement_type)
)`
)

var createIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_enhancements_document_id ON enhancements(document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_enhancements_type ON enhancements(enhancement_type)`,
	`CREATE INDEX IF NOT EXISTS idx_pending_status ON pending_enhancements(status)`,
	`CREATE INDEX IF NOT EXISTS idx_pending_type ON pending_enhancements(enhancement_type)`,
}

// InitSchema creates the documents, enhancements and pending_enhancements
// tables and their indexes. Safe to call repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{createDocumentsSQL, createEnhancementsSQL, createPendingSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, stmt := range createIndexSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
