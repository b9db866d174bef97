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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// ErrNoPending is returned by ClaimNext when no PENDING row of the
// requested type exists.
var ErrNoPending = errors.New("enhancement: no pending work")

// ErrPendingNotFound is returned by SetStatus for an unknown row id.
var ErrPendingNotFound = errors.New("enhancement: pending row not found")

// Queue is the durable work queue driving robots. The only concurrently
// mutated relation is pending_enhancements; correctness of concurrent
// claims relies solely on ClaimNext's atomicity.
type Queue struct {
	db *sql.DB
}

// NewQueue creates a Queue over an existing pool.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// enqueueSQL resets resting rows to PENDING; the IN clause is derived
// from the reenqueueable set so the SQL cannot drift from the state
// machine.
var enqueueSQL = fmt.Sprintf(`
INSERT INTO pending_enhancements (document_id, enhancement_type, status)
VALUES ($1, $2, 'PENDING')
ON CONFLICT (document_id, enhancement_type) DO UPDATE
SET status = 'PENDING', updated_at = now(), last_error = NULL
WHERE pending_enhancements.status IN (%s)
RETURNING id`, restingStatesSQL())

// restingStatesSQL renders the reenqueueable set as a quoted, sorted SQL
// list.
func restingStatesSQL() string {
	states := make([]string, 0, len(reenqueueable))
	for s := range reenqueueable {
		states = append(states, "'"+string(s)+"'")
	}
	sort.Strings(states)
	return strings.Join(states, ", ")
}

const selectPendingIDSQL = `
SELECT id FROM pending_enhancements
WHERE document_id = $1 AND enhancement_type = $2`

// Enqueue upserts a pending unit for (documentID, typ) and returns its
// id. A unit resting in COMPLETED, FAILED, EXPIRED, DISCARDED or
// INDEXING_FAILED is reset to PENDING with a fresh updated_at and a
// cleared last_error; attempts is never reset. An in-flight unit is left
// untouched.
//
// Re-enqueueing a COMPLETED unit deliberately leaves its artifact in
// place, so a robot re-run will upsert (overwrite) it. Handlers are
// expected to be idempotent.
func (q *Queue) Enqueue(ctx context.Context, documentID int64, typ Type) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, enqueueSQL, documentID, string(typ)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict with an in-flight row; return its id unchanged.
		err = q.db.QueryRowContext(ctx, selectPendingIDSQL, documentID, string(typ)).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue pending enhancement: %w", err)
	}
	return id, nil
}

const pendingColumns = `id, document_id, enhancement_type, status, created_at, updated_at, attempts, COALESCE(last_error, '')`

// claimSQL selects the oldest PENDING row of the requested type with a
// skip-locked row lock and flips it to PROCESSING in the same statement.
// Concurrent claimers never see the same row; rows locked by another
// claimer are skipped rather than blocked.
const claimSQL = `
UPDATE pending_enhancements
SET status = 'PROCESSING', attempts = attempts + 1, updated_at = now()
WHERE id = (
    SELECT id FROM pending_enhancements
    WHERE status = 'PENDING' AND enhancement_type = $1
    ORDER BY created_at, id
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING ` + pendingColumns

// ClaimNext atomically claims the oldest PENDING unit of the given type,
// incrementing its attempts counter. It returns ErrNoPending when the
// queue is empty for that type.
func (q *Queue) ClaimNext(ctx context.Context, typ Type) (*Pending, error) {
	p, err := scanPending(q.db.QueryRowContext(ctx, claimSQL, string(typ)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending enhancement: %w", err)
	}
	return p, nil
}

// SetStatus transitions a pending unit to newStatus, recording lastError
// (empty clears it). The transition is verified against the state machine
// inside the same transaction that performs the write; an illegal
// transition returns a *StateTransitionError and writes nothing.
func (q *Queue) SetStatus(ctx context.Context, id int64, newStatus Status, lastError string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM pending_enhancements WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPendingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read pending status: %w", err)
	}

	if err := Guard(current, newStatus); err != nil {
		return err
	}

	var lastErr any
	if lastError != "" {
		lastErr = lastError
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE pending_enhancements SET status = $1, last_error = $2, updated_at = now() WHERE id = $3`,
		string(newStatus), lastErr, id)
	if err != nil {
		return fmt.Errorf("failed to update pending status: %w", err)
	}

	return tx.Commit()
}

// ListByStatus returns pending units in any of the given statuses,
// optionally filtered by type, ordered by creation time. For operators
// and tests.
func (q *Queue) ListByStatus(ctx context.Context, statuses []Status, typ Type, limit int) ([]Pending, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	strs := make([]string, len(statuses))
	for i, s := range statuses {
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q", s)
		}
		strs[i] = string(s)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + pendingColumns + " FROM pending_enhancements WHERE status = ANY($1)")
	args := []any{pq.Array(strs)}
	if typ != "" {
		args = append(args, string(typ))
		fmt.Fprintf(&sb, " AND enhancement_type = $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at, id")
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending enhancements: %w", err)
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending enhancement: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPending(row rowScanner) (*Pending, error) {
	var p Pending
	var typ, status string
	if err := row.Scan(&p.ID, &p.DocumentID, &typ, &status, &p.CreatedAt, &p.UpdatedAt, &p.Attempts, &p.LastError); err != nil {
		return nil, err
	}
	p.Type = Type(typ)
	p.Status = Status(status)
	return &p, nil
}
