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

package robot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/enhancement"
)

// fakeQueue is an in-memory queue honoring the same state machine as the
// SQL-backed one.
type fakeQueue struct {
	pending []*enhancement.Pending
	history map[int64][]enhancement.Status
	errors  map[int64]string
}

func newFakeQueue(units ...*enhancement.Pending) *fakeQueue {
	return &fakeQueue{
		pending: units,
		history: make(map[int64][]enhancement.Status),
		errors:  make(map[int64]string),
	}
}

func (q *fakeQueue) ClaimNext(_ context.Context, typ enhancement.Type) (*enhancement.Pending, error) {
	for _, p := range q.pending {
		if p.Type == typ && p.Status == enhancement.StatusPending {
			p.Status = enhancement.StatusProcessing
			p.Attempts++
			q.history[p.ID] = append(q.history[p.ID], p.Status)
			return p, nil
		}
	}
	return nil, enhancement.ErrNoPending
}

func (q *fakeQueue) SetStatus(_ context.Context, id int64, status enhancement.Status, lastError string) error {
	for _, p := range q.pending {
		if p.ID != id {
			continue
		}
		if err := enhancement.Guard(p.Status, status); err != nil {
			return err
		}
		p.Status = status
		q.history[id] = append(q.history[id], status)
		q.errors[id] = lastError
		return nil
	}
	return enhancement.ErrPendingNotFound
}

type fakeDocuments map[int64]*catalog.Document

func (d fakeDocuments) GetByID(_ context.Context, id int64) (*catalog.Document, error) {
	doc, ok := d[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return doc, nil
}

type storedArtifact struct {
	documentID int64
	typ        enhancement.Type
	content    map[string]any
	robotID    string
}

type fakeArtifacts struct {
	stored []storedArtifact
	err    error
}

func (a *fakeArtifacts) Put(_ context.Context, documentID int64, typ enhancement.Type, content map[string]any, robotID string) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.stored = append(a.stored, storedArtifact{documentID, typ, content, robotID})
	return int64(len(a.stored)), nil
}

// funcHandler adapts a closure into a Handler.
type funcHandler struct {
	id     string
	typ    enhancement.Type
	handle func(ctx context.Context, doc *catalog.Document) Outcome
}

func (h *funcHandler) RobotID() string              { return h.id }
func (h *funcHandler) Type() enhancement.Type       { return h.typ }
func (h *funcHandler) Handle(ctx context.Context, doc *catalog.Document) Outcome {
	return h.handle(ctx, doc)
}

func pendingUnit(id, docID int64, typ enhancement.Type) *enhancement.Pending {
	return &enhancement.Pending{ID: id, DocumentID: docID, Type: typ, Status: enhancement.StatusPending}
}

func bounded(n int) Options {
	return Options{MaxIterations: n}
}

func TestRun_ProducedLandsCompleted(t *testing.T) {
	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypeFullText))
	docs := fakeDocuments{7: {ID: 7, FilePath: "/papers/a.pdf"}}
	artifacts := &fakeArtifacts{}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, doc *catalog.Document) Outcome {
			return Produced(map[string]any{"text": "hello from " + doc.FileName()})
		},
	}

	stats, err := NewRuntime(queue, docs, artifacts, handler, bounded(10)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Processed: 1, Completed: 1}, stats)
	assert.Equal(t, []enhancement.Status{
		enhancement.StatusProcessing,
		enhancement.StatusImporting,
		enhancement.StatusCompleted,
	}, queue.history[1])
	assert.Equal(t, 1, queue.pending[0].Attempts)

	require.Len(t, artifacts.stored, 1)
	art := artifacts.stored[0]
	assert.Equal(t, int64(7), art.documentID)
	assert.Equal(t, enhancement.TypeFullText, art.typ)
	assert.Equal(t, "pdf-extractor", art.robotID)
	assert.Equal(t, "hello from a.pdf", art.content["text"])
}

func TestRun_FailLandsFailed(t *testing.T) {
	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypeFullText))
	docs := fakeDocuments{7: {ID: 7, FilePath: "/papers/a.pdf"}}
	artifacts := &fakeArtifacts{}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Fail("boom")
		},
	}

	stats, err := NewRuntime(queue, docs, artifacts, handler, bounded(10)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
	assert.Equal(t, enhancement.StatusFailed, queue.pending[0].Status)
	assert.Equal(t, "boom", queue.errors[1])
	assert.Empty(t, artifacts.stored)
}

func TestRun_DiscardLandsDiscarded(t *testing.T) {
	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypePaperpileMetadata))
	docs := fakeDocuments{7: {ID: 7, FilePath: "/papers/unknown.pdf"}}
	artifacts := &fakeArtifacts{}
	handler := &funcHandler{
		id:  "paperpile-sync",
		typ: enhancement.TypePaperpileMetadata,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Discard("No manifest entry found")
		},
	}

	stats, err := NewRuntime(queue, docs, artifacts, handler, bounded(10)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Processed: 1, Discarded: 1}, stats)
	assert.Equal(t, enhancement.StatusDiscarded, queue.pending[0].Status)
	assert.Equal(t, "No manifest entry found", queue.errors[1])
}

func TestRun_VanishedDocumentDiscarded(t *testing.T) {
	queue := newFakeQueue(pendingUnit(1, 404, enhancement.TypeFullText))
	docs := fakeDocuments{}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			t.Fatal("handler must not run for a vanished document")
			return Outcome{}
		},
	}

	stats, err := NewRuntime(queue, docs, &fakeArtifacts{}, handler, bounded(10)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Processed: 1, Discarded: 1}, stats)
	assert.Equal(t, enhancement.StatusDiscarded, queue.pending[0].Status)
	assert.Equal(t, "Document not found", queue.errors[1])
}

func TestRun_PanicBecomesFailed(t *testing.T) {
	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypeFullText))
	docs := fakeDocuments{7: {ID: 7, FilePath: "/papers/a.pdf"}}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			panic("malformed xref table")
		},
	}

	stats, err := NewRuntime(queue, docs, &fakeArtifacts{}, handler, bounded(10)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
	assert.Equal(t, enhancement.StatusFailed, queue.pending[0].Status)
	assert.Contains(t, queue.errors[1], "handler panic: malformed xref table")
}

func TestRun_ArtifactWriteErrorStopsLoop(t *testing.T) {
	queue := newFakeQueue(
		pendingUnit(1, 7, enhancement.TypeFullText),
		pendingUnit(2, 8, enhancement.TypeFullText),
	)
	docs := fakeDocuments{
		7: {ID: 7, FilePath: "/papers/a.pdf"},
		8: {ID: 8, FilePath: "/papers/b.pdf"},
	}
	artifacts := &fakeArtifacts{err: errors.New("connection reset")}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Produced(map[string]any{"text": "x"})
		},
	}

	_, err := NewRuntime(queue, docs, artifacts, handler, bounded(10)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// The second unit was never touched.
	assert.Equal(t, enhancement.StatusPending, queue.pending[1].Status)
}

func TestRun_BoundedStopsOnEmptyQueue(t *testing.T) {
	queue := newFakeQueue(
		pendingUnit(1, 7, enhancement.TypeFullText),
		pendingUnit(2, 8, enhancement.TypeFullText),
	)
	docs := fakeDocuments{
		7: {ID: 7, FilePath: "/papers/a.pdf"},
		8: {ID: 8, FilePath: "/papers/b.pdf"},
	}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Produced(map[string]any{"text": "x"})
		},
	}

	stats, err := NewRuntime(queue, docs, &fakeArtifacts{}, handler, bounded(100)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Completed: 2}, stats)
}

func TestRun_MaxIterationsBoundsWork(t *testing.T) {
	queue := newFakeQueue(
		pendingUnit(1, 7, enhancement.TypeFullText),
		pendingUnit(2, 8, enhancement.TypeFullText),
	)
	docs := fakeDocuments{
		7: {ID: 7, FilePath: "/papers/a.pdf"},
		8: {ID: 8, FilePath: "/papers/b.pdf"},
	}
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Produced(map[string]any{"text": "x"})
		},
	}

	stats, err := NewRuntime(queue, docs, &fakeArtifacts{}, handler, bounded(1)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Completed: 1}, stats)
	assert.Equal(t, enhancement.StatusPending, queue.pending[1].Status)
}

func TestRun_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypeFullText))
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Produced(nil)
		},
	}

	stats, err := NewRuntime(queue, fakeDocuments{}, &fakeArtifacts{}, handler, Options{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestRun_TypeIsolation(t *testing.T) {
	// A metadata unit must not be claimed by a full-text robot.
	queue := newFakeQueue(pendingUnit(1, 7, enhancement.TypePaperpileMetadata))
	handler := &funcHandler{
		id:  "pdf-extractor",
		typ: enhancement.TypeFullText,
		handle: func(_ context.Context, _ *catalog.Document) Outcome {
			return Produced(nil)
		},
	}

	stats, err := NewRuntime(queue, fakeDocuments{}, &fakeArtifacts{}, handler, bounded(5)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, enhancement.StatusPending, queue.pending[0].Status)
}
