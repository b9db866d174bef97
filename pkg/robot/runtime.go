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
	"fmt"
	"log/slog"
	"time"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/enhancement"
)

// Options tunes a Runtime.
type Options struct {
	// PollInterval is the sleep between polls when the queue is empty in
	// daemon mode. Defaults to one second.
	PollInterval time.Duration

	// MaxIterations bounds the loop for tests and batch runs. When > 0
	// the runtime also exits on an empty queue instead of sleeping.
	MaxIterations int
}

// Stats counts what a runtime did over its lifetime.
type Stats struct {
	Processed int
	Completed int
	Discarded int
	Failed    int
}

// Runtime is the polling loop driving one Handler. Multiple runtimes per
// type may run in parallel; correctness relies solely on ClaimNext's
// atomicity, and SetStatus on a claimed row is only ever issued by the
// claimer.
type Runtime struct {
	queue     Queue
	documents Documents
	artifacts Artifacts
	handler   Handler
	opts      Options
}

// NewRuntime wires a runtime for the given handler.
func NewRuntime(queue Queue, documents Documents, artifacts Artifacts, handler Handler, opts Options) *Runtime {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Runtime{
		queue:     queue,
		documents: documents,
		artifacts: artifacts,
		handler:   handler,
		opts:      opts,
	}
}

// Run executes the claim/handle/advance loop until the context is
// canceled, MaxIterations is reached, or (in bounded mode) the queue
// empties. Handler outcomes never stop the loop; storage errors do.
func (r *Runtime) Run(ctx context.Context) (Stats, error) {
	log := slog.With("robot", r.handler.RobotID())
	log.Info("Robot starting", "type", string(r.handler.Type()))

	var stats Stats
	iterations := 0
	bounded := r.opts.MaxIterations > 0

	for {
		if err := ctx.Err(); err != nil {
			log.Info("Robot stopping", "reason", "context canceled")
			return stats, nil
		}
		if bounded && iterations >= r.opts.MaxIterations {
			log.Info("Reached max iterations, stopping", "iterations", iterations)
			return stats, nil
		}
		iterations++

		processed, err := r.processOne(ctx, log, &stats)
		if err != nil {
			return stats, err
		}
		if processed {
			if stats.Processed%100 == 0 {
				log.Info("Progress", "processed", stats.Processed,
					"completed", stats.Completed, "discarded", stats.Discarded, "failed", stats.Failed)
			}
			continue
		}

		// Queue empty.
		if bounded {
			log.Info("Queue empty, stopping",
				"processed", stats.Processed, "completed", stats.Completed,
				"discarded", stats.Discarded, "failed", stats.Failed)
			return stats, nil
		}
		select {
		case <-ctx.Done():
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// processOne claims and handles a single unit. It returns false when no
// pending work was available. Only storage-layer errors are returned;
// handler failures are absorbed into the queue state.
func (r *Runtime) processOne(ctx context.Context, log *slog.Logger, stats *Stats) (bool, error) {
	pending, err := r.queue.ClaimNext(ctx, r.handler.Type())
	if errors.Is(err, enhancement.ErrNoPending) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim failed: %w", err)
	}

	stats.Processed++
	log.Debug("Claimed pending enhancement", "pending_id", pending.ID, "document_id", pending.DocumentID)

	doc, err := r.documents.GetByID(ctx, pending.DocumentID)
	if errors.Is(err, catalog.ErrNotFound) {
		log.Warn("Document vanished, discarding", "document_id", pending.DocumentID)
		stats.Discarded++
		return true, r.queue.SetStatus(ctx, pending.ID, enhancement.StatusDiscarded, "Document not found")
	}
	if err != nil {
		return false, fmt.Errorf("document lookup failed: %w", err)
	}

	outcome := r.invoke(ctx, doc)

	switch outcome.Kind {
	case KindProduced:
		if err := r.queue.SetStatus(ctx, pending.ID, enhancement.StatusImporting, ""); err != nil {
			return false, err
		}
		if _, err := r.artifacts.Put(ctx, doc.ID, r.handler.Type(), outcome.Content, r.handler.RobotID()); err != nil {
			return false, fmt.Errorf("artifact write failed: %w", err)
		}
		if err := r.queue.SetStatus(ctx, pending.ID, enhancement.StatusCompleted, ""); err != nil {
			return false, err
		}
		stats.Completed++
		log.Debug("Completed", "pending_id", pending.ID)

	case KindDiscard:
		if err := r.queue.SetStatus(ctx, pending.ID, enhancement.StatusDiscarded, outcome.Reason); err != nil {
			return false, err
		}
		stats.Discarded++
		log.Debug("Discarded", "pending_id", pending.ID, "reason", outcome.Reason)

	case KindFail:
		if err := r.queue.SetStatus(ctx, pending.ID, enhancement.StatusFailed, outcome.Reason); err != nil {
			return false, err
		}
		stats.Failed++
		log.Warn("Handler failed", "pending_id", pending.ID, "error", outcome.Reason)
	}

	return true, nil
}

// invoke runs the handler, converting panics into failures so a data
// error never crashes the loop.
func (r *Runtime) invoke(ctx context.Context, doc *catalog.Document) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Fail(fmt.Sprintf("handler panic: %v", rec))
		}
	}()
	return r.handler.Handle(ctx, doc)
}
