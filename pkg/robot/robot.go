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

// Package robot runs long-lived enhancement producers against the work
// queue. A robot is a named handler for a single enhancement type; the
// Runtime claims one unit at a time and advances its state.
package robot

import (
	"context"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/enhancement"
)

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind int

const (
	// KindProduced means the handler produced artifact content.
	KindProduced OutcomeKind = iota
	// KindDiscard means there was nothing to do for this input. Not an
	// error; counted separately from failures.
	KindDiscard
	// KindFail means the handler hit a (possibly transient) error.
	KindFail
)

// Outcome is the tagged result of one handler invocation. Using a variant
// instead of error returns keeps control flow out of the error path.
type Outcome struct {
	Kind    OutcomeKind
	Content map[string]any // KindProduced only
	Reason  string         // KindDiscard and KindFail
}

// Produced returns an Outcome carrying artifact content.
func Produced(content map[string]any) Outcome {
	return Outcome{Kind: KindProduced, Content: content}
}

// Discard returns a semantic no-match Outcome.
func Discard(reason string) Outcome {
	return Outcome{Kind: KindDiscard, Reason: reason}
}

// Fail returns a failure Outcome.
func Fail(reason string) Outcome {
	return Outcome{Kind: KindFail, Reason: reason}
}

// Handler is the capability a robot brings: a stable id, the enhancement
// type it produces, and the per-document work.
type Handler interface {
	RobotID() string
	Type() enhancement.Type
	Handle(ctx context.Context, doc *catalog.Document) Outcome
}

// Queue is the slice of the work queue the runtime needs.
type Queue interface {
	ClaimNext(ctx context.Context, typ enhancement.Type) (*enhancement.Pending, error)
	SetStatus(ctx context.Context, id int64, status enhancement.Status, lastError string) error
}

// Documents is the slice of the catalog the runtime needs.
type Documents interface {
	GetByID(ctx context.Context, id int64) (*catalog.Document, error)
}

// Artifacts is the slice of the artifact store the runtime needs.
type Artifacts interface {
	Put(ctx context.Context, documentID int64, typ enhancement.Type, content map[string]any, robotID string) (int64, error)
}
