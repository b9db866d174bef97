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

// Package enhancement holds the enhancement pipeline core: the typed
// artifact store and the durable work queue with its state machine.
//
// An Enhancement is a payload produced by one robot for one document,
// upserted on (document, type, robot). A Pending row tracks one unit of
// outstanding work per (document, type) and moves through the transition
// graph until it reaches a terminal state.
package enhancement

import "time"

// Type identifies what kind of derivation an enhancement carries.
type Type string

const (
	// TypeFullText is the extracted and cleaned full text of a PDF.
	TypeFullText Type = "FULL_TEXT"

	// TypePaperpileMetadata is the bibliographic record synced from a
	// Paperpile CSV manifest.
	TypePaperpileMetadata Type = "PAPERPILE_METADATA"
)

// Enhancement is an artifact produced by a robot for a document.
// (DocumentID, Type, RobotID) is unique; re-producing the same key
// overwrites Content and refreshes CreatedAt.
type Enhancement struct {
	ID         int64
	DocumentID int64
	Type       Type
	Content    map[string]any
	RobotID    string
	CreatedAt  time.Time
}

// Pending is one unit of outstanding enhancement work. A document has at
// most one live Pending per type.
type Pending struct {
	ID         int64
	DocumentID int64
	Type       Type
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Attempts   int
	LastError  string
}
