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
	"fmt"
	"sort"
	"strings"
)

// Status is the state of a Pending row.
//
//	PENDING → PROCESSING → IMPORTING → INDEXING → COMPLETED
//	              ↓            ↓           ↓
//	  EXPIRED/FAILED       DISCARDED   INDEXING_FAILED
//
// EXPIRED and FAILED may be revived to PENDING; COMPLETED, DISCARDED and
// INDEXING_FAILED are terminal.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusImporting      Status = "IMPORTING"
	StatusIndexing       Status = "INDEXING"
	StatusCompleted      Status = "COMPLETED"
	StatusExpired        Status = "EXPIRED"
	StatusDiscarded      Status = "DISCARDED"
	StatusIndexingFailed Status = "INDEXING_FAILED"
	StatusFailed         Status = "FAILED"
)

// transitions is the complete transition table. Any edge not listed here
// is forbidden.
var transitions = map[Status][]Status{
	StatusPending:        {StatusProcessing},
	StatusProcessing:     {StatusImporting, StatusExpired, StatusFailed, StatusDiscarded},
	StatusImporting:      {StatusIndexing, StatusCompleted, StatusDiscarded, StatusFailed},
	StatusIndexing:       {StatusCompleted, StatusIndexingFailed},
	StatusExpired:        {StatusPending},
	StatusFailed:         {StatusPending},
	StatusCompleted:      {},
	StatusDiscarded:      {},
	StatusIndexingFailed: {},
}

// reenqueueable lists the resting states an Enqueue upsert may reset back
// to PENDING. In-flight rows (PENDING, PROCESSING, IMPORTING, INDEXING)
// are left untouched.
var reenqueueable = map[Status]bool{
	StatusCompleted:      true,
	StatusFailed:         true,
	StatusExpired:        true,
	StatusDiscarded:      true,
	StatusIndexingFailed: true,
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Retriable reports whether s is a resting state that may be explicitly
// revived to PENDING.
func (s Status) Retriable() bool {
	return s == StatusFailed || s == StatusExpired
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// StateTransitionError reports an illegal transition request. It signals
// a programming bug and must not be swallowed by callers.
type StateTransitionError struct {
	Current Status
	Target  Status
	Allowed []Status
}

func (e *StateTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	sort.Strings(allowed)
	return fmt.Sprintf("illegal transition %s -> %s (allowed: %s)",
		e.Current, e.Target, strings.Join(allowed, ", "))
}

// Guard verifies that target is reachable from current under the
// transition table. It returns a *StateTransitionError otherwise.
func Guard(current, target Status) error {
	for _, next := range transitions[current] {
		if next == target {
			return nil
		}
	}
	return &StateTransitionError{
		Current: current,
		Target:  target,
		Allowed: append([]Status(nil), transitions[current]...),
	}
}
