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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_AllowedTransitions(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusImporting},
		{StatusProcessing, StatusExpired},
		{StatusProcessing, StatusFailed},
		{StatusProcessing, StatusDiscarded},
		{StatusImporting, StatusIndexing},
		{StatusImporting, StatusCompleted},
		{StatusImporting, StatusDiscarded},
		{StatusImporting, StatusFailed},
		{StatusIndexing, StatusCompleted},
		{StatusIndexing, StatusIndexingFailed},
		{StatusExpired, StatusPending},
		{StatusFailed, StatusPending},
	}
	for _, tc := range allowed {
		assert.NoError(t, Guard(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestGuard_ForbiddenTransitions(t *testing.T) {
	forbidden := []struct {
		from, to Status
	}{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusImporting},
		{StatusPending, StatusFailed},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusPending},
		{StatusCompleted, StatusPending},
		{StatusDiscarded, StatusPending},
		{StatusIndexingFailed, StatusPending},
		{StatusIndexing, StatusFailed},
	}
	for _, tc := range forbidden {
		err := Guard(tc.from, tc.to)
		require.Error(t, err, "%s -> %s", tc.from, tc.to)

		var ste *StateTransitionError
		require.True(t, errors.As(err, &ste))
		assert.Equal(t, tc.from, ste.Current)
		assert.Equal(t, tc.to, ste.Target)
	}
}

func TestStateTransitionError_Message(t *testing.T) {
	err := Guard(StatusProcessing, StatusCompleted)
	assert.EqualError(t, err,
		"illegal transition PROCESSING -> COMPLETED (allowed: DISCARDED, EXPIRED, FAILED, IMPORTING)")
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusDiscarded, StatusIndexingFailed} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []Status{StatusPending, StatusProcessing, StatusImporting, StatusIndexing, StatusExpired, StatusFailed} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestStatus_Retriable(t *testing.T) {
	assert.True(t, StatusFailed.Retriable())
	assert.True(t, StatusExpired.Retriable())
	assert.False(t, StatusCompleted.Retriable())
	assert.False(t, StatusDiscarded.Retriable())
	assert.False(t, StatusPending.Retriable())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusIndexingFailed.Valid())
	assert.False(t, Status("SHIPPED").Valid())
	assert.False(t, Status("").Valid())
}

func TestTransitionTable_ReenqueueableAreResting(t *testing.T) {
	// Every re-enqueueable status must be either terminal or retriable;
	// in-flight states must never be re-enqueueable.
	for s := range reenqueueable {
		assert.True(t, s.Terminal() || s.Retriable(), string(s))
	}
	for _, s := range []Status{StatusPending, StatusProcessing, StatusImporting, StatusIndexing} {
		assert.False(t, reenqueueable[s], string(s))
	}
}
