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

package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MissingFile(t *testing.T) {
	x := NewPDFExtractor()

	_, err := x.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.Path, "nope.pdf")
}

func TestExtract_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 this is not a real pdf"), 0644))

	x := NewPDFExtractor()
	_, err := x.Extract(context.Background(), path)

	// Malformed input must surface as an ExtractionError, never a panic.
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
}

func TestExtractionError_Unwrap(t *testing.T) {
	inner := errors.New("bad xref")
	err := &ExtractionError{Path: "/papers/a.pdf", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "/papers/a.pdf")
	assert.Contains(t, err.Error(), "bad xref")
}
