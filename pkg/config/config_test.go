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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PG_DSN", "ES_URL", "ES_INDEX", "PDF_SOURCE", "PDF_PROCESSING", "POLL_INTERVAL"} {
		t.Setenv(key, "")
	}

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9200", s.ElasticURL)
	assert.Equal(t, "papers", s.IndexAlias)
	assert.Equal(t, "all_papers_raw", s.SourceDir)
	assert.Equal(t, "processing", s.ProcessingDir)
	assert.Equal(t, time.Second, s.PollInterval)
	assert.Contains(t, s.PostgresDSN, "postgres://")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ES_INDEX", "papers_test")
	t.Setenv("POLL_INTERVAL", "250ms")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "papers_test", s.IndexAlias)
	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
}

func TestLoad_BadPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid POLL_INTERVAL")
}
