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

// Package staging moves incoming PDFs from the source collection into
// the processing directory the catalog registers from.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Result reports what a staging run did.
type Result struct {
	Copied  int
	Skipped int // already present in the processing directory
}

// Stage copies PDFs matching pattern from source into dest, skipping file
// names already present there. limit <= 0 copies everything. dest is
// created if missing.
func Stage(source, dest, pattern string, limit int) (*Result, error) {
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source directory not usable: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create processing directory: %w", err)
	}

	existing, err := filepath.Glob(filepath.Join(dest, "*.pdf"))
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(existing))
	for _, p := range existing {
		present[filepath.Base(p)] = true
	}

	candidates, err := filepath.Glob(filepath.Join(source, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	sort.Strings(candidates)

	result := &Result{}
	for _, src := range candidates {
		name := filepath.Base(src)
		if present[name] {
			result.Skipped++
			continue
		}
		if limit > 0 && result.Copied >= limit {
			break
		}
		if err := copyFile(src, filepath.Join(dest, name)); err != nil {
			return result, fmt.Errorf("failed to stage %s: %w", name, err)
		}
		result.Copied++
	}
	return result, nil
}

// DiscoverPDFs lists the PDFs in dir, sorted by name. These are the paths
// the catalog registers.
func DiscoverPDFs(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
