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
	"log/slog"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/enhancement"
	"github.com/paperdex/paperdex/pkg/manifest"
)

// PaperpileRobotID names the manifest sync robot.
const PaperpileRobotID = "paperpile-sync"

// PaperpileRobot produces PAPERPILE_METADATA artifacts by matching
// documents against a manifest map loaded once at startup.
type PaperpileRobot struct {
	rows map[string]manifest.Row
}

// NewPaperpileRobot creates the robot from an already-loaded manifest.
func NewPaperpileRobot(rows map[string]manifest.Row) *PaperpileRobot {
	return &PaperpileRobot{rows: rows}
}

// LoadPaperpileRobot loads the manifest at path and builds the robot.
func LoadPaperpileRobot(path string) (*PaperpileRobot, error) {
	rows, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded manifest", "path", path, "entries", len(rows))
	return NewPaperpileRobot(rows), nil
}

func (r *PaperpileRobot) RobotID() string        { return PaperpileRobotID }
func (r *PaperpileRobot) Type() enhancement.Type { return enhancement.TypePaperpileMetadata }

// Handle looks the document's file name up in the manifest (case-folded,
// with the duplicate-suffix fallback) and produces the full record on a
// hit. A miss is a discard: the manifest simply doesn't know this file.
func (r *PaperpileRobot) Handle(ctx context.Context, doc *catalog.Document) Outcome {
	row, ok := manifest.Lookup(r.rows, doc.FileName())
	if !ok {
		return Discard("No manifest entry found")
	}
	return Produced(row.Content())
}
