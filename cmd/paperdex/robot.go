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

package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/config"
	"github.com/paperdex/paperdex/pkg/enhancement"
	"github.com/paperdex/paperdex/pkg/extract"
	"github.com/paperdex/paperdex/pkg/robot"
)

// RunRobotCmd runs one of the known robots against the work queue.
type RunRobotCmd struct {
	Robot         string `arg:"" enum:"pdf-extractor,paperpile-sync" help:"Robot to run (pdf-extractor, paperpile-sync)."`
	MaxIterations int    `name:"max-iterations" help:"Stop after N iterations and exit on empty queue (for tests and batch runs)."`
	Manifest      string `help:"Path to the Paperpile manifest CSV (paperpile-sync only)." default:"metadata/papers_manifest.csv"`
	Workers       int    `help:"Number of concurrent runtime loops." default:"1"`
}

func (c *RunRobotCmd) Run(ctx context.Context, settings *config.Settings) error {
	db, err := openDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := enhancement.InitSchema(ctx, db); err != nil {
		return err
	}

	var handler robot.Handler
	switch c.Robot {
	case "pdf-extractor":
		handler = robot.NewExtractorRobot(extract.NewPDFExtractor())
	case "paperpile-sync":
		handler, err = robot.LoadPaperpileRobot(c.Manifest)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown robot: %s", c.Robot)
	}

	queue := enhancement.NewQueue(db)
	artifacts := enhancement.NewArtifactStore(db)
	cat := catalog.New(db)
	opts := robot.Options{
		PollInterval:  settings.PollInterval,
		MaxIterations: c.MaxIterations,
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		_, err := robot.NewRuntime(queue, cat, artifacts, handler, opts).Run(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := robot.NewRuntime(queue, cat, artifacts, handler, opts).Run(gctx)
			return err
		})
	}
	return g.Wait()
}
