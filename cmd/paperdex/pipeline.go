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
	"database/sql"
	"fmt"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/config"
	"github.com/paperdex/paperdex/pkg/enhancement"
	"github.com/paperdex/paperdex/pkg/staging"
)

// openDB opens the shared Postgres pool. Callers own the returned handle.
func openDB(settings *config.Settings) (*sql.DB, error) {
	return config.OpenDB(settings.PostgresDSN)
}

// InitDBCmd creates the database schema.
type InitDBCmd struct{}

func (c *InitDBCmd) Run(ctx context.Context, settings *config.Settings) error {
	db, err := openDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := enhancement.InitSchema(ctx, db); err != nil {
		return err
	}
	fmt.Println("Database schema initialised.")
	return nil
}

// StageCmd copies new PDFs from the source to the processing directory.
type StageCmd struct {
	Limit   int    `help:"Max number of PDFs to copy (default: all)."`
	Pattern string `help:"Glob pattern to match." default:"*.pdf"`
}

func (c *StageCmd) Run(ctx context.Context, settings *config.Settings) error {
	result, err := staging.Stage(settings.SourceDir, settings.ProcessingDir, c.Pattern, c.Limit)
	if err != nil {
		return err
	}
	fmt.Printf("Staged %d PDFs to %s\n", result.Copied, settings.ProcessingDir)
	fmt.Printf("  (skipped %d already present)\n", result.Skipped)
	return nil
}

// RegisterCmd registers PDFs from the processing directory into the
// catalog and, by default, queues each document for full-text extraction.
type RegisterCmd struct {
	NoQueue bool `name:"no-queue" help:"Only register, don't queue for extraction."`
}

func (c *RegisterCmd) Run(ctx context.Context, settings *config.Settings) error {
	db, err := openDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := enhancement.InitSchema(ctx, db); err != nil {
		return err
	}

	paths, err := staging.DiscoverPDFs(settings.ProcessingDir)
	if err != nil {
		return err
	}

	cat := catalog.New(db)
	count, err := cat.RegisterMany(ctx, paths)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %d new documents.\n", count)

	if c.NoQueue {
		return nil
	}
	queued, err := enqueueAll(ctx, db, enhancement.TypeFullText)
	if err != nil {
		return err
	}
	fmt.Printf("Queued %d documents for extraction.\n", queued)
	return nil
}

// QueueMetadataCmd queues every catalog document for metadata sync.
type QueueMetadataCmd struct{}

func (c *QueueMetadataCmd) Run(ctx context.Context, settings *config.Settings) error {
	db, err := openDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	queued, err := enqueueAll(ctx, db, enhancement.TypePaperpileMetadata)
	if err != nil {
		return err
	}
	fmt.Printf("Queued %d documents for metadata sync.\n", queued)
	return nil
}

// enqueueAll upserts a pending unit of the given type for every document.
func enqueueAll(ctx context.Context, db *sql.DB, typ enhancement.Type) (int, error) {
	docs, err := catalog.New(db).ListAll(ctx, 0)
	if err != nil {
		return 0, err
	}
	queue := enhancement.NewQueue(db)
	for _, doc := range docs {
		if _, err := queue.Enqueue(ctx, doc.ID, typ); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}
