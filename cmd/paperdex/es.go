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

	"github.com/paperdex/paperdex/pkg/config"
	"github.com/paperdex/paperdex/pkg/enhancement"
	"github.com/paperdex/paperdex/pkg/search"
)

func openSearch(settings *config.Settings) (*search.Client, error) {
	return search.New(settings.ElasticURL, settings.IndexAlias)
}

// InitESCmd creates the search index and alias if missing.
type InitESCmd struct{}

func (c *InitESCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}
	index, err := client.Manager().Initialize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Alias %s -> %s\n", client.Alias(), index)
	return nil
}

// SyncESCmd projects catalog documents and their artifacts into the
// search index.
type SyncESCmd struct {
	Rebuild bool    `help:"Delete all index versions and reindex from scratch."`
	IDs     []int64 `name:"id" help:"Only project these document IDs (repeatable)."`
}

func (c *SyncESCmd) Run(ctx context.Context, settings *config.Settings) error {
	db, err := openDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := openSearch(settings)
	if err != nil {
		return err
	}

	if c.Rebuild {
		deleted, err := client.Manager().DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d index versions.\n", len(deleted))
	}

	count, err := client.Reproject(ctx, enhancement.NewArtifactStore(db), c.IDs)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d documents into %s.\n", count, client.Alias())
	return nil
}

// ESStatusCmd shows the alias, its physical index and document count.
type ESStatusCmd struct{}

func (c *ESStatusCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}
	status, err := client.Manager().GetStatus(ctx)
	if err != nil {
		return err
	}

	if !status.Exists {
		fmt.Printf("Alias %s does not exist. Run init-es first.\n", status.Alias)
		return nil
	}
	fmt.Printf("Alias:     %s\n", status.Alias)
	fmt.Printf("Index:     %s (v%d)\n", status.CurrentIndex, status.Version)
	fmt.Printf("Mapping:   v%d\n", search.MappingVersion)
	fmt.Printf("Documents: %d\n", status.DocumentCount)
	fmt.Printf("Versions:\n")
	for _, name := range status.AllVersions {
		marker := " "
		if name == status.CurrentIndex {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
	return nil
}

// ESMigrateCmd migrates the index to the next version with the current
// mapping.
type ESMigrateCmd struct{}

func (c *ESMigrateCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}
	index, err := client.Manager().Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Alias %s -> %s\n", client.Alias(), index)
	return nil
}

// ESRollbackCmd rolls the alias back to the previous index version.
type ESRollbackCmd struct{}

func (c *ESRollbackCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}
	index, err := client.Manager().Rollback(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Alias %s -> %s\n", client.Alias(), index)
	return nil
}

// ESCleanupCmd deletes old index versions.
type ESCleanupCmd struct {
	Keep int `help:"Number of latest versions to keep." default:"2"`
}

func (c *ESCleanupCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}
	deleted, err := client.Manager().Cleanup(ctx, c.Keep)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		fmt.Println("Nothing to delete.")
		return nil
	}
	for _, name := range deleted {
		fmt.Printf("Deleted %s\n", name)
	}
	return nil
}
