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

// Command paperdex is the research-paper ingestion pipeline CLI.
//
// Usage:
//
//	paperdex stage --limit 100
//	paperdex register
//	paperdex run-robot pdf-extractor
//	paperdex sync-es
//	paperdex search -q "\"neural architecture search\"" --year-from 2020
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/paperdex/paperdex/pkg/config"
	"github.com/paperdex/paperdex/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	InitDB        InitDBCmd        `cmd:"" name:"init-db" help:"Initialise the database schema."`
	InitES        InitESCmd        `cmd:"" name:"init-es" help:"Create the search index and alias if missing."`
	Stage         StageCmd         `cmd:"" help:"Copy new PDFs from the source to the processing directory."`
	Register      RegisterCmd      `cmd:"" help:"Register PDFs in the processing directory and queue extraction."`
	QueueMetadata QueueMetadataCmd `cmd:"" name:"queue-metadata" help:"Queue all documents for metadata sync."`
	RunRobot      RunRobotCmd      `cmd:"" name:"run-robot" help:"Run a robot against the work queue."`
	SyncES        SyncESCmd        `cmd:"" name:"sync-es" help:"Project documents into the search index."`
	ESStatus      ESStatusCmd      `cmd:"" name:"es-status" help:"Show search index status."`
	ESMigrate     ESMigrateCmd     `cmd:"" name:"es-migrate" help:"Migrate the search index to a new mapping version."`
	ESRollback    ESRollbackCmd    `cmd:"" name:"es-rollback" help:"Roll the search index back to the previous version."`
	ESCleanup     ESCleanupCmd     `cmd:"" name:"es-cleanup" help:"Delete old search index versions."`
	Search        SearchCmd        `cmd:"" help:"Free-text search over indexed papers."`
	Grep          GrepCmd          `cmd:"" help:"Search with context snippets around matches."`
	Venues        VenuesCmd        `cmd:"" help:"Show top venues for matching papers."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple, verbose)." default:"simple"`
	LogFile   string `help:"Log file path (empty = stderr)."`
}

func main() {
	_ = config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("paperdex"),
		kong.Description("Research-paper ingestion and search pipeline."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(logger.ParseLevel(cli.LogLevel), output, cli.LogFormat)

	settings, err := config.Load()
	kctx.FatalIfErrorf(err)

	err = kctx.Run(settings)
	kctx.FatalIfErrorf(err)
}
