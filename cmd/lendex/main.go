// Copyright 2025 Finsight Labs
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
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/ai/openai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/ingest"
	"github.com/finsight/lendex/reembed"
	"github.com/finsight/lendex/search"
	"github.com/finsight/lendex/source"
	"github.com/finsight/lendex/storage"
	"github.com/finsight/lendex/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
	}

	app := &cli.App{
		Name:  "lendex",
		Usage: "Semantic index over regulatory filings and mortgage lenders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest-filings",
				Usage:  "Ingest regulatory filings from the publishing API",
				Action: ingestFilingsCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "base-url",
						Usage:    "Publishing API base URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "collection",
						Usage:    "Collection code to ingest, e.g. HMDA",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start-date",
						Usage:    "Window start (YYYY-MM-DD)",
						Layout:   "2006-01-02",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "end-date",
						Usage:    "Window end (YYYY-MM-DD)",
						Layout:   "2006-01-02",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "Publishing API key",
					},
					&cli.StringFlag{
						Name:  "cursor",
						Usage: "Resume from this cursor instead of the first page",
						Value: string(source.Start),
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Number of filings requested per page",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records embedded and upserted together",
						Value: 50,
					},
				}, embeddingFlags...),
			},
			{
				Name:   "ingest-lenders",
				Usage:  "Ingest mortgage lenders from a CSV extract",
				Action: ingestLendersCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "extract",
						Usage:    "Path to the lender CSV extract",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "cursor",
						Usage: "Resume from this cursor instead of the first page",
						Value: string(source.Start),
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Number of lenders per page",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records embedded and upserted together",
						Value: 50,
					},
				}, embeddingFlags...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored records with new embeddings",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
				}, embeddingFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search ingested records by natural-language query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: search.DefaultThreshold,
					},
					&cli.TimestampFlag{
						Name:   "start-date",
						Usage:  "Only match records on or after this date (YYYY-MM-DD)",
						Layout: "2006-01-02",
					},
					&cli.TimestampFlag{
						Name:   "end-date",
						Usage:  "Only match records on or before this date (YYYY-MM-DD)",
						Layout: "2006-01-02",
					},
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogger configures the process-wide slog default from --log-level.
func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error",
			c.String("log-level"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// openStore opens the database and record repository named by --db.
func openStore(c *cli.Context) (*badger.Backend, storage.RecordRepository, error) {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo, err := badger.NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return backend, repo, nil
}

// newEmbedder builds the embedding client from the shared embedding flags.
func newEmbedder(c *cli.Context) (ai.Embedder, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func ingestConfig(c *cli.Context) ingest.Config {
	config := ingest.DefaultConfig()
	if c.Int("batch-size") > 0 {
		config.BatchSize = c.Int("batch-size")
	}
	return config
}

func reportStats(stats ingest.Stats) {
	fmt.Fprintf(os.Stderr, "Pages: %d, records seen: %d, succeeded: %d, failed batches: %d\n",
		stats.Pages, stats.RecordsSeen, stats.Succeeded, stats.FailedBatches)
	fmt.Fprintf(os.Stderr, "Elapsed: %v (%.1f records/min)\n",
		stats.Elapsed.Round(time.Second), stats.RatePerMinute())
}

func ingestFilingsCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	client := source.NewFilingClient(
		c.String("base-url"),
		c.String("collection"),
		*c.Timestamp("start-date"),
		*c.Timestamp("end-date"),
		source.WithPageSize(c.Int("page-size")),
		source.WithAPIKey(c.String("api-key")),
	)

	pipeline, err := ingest.NewPipeline(client, ingest.FilingKind(), embedder, repo, ingestConfig(c))
	if err != nil {
		return err
	}

	stats, err := pipeline.Run(ctx, source.Cursor(c.String("cursor")))
	reportStats(stats)
	if err != nil {
		return fmt.Errorf("filing ingestion failed: %w", err)
	}
	return nil
}

func ingestLendersCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	lister, err := source.NewCSVLenderLister(c.String("extract"))
	if err != nil {
		return err
	}
	src := source.NewLenderSource(lister, c.Int("page-size"))

	pipeline, err := ingest.NewPipeline(src, ingest.LenderKind(), embedder, repo, ingestConfig(c))
	if err != nil {
		return err
	}

	stats, err := pipeline.Run(ctx, source.Cursor(c.String("cursor")))
	reportStats(stats)
	if err != nil {
		return fmt.Errorf("lender ingestion failed: %w", err)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	reembedConfig := reembed.DefaultConfig()
	if c.Int("batch-size") > 0 {
		reembedConfig.BatchSize = c.Int("batch-size")
	}
	if c.Int("report-interval") > 0 {
		reembedConfig.ReportInterval = c.Int("report-interval")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	backend, repo, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	searcher, err := search.NewSearcher(repo, embedder)
	if err != nil {
		return err
	}

	opts := &search.Options{
		Limit:     c.Int("limit"),
		Threshold: float32(c.Float64("threshold")),
	}
	if ts := c.Timestamp("start-date"); ts != nil {
		opts.StartDate = *ts
	}
	if ts := c.Timestamp("end-date"); ts != nil {
		opts.EndDate = *ts
	}

	results, err := searcher.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, result := range results {
		printResult(i+1, result)
	}
	return nil
}

func printResult(rank int, result *core.SearchResult) {
	record := result.Record
	fmt.Printf("%2d. [%.3f] %s/%s (%s)\n", rank, result.Score,
		record.Kind, record.NaturalID, record.Date.Format("2006-01-02"))
	fmt.Printf("    %s\n", record.Description)
}
