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


package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/source"
	"github.com/finsight/lendex/storage"
)

const defaultBatchSize = 50

// Config holds pipeline tuning parameters.
type Config struct {
	// BatchSize is the maximum number of records embedded and upserted
	// together. Batches never span page boundaries.
	BatchSize int

	// Policy governs retries for embedding and upsert operations.
	Policy retry.Policy
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: defaultBatchSize,
		Policy:    retry.DefaultPolicy(),
	}
}

// Stats summarizes one pipeline run. It is reported on every exit path,
// including aborts, so operators always see how far a run got.
type Stats struct {
	Pages         int
	RecordsSeen   int
	Succeeded     int
	FailedBatches int
	Elapsed       time.Duration
}

// RatePerMinute returns the successful-record throughput of the run.
func (s Stats) RatePerMinute() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Succeeded) / s.Elapsed.Minutes()
}

// Pipeline drives one record kind from a paginated source through
// embedding into the vector store.
//
// Processing is strictly sequential: one page at a time, one batch at a
// time. A failed batch is logged and counted, and the run moves on to the
// next batch; a failed fetch aborts the run, since the source position is
// no longer trustworthy.
type Pipeline[T any] struct {
	source source.Source[T]
	kind   Kind[T]
	embed  *EmbedClient
	sink   *Sink
	config Config
	logger *slog.Logger
}

// NewPipeline creates a pipeline for one record kind.
func NewPipeline[T any](
	src source.Source[T],
	kind Kind[T],
	embedder ai.Embedder,
	records storage.RecordRepository,
	config Config,
) (*Pipeline[T], error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}

	embed, err := NewEmbedClient(embedder, config.Policy)
	if err != nil {
		return nil, err
	}
	sink, err := NewSink(records, config.Policy)
	if err != nil {
		return nil, err
	}

	return &Pipeline[T]{
		source: src,
		kind:   kind,
		embed:  embed,
		sink:   sink,
		config: config,
		logger: slog.Default().With("component", "ingest-pipeline", "kind", kind.Name),
	}, nil
}

// Run processes the source from startCursor until it is exhausted, the
// context is canceled, or a fetch fails. Pass source.Start to begin at the
// first page; pass a cursor from a previous run's logs to resume.
//
// The returned Stats are valid on every exit path.
func (p *Pipeline[T]) Run(ctx context.Context, startCursor source.Cursor) (stats Stats, err error) {
	started := time.Now()
	cursor := startCursor
	if cursor == "" {
		cursor = source.Start
	}

	defer func() {
		stats.Elapsed = time.Since(started)
		p.logger.Info("ingestion run finished",
			"pages", stats.Pages,
			"recordsSeen", stats.RecordsSeen,
			"succeeded", stats.Succeeded,
			"failedBatches", stats.FailedBatches,
			"elapsed", stats.Elapsed.Round(time.Millisecond),
			"ratePerMinute", stats.RatePerMinute(),
			"err", err)
	}()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}

		page, fetchErr := p.source.Fetch(ctx, cursor)
		if fetchErr != nil {
			// Fetch failures are terminal. The run aborts here and the
			// operator resumes from this cursor.
			p.logger.Error("page fetch failed, aborting run", "cursor", string(cursor), "err", fetchErr)
			return stats, fetchErr
		}

		stats.Pages++
		stats.RecordsSeen += len(page.Records)

		for start := 0; start < len(page.Records); start += p.config.BatchSize {
			end := min(start+p.config.BatchSize, len(page.Records))
			batch := page.Records[start:end]

			if batchErr := p.processBatch(ctx, batch); batchErr != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				stats.FailedBatches++
				p.logger.Error("batch failed, continuing with next batch",
					"cursor", string(cursor), "batchSize", len(batch), "err", batchErr)
				continue
			}
			stats.Succeeded += len(batch)
		}

		elapsed := time.Since(started)
		rate := 0.0
		if elapsed > 0 {
			rate = float64(stats.Succeeded) / elapsed.Minutes()
		}
		p.logger.Info("page processed",
			"pages", stats.Pages,
			"succeeded", stats.Succeeded,
			"failedBatches", stats.FailedBatches,
			"ratePerMinute", rate)

		if !page.HasNext {
			return stats, nil
		}
		cursor = page.Next
		p.logger.Debug("advancing to next page", "cursor", string(cursor))
	}
}

// processBatch describes, embeds, and upserts one batch.
func (p *Pipeline[T]) processBatch(ctx context.Context, batch []T) error {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = p.kind.Describe(item)
	}

	vectors, err := p.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	// Truncated to microseconds, the precision the store persists.
	now := time.Now().UTC().Truncate(time.Microsecond)
	records := make([]*core.Record, len(batch))
	for i, item := range batch {
		record := p.kind.record(item)
		record.Vector = core.NormalizeVector(vectors[i])
		record.UpdatedAt = now
		records[i] = record
	}

	return p.sink.Write(ctx, records)
}
