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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of records embedded per batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// Policy governs retries for embedding calls and upserts
	Policy retry.Policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		Policy:         retry.DefaultPolicy(),
	}
}

// Reembedder regenerates the embedding of every record in the store.
type Reembedder struct {
	repo      storage.RecordRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.RecordRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.Policy),
		iterator:  NewRecordIterator(repo, config.BatchSize),
	}
}

// Run reembeds every stored record and reports progress as it goes.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.repo.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No records found in store (0 records)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(records []*core.Record) error {
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("processing batch: %w", err)
		}

		processed += len(records)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
