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


package lendex

import (
	"io"
	"log/slog"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/ai/openai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/ingest"
	"github.com/finsight/lendex/reembed"
	"github.com/finsight/lendex/search"
	"github.com/finsight/lendex/source"
	"github.com/finsight/lendex/storage"
	"github.com/finsight/lendex/storage/badger"
)

// Database bundles the vector store and embedding service behind one
// handle, and hands out pipelines and searchers wired to both.
type Database struct {
	backend  *badger.Backend
	records  storage.RecordRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the embedding
// service configuration. Used in tests.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// NewDatabase opens (or creates) the store at filePath and connects to
// the embedding service.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	records, err := badger.NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			records.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		records:  records,
		embedder: embedder,
		logger:   slog.Default(),
	}, nil
}

// Close releases the store. The Database must not be used afterwards.
func (db *Database) Close() error {
	if err := db.records.Close(); err != nil {
		db.logger.Error("error closing record repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Records returns the record repository.
func (db *Database) Records() storage.RecordRepository {
	return db.records
}

// NewFilingPipeline creates an ingestion pipeline for regulatory filings.
func (db *Database) NewFilingPipeline(src source.Source[core.Filing], config ingest.Config) (*ingest.Pipeline[core.Filing], error) {
	return ingest.NewPipeline(src, ingest.FilingKind(), db.embedder, db.records, config)
}

// NewLenderPipeline creates an ingestion pipeline for mortgage lenders.
func (db *Database) NewLenderPipeline(src source.Source[core.Lender], config ingest.Config) (*ingest.Pipeline[core.Lender], error) {
	return ingest.NewPipeline(src, ingest.LenderKind(), db.embedder, db.records, config)
}

// NewSearcher creates a searcher over the store.
func (db *Database) NewSearcher() (*search.Searcher, error) {
	return search.NewSearcher(db.records, db.embedder)
}

// NewReembedder creates a reembedder that refreshes every stored vector.
// progress: where to write progress output (typically os.Stderr)
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.records, db.embedder, config, progress)
}
