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


package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/storage"
)

const (
	// DefaultLimit is the maximum number of results when none is requested.
	DefaultLimit = 10

	// DefaultThreshold is the minimum similarity score for a match.
	DefaultThreshold = 0.7
)

// Options controls a single search.
type Options struct {
	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int

	// Threshold is the minimum similarity score. Zero means
	// DefaultThreshold.
	Threshold float32

	// StartDate and EndDate bound matches by their domain date.
	// Either may be zero for an open end.
	StartDate time.Time
	EndDate   time.Time
}

// Searcher answers natural-language queries against the vector store.
// The query is embedded exactly like ingested descriptions, so similarity
// compares like with like.
type Searcher struct {
	records  storage.RecordRepository
	embedder ai.Embedder
	policy   retry.Policy
	logger   *slog.Logger
}

// NewSearcher creates a searcher over the given repository and embedder.
func NewSearcher(records storage.RecordRepository, embedder ai.Embedder) (*Searcher, error) {
	if records == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &Searcher{
		records:  records,
		embedder: embedder,
		policy:   retry.DefaultPolicy(),
		logger:   slog.Default().With("component", "searcher"),
	}, nil
}

// Search embeds the query and returns matching records ordered by
// similarity descending. Results below the threshold are excluded.
//
// The query embedding is a single-item batch and is not retried: an
// interactive caller would rather see the failure than wait out backoff.
// The store query itself is retried on transient failures.
func (s *Searcher) Search(ctx context.Context, query string, opts *Options) ([]*core.SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if opts == nil {
		opts = &Options{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("failed to embed query", "err", err)
		return nil, err
	}
	vector = core.NormalizeVector(vector)

	dates := storage.DateRange{Start: opts.StartDate, End: opts.EndDate}

	var results []*core.SearchResult
	err = retry.Do(ctx, s.policy, storage.Classify, func() error {
		var findErr error
		results, findErr = s.records.FindSimilar(ctx, vector, threshold, limit, dates)
		return findErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}
