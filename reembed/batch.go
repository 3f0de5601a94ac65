package reembed

import (
	"context"
	"fmt"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/storage"
)

// BatchProcessor regenerates embeddings for batches of stored records.
type BatchProcessor struct {
	repo     storage.RecordRepository
	embedder ai.Embedder
	policy   retry.Policy
}

// NewBatchProcessor creates a batch processor using the given retry policy
// for embedding calls and upserts.
func NewBatchProcessor(repo storage.RecordRepository, embedder ai.Embedder, policy retry.Policy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		policy:   policy,
	}
}

// Process embeds each record's stored description again and writes the
// refreshed vectors back. Vectors are normalized before the write so dot
// product similarity stays equivalent to cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Description
	}

	var embeddings [][]float32
	err := retry.Do(ctx, bp.policy, retry.Transient, func() error {
		var embedErr error
		embeddings, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("generating embeddings: %w", err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(records), len(embeddings))
	}

	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	err = retry.Do(ctx, bp.policy, storage.Classify, func() error {
		return bp.repo.UpsertRecords(ctx, records...)
	})
	if err != nil {
		return fmt.Errorf("updating records: %w", err)
	}

	return nil
}
