package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsight/lendex/ai"
	"github.com/finsight/lendex/retry"
)

// EmbedClient wraps an ai.Embedder with the pipeline's retry discipline.
//
// Embedding services fail in ways a client cannot distinguish reliably, so
// every embedding error is treated as transient and retried under the
// policy; only exhaustion fails the batch.
type EmbedClient struct {
	embedder ai.Embedder
	policy   retry.Policy
	logger   *slog.Logger
}

// NewEmbedClient creates an embed client using the given retry policy.
func NewEmbedClient(embedder ai.Embedder, policy retry.Policy) (*EmbedClient, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &EmbedClient{
		embedder: embedder,
		policy:   policy,
		logger:   slog.Default().With("component", "embed-client"),
	}, nil
}

// EmbedBatch generates one vector per input text, retrying the whole batch
// on failure. The result is index-aligned with texts; a count mismatch
// from the service fails the batch without retrying, because a malformed
// response will not improve on replay.
func (c *EmbedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := retry.Do(ctx, c.policy, retry.Transient, func() error {
		var embedErr error
		vectors, embedErr = c.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return nil, &EmbeddingError{BatchSize: len(texts), Err: err}
	}

	if len(vectors) != len(texts) {
		return nil, &EmbeddingError{
			BatchSize: len(texts),
			Err:       fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts)),
		}
	}

	return vectors, nil
}
