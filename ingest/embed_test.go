package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/finsight/lendex/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatch_AlignedResults(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client, err := NewEmbedClient(embedder, fastConfig(10).Policy)
	require.NoError(t, err)

	texts := []string{"first", "second", "third"}
	vectors, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// Deterministic mock: same text, same vector.
	again, err := client.EmbedBatch(context.Background(), []string{"second"})
	require.NoError(t, err)
	assert.Equal(t, vectors[1], again[0])
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	client, err := NewEmbedClient(mock.NewMockEmbedder(), fastConfig(10).Policy)
	require.NoError(t, err)

	vectors, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatch_RetriesUntilExhausted(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		return nil, errors.New("service down")
	}

	client, err := NewEmbedClient(embedder, fastConfig(10).Policy)
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var embedErr *EmbeddingError
	require.ErrorAs(t, err, &embedErr)
	assert.Equal(t, 2, embedErr.BatchSize)
	assert.Equal(t, 3, attempts, "every embedding failure is treated as transient")
}

func TestEmbedBatch_CountMismatchFailsWithoutRetry(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		return [][]float32{{1, 0}}, nil // one vector for two texts
	}

	client, err := NewEmbedClient(embedder, fastConfig(10).Policy)
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var embedErr *EmbeddingError
	require.ErrorAs(t, err, &embedErr)
	assert.Equal(t, 1, attempts, "a malformed response will not improve on replay")
}

func TestNewEmbedClient_RequiresEmbedder(t *testing.T) {
	_, err := NewEmbedClient(nil, fastConfig(10).Policy)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
