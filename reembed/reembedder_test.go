package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finsight/lendex/ai/mock"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastReembedConfig(batchSize int) *Config {
	return &Config{
		BatchSize:      batchSize,
		ReportInterval: batchSize,
		Policy: retry.Policy{
			InitialDelay: time.Millisecond,
			MaxDelay:     8 * time.Millisecond,
			MaxRetries:   3,
		},
	}
}

func TestReembedder_RefreshesAllVectors(t *testing.T) {
	repo := seededRepository(t, 12)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 3, 4} // normalizes to (0, 0.6, 0.8)
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(repo, embedder, fastReembedConfig(5), &buf)

	err := reembedder.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Starting reembedding of 12 records")
	assert.Contains(t, buf.String(), "Reembedding complete. Processed 12 records")

	records, err := repo.GetRecordsByDateRange(context.Background(), storage.DateRange{})
	require.NoError(t, err)
	require.Len(t, records, 12)
	for _, record := range records {
		assert.InDelta(t, 0.6, record.Vector[1], 1e-6)
		assert.InDelta(t, 0.8, record.Vector[2], 1e-6)
	}
}

func TestReembedder_EmptyStore(t *testing.T) {
	repo := seededRepository(t, 0)

	var buf bytes.Buffer
	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), fastReembedConfig(5), &buf)

	err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No records found")
}

func TestReembedder_EmbeddingFailureAborts(t *testing.T) {
	repo := seededRepository(t, 4)
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		return nil, errors.New("service down")
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(repo, embedder, fastReembedConfig(5), &buf)

	err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "embedding failures retried to the ceiling")
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo := seededRepository(t, 3)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0, 0}}, nil
	}

	processor := NewBatchProcessor(repo, embedder, fastReembedConfig(5).Policy)

	records, err := repo.GetRecordsByDateRange(context.Background(), storage.DateRange{})
	require.NoError(t, err)

	err = processor.Process(context.Background(), records)
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	processor := NewBatchProcessor(nil, mock.NewMockEmbedder(), fastReembedConfig(5).Policy)
	assert.NoError(t, processor.Process(context.Background(), nil))
}
