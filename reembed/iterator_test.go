package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/storage"
	storagebadger "github.com/finsight/lendex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepository(t *testing.T, n int) storage.RecordRepository {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	records := make([]*core.Record, n)
	for i := range records {
		records[i] = &core.Record{
			NaturalID:   fmt.Sprintf("PKG-%03d", i),
			Kind:        "filing",
			Description: fmt.Sprintf("Filing number %d", i),
			Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Vector:      []float32{1, 0, 0},
			UpdatedAt:   time.Now().UTC(),
		}
	}
	require.NoError(t, repo.UpsertRecords(context.Background(), records...))
	return repo
}

func TestRecordIterator_BatchesAllRecords(t *testing.T) {
	repo := seededRepository(t, 25)
	iterator := NewRecordIterator(repo, 10)

	var batchSizes []int
	seen := 0
	err := iterator.ForEach(context.Background(), func(records []*core.Record) error {
		batchSizes = append(batchSizes, len(records))
		seen += len(records)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 25, seen)
	assert.Equal(t, []int{10, 10, 5}, batchSizes)
}

func TestRecordIterator_EmptyStore(t *testing.T) {
	repo := seededRepository(t, 0)
	iterator := NewRecordIterator(repo, 10)

	calls := 0
	err := iterator.ForEach(context.Background(), func(records []*core.Record) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRecordIterator_StopsOnError(t *testing.T) {
	repo := seededRepository(t, 25)
	iterator := NewRecordIterator(repo, 10)

	expectedErr := errors.New("batch failed")
	calls := 0
	err := iterator.ForEach(context.Background(), func(records []*core.Record) error {
		calls++
		if calls == 2 {
			return expectedErr
		}
		return nil
	})

	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 2, calls)
}

func TestRecordIterator_ContextCanceled(t *testing.T) {
	repo := seededRepository(t, 5)
	iterator := NewRecordIterator(repo, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := iterator.ForEach(ctx, func(records []*core.Record) error {
		t.Fatal("fn should not be called with a canceled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRecordIterator_DefaultBatchSize(t *testing.T) {
	iterator := NewRecordIterator(nil, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}
