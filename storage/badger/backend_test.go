package badger

import (
	"context"
	"testing"

	"github.com/finsight/lendex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.7, 10, storage.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InvalidLimit(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.7, 0, storage.DateRange{})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDotProduct(t *testing.T) {
	assert.InDelta(t, 1.0, dotProduct([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, dotProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.5, dotProduct([]float32{0.5, 0.5}, []float32{1, 0}), 1e-6)

	// Mismatched lengths use the shorter vector
	assert.InDelta(t, 1.0, dotProduct([]float32{1, 0, 1}, []float32{1}), 1e-6)
}
