package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/finsight/lendex/ai/mock"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/source"
	"github.com/finsight/lendex/storage"
	storagebadger "github.com/finsight/lendex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(batchSize int) Config {
	return Config{
		BatchSize: batchSize,
		Policy: retry.Policy{
			InitialDelay: time.Millisecond,
			MaxDelay:     8 * time.Millisecond,
			MaxRetries:   3,
		},
	}
}

// fakeFilingSource serves a fixed set of pages and counts fetches.
type fakeFilingSource struct {
	pages   [][]core.Filing
	fetches int
	failAll bool
}

func (s *fakeFilingSource) Fetch(ctx context.Context, cursor source.Cursor) (*source.Page[core.Filing], error) {
	s.fetches++
	if s.failAll {
		return nil, &source.FetchError{StatusCode: 503, URL: "fake"}
	}

	idx := 0
	if cursor != source.Start {
		fmt.Sscanf(string(cursor), "page-%d", &idx)
	}
	if idx >= len(s.pages) {
		return nil, source.ErrInvalidCursor
	}

	page := &source.Page[core.Filing]{Records: s.pages[idx]}
	if idx+1 < len(s.pages) {
		page.Next = source.Cursor(fmt.Sprintf("page-%d", idx+1))
		page.HasNext = true
	}
	return page, nil
}

func makeFilings(n, offset int) []core.Filing {
	filings := make([]core.Filing, n)
	for i := range filings {
		filings[i] = core.Filing{
			PackageID:  fmt.Sprintf("PKG-%04d", offset+i),
			Title:      fmt.Sprintf("Disclosure %d", offset+i),
			Collection: "HMDA",
			Category:   "DISCLOSURE",
			DateIssued: time.Date(2025, 1, 1+((offset+i)%27), 0, 0, 0, 0, time.UTC),
			PageCount:  3,
		}
	}
	return filings
}

func setupPipeline(t *testing.T, src source.Source[core.Filing], embedder *mock.MockEmbedder, cfg Config) (*Pipeline[core.Filing], storage.RecordRepository) {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	pipeline, err := NewPipeline(src, FilingKind(), embedder, repo, cfg)
	require.NoError(t, err)
	return pipeline, repo
}

func TestPipelineRun_AllBatchesSucceed(t *testing.T) {
	src := &fakeFilingSource{pages: [][]core.Filing{
		makeFilings(20, 0),
		makeFilings(10, 20),
	}}
	embedder := mock.NewMockEmbedder()
	embedCalls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedCalls++
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	pipeline, repo := setupPipeline(t, src, embedder, fastConfig(25))

	stats, err := pipeline.Run(context.Background(), source.Start)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 30, stats.RecordsSeen)
	assert.Equal(t, 30, stats.Succeeded)
	assert.Equal(t, 0, stats.FailedBatches)

	assert.Equal(t, 2, src.fetches, "one fetch per page")
	assert.Equal(t, 2, embedCalls, "one embed call per batch, batches do not span pages")

	count, err := repo.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, count)
}

func TestPipelineRun_FailedBatchIsIsolated(t *testing.T) {
	// One page of 30 records at batch size 10 yields 3 batches.
	src := &fakeFilingSource{pages: [][]core.Filing{makeFilings(30, 0)}}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// The second batch starts at record 10; fail it on every attempt.
		if strings.Contains(texts[0], "Disclosure 10") {
			return nil, errors.New("embedding service overloaded")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 1, 0}
		}
		return vectors, nil
	}

	pipeline, repo := setupPipeline(t, src, embedder, fastConfig(10))

	stats, err := pipeline.Run(context.Background(), source.Start)
	require.NoError(t, err, "a failed batch must not fail the run")

	assert.Equal(t, 30, stats.RecordsSeen)
	assert.Equal(t, 20, stats.Succeeded, "batches 1 and 3 still land")
	assert.Equal(t, 1, stats.FailedBatches)

	count, err := repo.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestPipelineRun_FetchErrorAbortsRun(t *testing.T) {
	src := &fakeFilingSource{failAll: true}
	pipeline, _ := setupPipeline(t, src, mock.NewMockEmbedder(), fastConfig(10))

	stats, err := pipeline.Run(context.Background(), source.Start)
	require.Error(t, err)

	var fetchErr *source.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, src.fetches, "fetch failures are never retried")
	assert.Equal(t, 0, stats.Succeeded)
}

func TestPipelineRun_EmbeddingFailureIsRetried(t *testing.T) {
	src := &fakeFilingSource{pages: [][]core.Filing{makeFilings(5, 0)}}

	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporarily unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 0, 1}
		}
		return vectors, nil
	}

	pipeline, _ := setupPipeline(t, src, embedder, fastConfig(10))

	stats, err := pipeline.Run(context.Background(), source.Start)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "batch retried until the service recovers")
	assert.Equal(t, 5, stats.Succeeded)
	assert.Equal(t, 0, stats.FailedBatches)
}

func TestPipelineRun_ReingestIsIdempotent(t *testing.T) {
	pages := [][]core.Filing{makeFilings(8, 0)}
	embedder := mock.NewMockEmbedder()

	src := &fakeFilingSource{pages: pages}
	pipeline, repo := setupPipeline(t, src, embedder, fastConfig(10))

	_, err := pipeline.Run(context.Background(), source.Start)
	require.NoError(t, err)

	// Second run over the same source must land on the same rows.
	src2 := &fakeFilingSource{pages: pages}
	pipeline2, err := NewPipeline(src2, FilingKind(), embedder, repo, fastConfig(10))
	require.NoError(t, err)

	stats, err := pipeline2.Run(context.Background(), source.Start)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Succeeded)

	count, err := repo.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count, "re-ingestion must not duplicate rows")
}

func TestPipelineRun_ResumeFromCursor(t *testing.T) {
	src := &fakeFilingSource{pages: [][]core.Filing{
		makeFilings(4, 0),
		makeFilings(4, 4),
		makeFilings(4, 8),
	}}
	pipeline, _ := setupPipeline(t, src, mock.NewMockEmbedder(), fastConfig(10))

	stats, err := pipeline.Run(context.Background(), source.Cursor("page-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pages, "resume skips pages before the cursor")
	assert.Equal(t, 8, stats.RecordsSeen)
}

func TestPipelineRun_ContextCanceled(t *testing.T) {
	src := &fakeFilingSource{pages: [][]core.Filing{makeFilings(4, 0)}}
	pipeline, _ := setupPipeline(t, src, mock.NewMockEmbedder(), fastConfig(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, source.Start)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineRun_StoresNormalizedVectors(t *testing.T) {
	src := &fakeFilingSource{pages: [][]core.Filing{makeFilings(1, 0)}}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{3, 4, 0}}, nil
	}

	pipeline, repo := setupPipeline(t, src, embedder, fastConfig(10))

	_, err := pipeline.Run(context.Background(), source.Start)
	require.NoError(t, err)

	id := core.IDFromNaturalKey("filing", "PKG-0000")
	record, err := repo.GetRecord(context.Background(), id)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, record.Vector[0], 1e-6)
	assert.InDelta(t, 0.8, record.Vector[1], 1e-6)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.Equal(t, "filing", record.Kind)
	assert.Equal(t, "HMDA", record.Metadata["collection"])
}

func TestNewPipeline_RequiredDependencies(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	src := &fakeFilingSource{}

	_, err = NewPipeline[core.Filing](nil, FilingKind(), mock.NewMockEmbedder(), repo, DefaultConfig())
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewPipeline[core.Filing](src, FilingKind(), nil, repo, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline[core.Filing](src, FilingKind(), mock.NewMockEmbedder(), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.Policy.InitialDelay)
	assert.Equal(t, 32*time.Second, cfg.Policy.MaxDelay)
	assert.Equal(t, 3, cfg.Policy.MaxRetries)
}
