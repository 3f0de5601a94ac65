package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceRequired is returned when a pipeline is created without a source
	ErrSourceRequired = errors.New("source is required")

	// ErrEmbedderRequired is returned when a pipeline is created without an embedder
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrRepositoryRequired is returned when a pipeline is created without a record repository
	ErrRepositoryRequired = errors.New("record repository is required")

	// ErrEmptyBatch is returned when an empty batch is written to the sink
	ErrEmptyBatch = errors.New("empty batch")
)

// EmbeddingError reports a batch embedding failure after retries were
// exhausted. The whole batch is failed; no partial results are kept.
type EmbeddingError struct {
	BatchSize int
	Err       error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch of %d: %v", e.BatchSize, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// UpsertError reports a batch upsert failure, either non-transient or
// transient with retries exhausted.
type UpsertError struct {
	BatchSize int
	Err       error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upserting batch of %d: %v", e.BatchSize, e.Err)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}
