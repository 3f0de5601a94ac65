package ingest

import (
	"context"
	"log/slog"

	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/retry"
	"github.com/finsight/lendex/storage"
)

// Sink writes enriched record batches to the vector store with the
// pipeline's retry discipline.
//
// Unlike embedding, store failures are classified: only the transient
// kinds (timeouts, write conflicts, deadlocks, connection loss) are
// retried. Anything else fails the batch on the first attempt.
type Sink struct {
	records storage.RecordRepository
	policy  retry.Policy
	logger  *slog.Logger
}

// NewSink creates a sink over the given repository.
func NewSink(records storage.RecordRepository, policy retry.Policy) (*Sink, error) {
	if records == nil {
		return nil, ErrRepositoryRequired
	}
	return &Sink{
		records: records,
		policy:  policy,
		logger:  slog.Default().With("component", "ingest-sink"),
	}, nil
}

// Write upserts the batch atomically. Upserts are idempotent, so retrying
// a batch whose outcome was lost in a connection failure is safe.
func (s *Sink) Write(ctx context.Context, batch []*core.Record) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	err := retry.Do(ctx, s.policy, storage.Classify, func() error {
		return s.records.UpsertRecords(ctx, batch...)
	})
	if err != nil {
		return &UpsertError{BatchSize: len(batch), Err: err}
	}

	return nil
}
