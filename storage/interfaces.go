package storage

import (
	"context"
	"time"

	"github.com/finsight/lendex/core"
)

// DateRange bounds a query to records whose Date falls within it, inclusive
// on both ends. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no bounds are set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether ts falls within the range.
func (r DateRange) Contains(ts time.Time) bool {
	if !r.Start.IsZero() && ts.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && ts.After(r.End) {
		return false
	}
	return true
}

// RecordRepository provides operations for managing enriched records.
// Implementations must be safe for concurrent use.
type RecordRepository interface {
	// UpsertRecords writes records keyed by their deterministic IDs.
	// For records with Id=0, derives the ID from (Kind, NaturalID).
	// An existing row with the same ID is replaced wholesale: the latest
	// Vector and UpdatedAt win. The write is atomic — either every record
	// in the call is stored or none is.
	UpsertRecords(ctx context.Context, records ...*core.Record) error

	// GetRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.Record, error)

	// GetRecords retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error)

	// GetRecordsByDateRange retrieves records whose Date falls within the
	// range, ordered by date ascending. A zero range covers every record.
	GetRecordsByDateRange(ctx context.Context, dates DateRange) ([]*core.Record, error)

	// DeleteRecords removes records by their IDs.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRecords(ctx context.Context, ids ...core.ID) error

	// CountRecords returns the total number of stored records.
	CountRecords(ctx context.Context) (int, error)

	// FindSimilar finds records similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first). A non-zero dates range
	// restricts candidates to records whose Date falls within it.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, dates DateRange) ([]*core.SearchResult, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
