package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return mapBadgerError(fn(tx))
}

// mapBadgerError translates BadgerDB error encodings onto the storage
// package's transient sentinels so storage.Classify recognizes them.
func mapBadgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %v", storage.ErrWriteConflict, err)
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %v", storage.ErrStorageClosed, err)
	default:
		return err
	}
}

// FindSimilar finds records similar to the given vector.
// With a non-zero date range the scan is bounded by the date index;
// otherwise all stored records are scanned. Similarity is the dot product,
// which equals cosine similarity for unit-length vectors.
func (b *Backend) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, dates storage.DateRange) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be greater than 0", storage.ErrInvalidQuery)
	}

	var results []*core.SearchResult

	score := func(record *core.Record) {
		// Skip records without embeddings
		if record == nil || len(record.Vector) == 0 {
			return
		}
		similarity := dotProduct(vector, record.Vector)
		if similarity >= minSimilarity {
			results = append(results, &core.SearchResult{
				Record: record,
				Score:  similarity,
			})
		}
	}

	var err error
	if dates.IsZero() {
		err = b.scanAllRecords(score)
	} else {
		err = b.scanRecordsByDate(dates, score)
	}
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// scanAllRecords visits every stored record.
func (b *Backend) scanAllRecords(visit func(*core.Record)) error {
	return b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			// Skip date index keys (they share the record prefix)
			if bytes.HasPrefix(item.Key(), []byte(recordDatePrefix)) {
				continue
			}

			var record *core.Record
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			visit(record)
		}
		return nil
	}, false)
}

// scanRecordsByDate visits records whose Date falls within the range,
// walking the date index between the bounds.
func (b *Backend) scanRecordsByDate(dates storage.DateRange, visit func(*core.Record)) error {
	start := dates.Start
	end := dates.End
	if start.IsZero() {
		start = minIndexedDate
	}
	if end.IsZero() {
		end = maxIndexedDate
	}

	return b.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDateKey(start)
		endKey := makeDateKey(end, core.ID(^uint64(0)))
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		prefix := []byte(recordDatePrefix + ":")
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			if bytes.Compare(key, endKey) > 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			visit(record)
		}
		return nil
	}, false)
}

// readRecord reads a record from the transaction. Missing keys yield nil.
func readRecord(tx *badger.Txn, key []byte) (*core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
