package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/lendex/core"
	"github.com/finsight/lendex/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) (*RecordRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &RecordRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is owned by the caller
// and stays open.
func (r *RecordRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *RecordRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, dates storage.DateRange) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit, dates)
}

// UpsertRecords writes records keyed by their deterministic IDs.
// Existing rows are replaced wholesale; the write is a single transaction,
// so the batch lands atomically or not at all. The prior row is read only
// to keep the date index consistent, never to merge values.
func (r *RecordRepository) UpsertRecords(ctx context.Context, records ...*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidateRecord(record); err != nil {
				return err
			}
			if record.Id == 0 {
				record.Id = core.IDFromNaturalKey(record.Kind, record.NaturalID)
			}

			key := makeRecordKey(record.Id)
			old, err := readRecord(tx, key)
			if err != nil {
				return err
			}

			if err := tx.Set(key, storage.MarshalRecord(record)); err != nil {
				return err
			}

			// Keep the date index consistent with the stored row
			if old != nil && !old.Date.Equal(record.Date) {
				if err := tx.Delete(makeDateKey(old.Date, old.Id)); err != nil {
					return err
				}
			}
			if old == nil || !old.Date.Equal(record.Date) {
				if err := tx.Set(makeDateKey(record.Date, record.Id), storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single record by ID.
func (r *RecordRepository) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	var result *core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple records by their IDs.
func (r *RecordRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error) {
	var result []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetRecordsByDateRange retrieves records whose Date falls within the range,
// ordered by date ascending.
func (r *RecordRepository) GetRecordsByDateRange(ctx context.Context, dates storage.DateRange) ([]*core.Record, error) {
	var results []*core.Record
	err := r.backend.scanRecordsByDate(dates, func(record *core.Record) {
		if record != nil {
			results = append(results, record)
		}
	})
	return results, err
}

// DeleteRecords removes records by their IDs.
func (r *RecordRepository) DeleteRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(id)

			// Read record to get its date for index cleanup
			record, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeDateKey(record.Date, record.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountRecords returns the total number of stored records.
func (r *RecordRepository) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		datePrefix := []byte(recordDatePrefix)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if bytes.HasPrefix(iter.Item().Key(), datePrefix) {
				continue
			}
			count++
		}
		return nil
	}, false)
	return count, err
}
