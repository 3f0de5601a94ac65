package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/finsight/lendex/core"
)

// Key prefixes for different data types
const (
	recordPrefix     = "vecrec"
	recordDatePrefix = "vecrecd"
)

// Bounds substituted for open ends of a date range scan. The date index
// orders keys by unsigned microsecond timestamps, so pre-1970 dates are not
// indexable.
var (
	minIndexedDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	maxIndexedDate = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
)

// makeRecordKey generates a key for a record by ID.
func makeRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", recordPrefix, id))
}

// makeDateKey generates a composite key for the date index.
// Format: prefix:date:id
func makeDateKey(date time.Time, id core.ID) []byte {
	prefix := recordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for date + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDateKey generates a partial key for date range queries.
// Format: prefix:date
func makePartialDateKey(date time.Time) []byte {
	prefix := recordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for date
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	return buf
}
