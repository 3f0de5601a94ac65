package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored records.
// It is derived deterministically from a record's kind and natural identifier,
// so re-ingesting the same source record always maps onto the same stored row.
type ID uint64

// IDFromNaturalKey generates a deterministic ID from a record's kind and
// natural identifier using BLAKE2b hashing. The fixed 64-bit width keeps
// storage index keys uniform regardless of natural identifier length.
func IDFromNaturalKey(kind, naturalID string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write([]byte(naturalID))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is an enriched record as held in the vector store: a source record's
// natural identity and description, the embedding computed from that
// description, and the domain attributes carried along for display and
// filtering. Records are written with replace-on-identifier semantics, so the
// latest Vector and UpdatedAt always win.
type Record struct {
	Id          ID
	NaturalID   string            // Natural identifier from the source system
	Kind        string            // Record kind name, e.g. "filing" or "lender"
	Description string            // Natural-language text the embedding was computed from
	Date        time.Time         // Domain date used for range-filtered queries
	Metadata    map[string]string // Kind-specific attributes (codes, counts, volumes)
	Vector      []float32         // Embedding vector, normalized to unit length
	UpdatedAt   time.Time         // Set at enrichment time; persisted at microsecond precision
}

// Filing is a raw source record from the document publishing API.
// Filings are immutable once fetched; the pipeline only reads them.
type Filing struct {
	PackageID    string
	Title        string
	Collection   string // Collection code the package belongs to
	Category     string
	DateIssued   time.Time
	LastModified time.Time
	PageCount    int
}

// Lender is a raw source record from the lender aggregate extract.
type Lender struct {
	LenderID    string
	Name        string
	State       string
	LoanCount   int
	TotalVolume float64 // Aggregate loan volume in dollars; 0 when unreported
	AsOfDate    time.Time
}

// SearchResult is a similarity match with its score as reported by the store.
type SearchResult struct {
	Record *Record
	Score  float32
}
