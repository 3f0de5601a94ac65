// Package storage defines the persistence contracts for enriched records.
//
// The RecordRepository interface covers idempotent batch upsert keyed by a
// deterministic natural-key ID, lookup and date-range queries, and vector
// similarity search with an optional date filter. The Classify function maps
// backend-specific error encodings onto a closed set of transient failure
// kinds so retry policy stays decoupled from any one store.
//
// The badger subpackage provides the BadgerDB-backed implementation.
package storage
