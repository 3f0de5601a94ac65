// Package search implements semantic similarity search over ingested
// records, with score thresholds, result limits, and domain-date filters.
package search
