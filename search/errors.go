package search

import "errors"

var (
	// ErrEmptyQuery is returned when a search is attempted with no query text
	ErrEmptyQuery = errors.New("query text is required")

	// ErrEmbedderRequired is returned when a searcher is created without an embedder
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrRepositoryRequired is returned when a searcher is created without a record repository
	ErrRepositoryRequired = errors.New("record repository is required")
)
