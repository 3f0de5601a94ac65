package source

import "context"

// Cursor is an opaque pagination token. Callers treat it as a resumable
// position and never inspect its contents.
type Cursor string

// Start is the cursor for the first page of any source.
const Start Cursor = "*"

// Page is one fetched page of records plus the position of the next one.
type Page[T any] struct {
	// Records holds the page contents in source order.
	Records []T

	// Next is the cursor for the following page. Only meaningful
	// when HasNext is true.
	Next Cursor

	// HasNext reports whether another page exists after this one.
	HasNext bool
}

// Source produces records one page at a time.
//
// Fetch errors are terminal: a failed fetch means the source position is
// unknown and the caller must abort rather than retry.
type Source[T any] interface {
	// Fetch returns the page at the given cursor. Pass Start for the
	// first page.
	Fetch(ctx context.Context, cursor Cursor) (*Page[T], error)
}
