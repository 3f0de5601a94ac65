package ingest

import (
	"time"

	"github.com/finsight/lendex/core"
)

// Kind describes how one source record type maps into stored records:
// its stable kind name, how to extract the natural identifier, how to
// render the text that gets embedded, and which attributes to carry along.
type Kind[T any] struct {
	// Name is the stable kind name, e.g. "filing". It scopes natural
	// identifiers, so two kinds can share identifier values without
	// colliding in the store.
	Name string

	// NaturalID extracts the source system's identifier.
	NaturalID func(item T) string

	// Describe renders the natural-language text the embedding is
	// computed from.
	Describe func(item T) string

	// Date extracts the domain date used for range-filtered queries.
	Date func(item T) time.Time

	// Metadata extracts kind-specific attributes carried for display.
	Metadata func(item T) map[string]string
}

// record builds the stored record for one source item, minus the vector
// and update timestamp which are filled in at enrichment time.
func (k Kind[T]) record(item T) *core.Record {
	return &core.Record{
		NaturalID:   k.NaturalID(item),
		Kind:        k.Name,
		Description: k.Describe(item),
		Date:        k.Date(item),
		Metadata:    k.Metadata(item),
	}
}
