// Package source provides paginated record sources for the ingestion
// pipeline.
//
// A Source yields pages of domain records behind an opaque Cursor, so a
// pipeline can resume from any previously observed position. FilingClient
// pages through a publishing API's cursor-based endpoint; LenderSource
// adapts an offset-based lender extract to the same contract.
package source
