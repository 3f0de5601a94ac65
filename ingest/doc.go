// Package ingest implements the batched ingestion pipeline: it pulls
// pages of source records, renders each record into descriptive text,
// generates embeddings, and upserts the enriched records into the vector
// store.
//
// The pipeline is generic over the source record type. A Kind bundles
// everything type-specific: the kind name, natural identifier extraction,
// description rendering, and metadata. FilingKind and LenderKind are the
// two built-in kinds.
//
// Failure handling follows three rules. Fetch failures abort the run.
// Embedding failures are always retried under the policy. Store failures
// are retried only when classified transient. A batch that fails after
// retries is counted and skipped; the run continues with the next batch.
package ingest
