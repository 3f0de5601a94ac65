// Package ai defines the embedding service abstraction used by the
// ingestion pipeline and search.
//
// The Embedder interface converts text into fixed-dimensionality vectors;
// the openai subpackage implements it against any OpenAI-compatible API,
// and the mock subpackage provides a deterministic test double.
package ai
