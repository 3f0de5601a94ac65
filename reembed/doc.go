// Package reembed regenerates embeddings for every stored record, for use
// after switching embedding models or changing description templates.
package reembed
