// Package ai defines the embedding provider abstraction used to enrich
// graph nodes with vector embeddings.
//
// Embeddings are best-effort enrichment: a provider failure never blocks
// graph construction, only leaves the affected nodes without a vector.
package ai
