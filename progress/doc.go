// Package progress persists per-document ingestion outcomes in a local
// BadgerDB journal. The pipeline consults the journal when resuming an
// interrupted run so documents that already completed are skipped; graph
// upsert idempotence makes re-processing safe either way, the journal just
// avoids the wasted work.
package progress
