// Package ingest orchestrates the document-to-graph pipeline.
//
// For each page the pipeline parses the wiki markup into chunks, derives
// node and link records with deterministic uids, attaches embedding
// vectors, and hands the records to the graph writer. Documents are
// processed concurrently by a worker pool; a failed document is recorded
// and skipped, and the run continues with the next one.
package ingest
