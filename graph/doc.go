// Package graph writes node and link records to a property-graph store
// using buffered, batched, bounded-concurrency upserts.
//
// The Writer accumulates records in per-type buffers, drains them into
// fixed-size batches grouped by node kind, and submits each batch to a
// worker pool for asynchronous application. All store operations are
// merge-or-create keyed on uid, with stub vertices created for missing
// link endpoints, so batches commute: any application order, and any
// number of re-runs over the same input, converge to the same graph.
package graph
