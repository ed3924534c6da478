package graph

import (
	"context"

	"github.com/poiesic/wikigraph/core"
)

// Store is the contract the writer needs from a graph database. All
// methods must be safe for concurrent use; each call applies one batch as
// a single atomic operation.
type Store interface {
	// MergeNodes upserts one homogeneous batch of vertices. Each row is a
	// flat property map containing the "uid" merge key; an existing vertex
	// with the same uid has its properties overwritten, not duplicated.
	MergeNodes(ctx context.Context, kind core.NodeKind, rows []map[string]any) error

	// MergeLinks upserts one batch of directed edges. Each row carries
	// "source" and "target" uids. Missing endpoints are created as stub
	// vertices so link batches may arrive before their node batches.
	MergeLinks(ctx context.Context, rows []map[string]any) error

	// EnsureSchema idempotently creates uniqueness constraints and indexes
	// on the identity fields. Failures are advisory: constraints are an
	// integrity aid, not a correctness precondition of the merge strategy.
	EnsureSchema(ctx context.Context) error

	// Close releases the store connection.
	Close(ctx context.Context) error
}
