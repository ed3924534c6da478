package graph

import "errors"

var (
	// ErrStoreRequired is returned when a writer is created without a store.
	ErrStoreRequired = errors.New("graph store required")

	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")

	// ErrURIRequired is returned when the store is configured without an endpoint.
	ErrURIRequired = errors.New("neo4j uri required")
)
