package ingest

import "errors"

var (
	// ErrWriterRequired is returned when a pipeline is created without a writer.
	ErrWriterRequired = errors.New("graph writer required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
