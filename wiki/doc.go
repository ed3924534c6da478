// Package wiki parses wiki-markup documents into ordered, typed chunks.
//
// The Parser walks a document top to bottom, maintaining a stack of open
// headings so that every emitted chunk carries its nearest enclosing
// hierarchy owner. Paragraph blocks that exceed the configured maximum
// length are split into overlapping sub-chunks, preferring whitespace
// boundaries and never splitting inside an unterminated [[...]] link.
//
// Parsing is deterministic: the same document text always yields the same
// chunk sequence, which the graph layer relies on for idempotent upserts.
package wiki
