// Package source provides document sources for the ingestion pipeline: a
// directory of one-document-per-file text inputs and a streaming MediaWiki
// XML export reader. Both yield pages lazily in a stable order.
package source
