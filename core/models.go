package core

import (
	"encoding/hex"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// NodeKind identifies the graph label of a node. Every uid maps to exactly
// one kind for the lifetime of the graph; merges never reassign it.
type NodeKind int

const (
	// KindTitle represents a document (article) vertex.
	KindTitle NodeKind = iota + 1
	// KindHeading represents a section heading vertex.
	KindHeading
	// KindParagraph represents a paragraph chunk vertex.
	KindParagraph
)

// String returns the graph label for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindTitle:
		return "Title"
	case KindHeading:
		return "Heading"
	case KindParagraph:
		return "Paragraph"
	default:
		return "Unknown"
	}
}

// Valid reports whether the kind is one of the defined node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindTitle, KindHeading, KindParagraph:
		return true
	default:
		return false
	}
}

// Page is a raw document handed to the parser. Immutable once parsing starts.
type Page struct {
	Title      string
	RawContent string
	Metadata   map[string]string // Optional source metadata (e.g., "page_id", "revision_id")
}

// Chunk is a contiguous unit of parsed document content: a heading or a
// paragraph, tagged with its nearest enclosing hierarchy owner.
type Chunk struct {
	Content string
	Index   int      // Position in document order, starting at 0
	Kind    NodeKind // KindHeading or KindParagraph
	Owner   string   // Title of the nearest enclosing heading, or the page title
}

// Node is a graph vertex record queued for upsert. UID is the sole identity:
// two Node values with equal UID denote the same vertex.
type Node struct {
	UID        string
	Kind       NodeKind
	Properties map[string]any
}

// Link is a directed, property-free edge record between two node uids.
type Link struct {
	SourceUID string
	TargetUID string
}

// uidContentPrefix bounds how much chunk content participates in paragraph
// uid hashing.
const uidContentPrefix = 50

// TitleUID returns the uid for a document title. Titles form a flat
// namespace across all sources: identical titles merge into one vertex.
func TitleUID(title string) string {
	return title
}

// HeadingUID returns the uid for a heading under a document. The composite
// is not hashed so a chunk's owner string resolves to the same uid without
// a lookup table. Identical heading text under one document collides into a
// single vertex.
func HeadingUID(title, heading string) string {
	return title + "#" + heading
}

// ParagraphUID returns a content-hashed uid for a paragraph chunk. It is a
// pure function of the document title, the chunk's position, and a bounded
// prefix of its content, so re-parsing identical input reproduces it.
// Textual edits within the prefix change the uid: there is no stable
// identity across edits.
func ParagraphUID(title string, index int, content string) string {
	prefix := content
	if runes := []rune(content); len(runes) > uidContentPrefix {
		prefix = string(runes[:uidContentPrefix])
	}

	h, _ := blake2b.New(32, nil)
	fmt.Fprintf(h, "%s:%d:%s", title, index, prefix)
	return hex.EncodeToString(h.Sum(nil))
}

// OwnerUID resolves a chunk's owner string to the uid of the owning vertex,
// using the same rule applied when the owner itself was emitted.
func OwnerUID(pageTitle, owner string) string {
	if owner == pageTitle {
		return TitleUID(pageTitle)
	}
	return HeadingUID(pageTitle, owner)
}

// UID returns the uid for a chunk emitted from the page with the given title.
func (c Chunk) UID(pageTitle string) string {
	if c.Kind == KindHeading {
		return HeadingUID(pageTitle, c.Content)
	}
	return ParagraphUID(pageTitle, c.Index, c.Content)
}
