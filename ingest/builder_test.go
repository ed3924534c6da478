package ingest

import (
	"testing"

	"github.com/poiesic/wikigraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecords_TitleOnly(t *testing.T) {
	page := core.Page{Title: "Empty"}

	nodes, links := BuildRecords(page, nil)
	require.Len(t, nodes, 1)
	assert.Empty(t, links)

	assert.Equal(t, core.TitleUID("Empty"), nodes[0].UID)
	assert.Equal(t, core.KindTitle, nodes[0].Kind)
	assert.Equal(t, "Empty", nodes[0].Properties["name"])
}

func TestBuildRecords_OwnerLinks(t *testing.T) {
	page := core.Page{Title: "Main"}
	chunks := []core.Chunk{
		{Content: "Intro.", Index: 0, Kind: core.KindParagraph, Owner: "Main"},
		{Content: "History", Index: 1, Kind: core.KindHeading, Owner: "Main"},
		{Content: "Later events.", Index: 2, Kind: core.KindParagraph, Owner: "History"},
	}

	nodes, links := BuildRecords(page, chunks)
	require.Len(t, nodes, 4)
	require.Len(t, links, 3)

	// Page-level paragraph hangs off the title vertex.
	assert.Equal(t, core.TitleUID("Main"), links[0].SourceUID)
	assert.Equal(t, core.ParagraphUID("Main", 0, "Intro."), links[0].TargetUID)

	// Heading hangs off the title vertex too.
	assert.Equal(t, core.TitleUID("Main"), links[1].SourceUID)
	assert.Equal(t, core.HeadingUID("Main", "History"), links[1].TargetUID)

	// Paragraph under the heading hangs off the heading vertex.
	assert.Equal(t, core.HeadingUID("Main", "History"), links[2].SourceUID)
	assert.Equal(t, core.ParagraphUID("Main", 2, "Later events."), links[2].TargetUID)
}

func TestBuildRecords_ChunkProperties(t *testing.T) {
	page := core.Page{Title: "Main"}
	chunks := []core.Chunk{
		{Content: "Some text.", Index: 0, Kind: core.KindParagraph, Owner: "Main"},
	}

	nodes, _ := BuildRecords(page, chunks)
	require.Len(t, nodes, 2)

	para := nodes[1]
	assert.Equal(t, core.KindParagraph, para.Kind)
	assert.Equal(t, "Some text.", para.Properties["content"])
	assert.Equal(t, 0, para.Properties["index"])
}

func TestBuildRecords_WikiLinkTargets(t *testing.T) {
	page := core.Page{Title: "Main"}
	chunks := []core.Chunk{
		{Content: "Hello [[World]] and [[Python|Language]].", Index: 0, Kind: core.KindParagraph, Owner: "Main"},
	}

	_, links := BuildRecords(page, chunks)
	require.Len(t, links, 3)

	paraUID := core.ParagraphUID("Main", 0, chunks[0].Content)
	assert.Equal(t, core.Link{SourceUID: paraUID, TargetUID: "World"}, links[1])
	assert.Equal(t, core.Link{SourceUID: paraUID, TargetUID: "Python"}, links[2])
}

func TestBuildRecords_HeadingContentNotScannedForLinks(t *testing.T) {
	page := core.Page{Title: "Main"}
	chunks := []core.Chunk{
		{Content: "[[Linked]] heading", Index: 0, Kind: core.KindHeading, Owner: "Main"},
	}

	_, links := BuildRecords(page, chunks)
	// Only the owner link; heading text never produces wiki-link edges.
	assert.Len(t, links, 1)
}

func TestBuildRecords_Deterministic(t *testing.T) {
	page := core.Page{Title: "Main"}
	chunks := []core.Chunk{
		{Content: "Text with [[Ref]].", Index: 0, Kind: core.KindParagraph, Owner: "Main"},
	}

	nodes1, links1 := BuildRecords(page, chunks)
	nodes2, links2 := BuildRecords(page, chunks)
	assert.Equal(t, nodes1, nodes2)
	assert.Equal(t, links1, links2)
}
