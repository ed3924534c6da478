package ingest

import (
	"github.com/poiesic/wikigraph/core"
	"github.com/poiesic/wikigraph/wiki"
)

// BuildRecords converts a page's chunk stream into graph records:
//
//   - one Title node per page,
//   - one node per chunk with {content, index} properties,
//   - one LINK from each chunk's hierarchy owner to the chunk,
//   - one LINK from each paragraph to every wiki-link target it mentions.
//
// Link targets reference Title uids directly; the store creates stub
// vertices for targets outside the corpus when the edge is merged.
func BuildRecords(page core.Page, chunks []core.Chunk) ([]core.Node, []core.Link) {
	nodes := make([]core.Node, 0, len(chunks)+1)
	links := make([]core.Link, 0, len(chunks))

	nodes = append(nodes, core.Node{
		UID:        core.TitleUID(page.Title),
		Kind:       core.KindTitle,
		Properties: map[string]any{"name": page.Title},
	})

	for _, chunk := range chunks {
		uid := chunk.UID(page.Title)

		nodes = append(nodes, core.Node{
			UID:  uid,
			Kind: chunk.Kind,
			Properties: map[string]any{
				"content": chunk.Content,
				"index":   chunk.Index,
			},
		})

		links = append(links, core.Link{
			SourceUID: core.OwnerUID(page.Title, chunk.Owner),
			TargetUID: uid,
		})

		if chunk.Kind == core.KindParagraph {
			for _, target := range wiki.ExtractLinks(chunk.Content) {
				links = append(links, core.Link{
					SourceUID: uid,
					TargetUID: core.TitleUID(target),
				})
			}
		}
	}

	return nodes, links
}
