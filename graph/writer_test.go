package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/wikigraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeCall struct {
	kind core.NodeKind
	rows []map[string]any
}

// fakeStore records merges in memory and can be told to fail.
type fakeStore struct {
	mu        sync.Mutex
	nodeCalls []nodeCall
	linkRows  []map[string]any
	nodeErr   error
	closed    bool
	schema    bool
}

var _ Store = (*fakeStore)(nil)

func (s *fakeStore) MergeNodes(_ context.Context, kind core.NodeKind, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nodeErr != nil {
		return s.nodeErr
	}
	s.nodeCalls = append(s.nodeCalls, nodeCall{kind: kind, rows: rows})
	return nil
}

func (s *fakeStore) MergeLinks(_ context.Context, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkRows = append(s.linkRows, rows...)
	return nil
}

func (s *fakeStore) EnsureSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = true
	return nil
}

func (s *fakeStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) totalNodeRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, call := range s.nodeCalls {
		total += len(call.rows)
	}
	return total
}

// mergeStore applies batches with the real store's merge semantics: nodes
// keyed by uid with additive kind labels and overwritten properties, links
// as a set that creates stub endpoints.
type mergeStore struct {
	mu     sync.Mutex
	nodes  map[string]map[string]any
	labels map[string]map[core.NodeKind]bool
	links  map[string]bool
}

var _ Store = (*mergeStore)(nil)

func newMergeStore() *mergeStore {
	return &mergeStore{
		nodes:  make(map[string]map[string]any),
		labels: make(map[string]map[core.NodeKind]bool),
		links:  make(map[string]bool),
	}
}

func (s *mergeStore) MergeNodes(_ context.Context, kind core.NodeKind, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		uid, _ := row["uid"].(string)
		node := s.nodes[uid]
		if node == nil {
			node = map[string]any{"uid": uid}
			s.nodes[uid] = node
		}
		for k, v := range row {
			node[k] = v
		}
		if s.labels[uid] == nil {
			s.labels[uid] = make(map[core.NodeKind]bool)
		}
		s.labels[uid][kind] = true
	}
	return nil
}

func (s *mergeStore) MergeLinks(_ context.Context, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		src, _ := row["source"].(string)
		dst, _ := row["target"].(string)
		for _, uid := range []string{src, dst} {
			if s.nodes[uid] == nil {
				s.nodes[uid] = map[string]any{"uid": uid}
			}
		}
		s.links[src+"->"+dst] = true
	}
	return nil
}

func (s *mergeStore) EnsureSchema(_ context.Context) error { return nil }

func (s *mergeStore) Close(_ context.Context) error { return nil }

// snapshot deep-copies the store state for comparison.
func (s *mergeStore) snapshot() (map[string]map[string]any, map[string]map[core.NodeKind]bool, map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := make(map[string]map[string]any, len(s.nodes))
	for uid, node := range s.nodes {
		cp := make(map[string]any, len(node))
		for k, v := range node {
			cp[k] = v
		}
		nodes[uid] = cp
	}
	labels := make(map[string]map[core.NodeKind]bool, len(s.labels))
	for uid, kinds := range s.labels {
		cp := make(map[core.NodeKind]bool, len(kinds))
		for k, v := range kinds {
			cp[k] = v
		}
		labels[uid] = cp
	}
	links := make(map[string]bool, len(s.links))
	for key := range s.links {
		links[key] = true
	}
	return nodes, labels, links
}

func writeCorpus(t *testing.T, store Store, linksFirst bool) {
	t.Helper()

	nodes := []core.Node{
		{UID: "Main", Kind: core.KindTitle, Properties: map[string]any{"name": "Main"}},
		{UID: "p1", Kind: core.KindParagraph, Properties: map[string]any{"content": "See [[Other]].", "index": 0}},
	}
	links := []core.Link{
		{SourceUID: "Main", TargetUID: "p1"},
		{SourceUID: "p1", TargetUID: "Other"},
	}

	w, err := NewWriter(store, WithConcurrency(1))
	require.NoError(t, err)

	ctx := context.Background()
	if linksFirst {
		require.NoError(t, w.WriteLinks(ctx, links...))
		require.NoError(t, w.WriteNodes(ctx, nodes...))
	} else {
		require.NoError(t, w.WriteNodes(ctx, nodes...))
		require.NoError(t, w.WriteLinks(ctx, links...))
	}
	require.NoError(t, w.Close())
}

func titleNode(uid string) core.Node {
	return core.Node{UID: uid, Kind: core.KindTitle, Properties: map[string]any{"name": uid}}
}

func TestNewWriter_RequiresStore(t *testing.T) {
	_, err := NewWriter(nil)
	require.ErrorIs(t, err, ErrStoreRequired)
}

func TestWriter_CloseDrainsBuffers(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store, WithBatchSize(100))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.WriteNodes(ctx, titleNode("a"), titleNode("b")))
	require.NoError(t, w.WriteLinks(ctx, core.Link{SourceUID: "a", TargetUID: "b"}))

	require.NoError(t, w.Close())

	assert.Equal(t, 2, store.totalNodeRows())
	assert.Len(t, store.linkRows, 1)
	assert.True(t, store.closed)
}

func TestWriter_BatchThresholdTriggersSubmit(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store, WithBatchSize(2), WithConcurrency(1))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.WriteNodes(ctx, titleNode("a"), titleNode("b"), titleNode("c")))
	require.NoError(t, w.Close())

	// Three rows over batch size two arrive in two merge calls.
	assert.Equal(t, 3, store.totalNodeRows())
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.nodeCalls, 2)
	assert.Len(t, store.nodeCalls[0].rows, 2)
	assert.Len(t, store.nodeCalls[1].rows, 1)
}

func TestWriter_GroupsNodesByKind(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store, WithBatchSize(100), WithConcurrency(1))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.WriteNodes(ctx,
		core.Node{UID: "p1", Kind: core.KindParagraph},
		titleNode("t1"),
		core.Node{UID: "h1", Kind: core.KindHeading},
		titleNode("t2"),
	))
	require.NoError(t, w.Close())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.nodeCalls, 3)
	assert.Equal(t, core.KindTitle, store.nodeCalls[0].kind)
	assert.Len(t, store.nodeCalls[0].rows, 2)
	assert.Equal(t, core.KindHeading, store.nodeCalls[1].kind)
	assert.Equal(t, core.KindParagraph, store.nodeCalls[2].kind)
}

func TestWriter_DropsInvalidRecords(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.WriteNodes(ctx, core.Node{Kind: core.KindTitle})) // no uid
	require.NoError(t, w.WriteLinks(ctx, core.Link{SourceUID: "a"}))      // no target
	require.NoError(t, w.Close())

	assert.Zero(t, store.totalNodeRows())
	assert.Empty(t, store.linkRows)
}

func TestWriter_WriteAfterClose(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.WriteNodes(context.Background(), titleNode("a"))
	assert.ErrorIs(t, err, ErrWriterClosed)

	err = w.WriteLinks(context.Background(), core.Link{SourceUID: "a", TargetUID: "b"})
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestWriter_CloseSurfacesBatchErrors(t *testing.T) {
	boom := errors.New("merge exploded")
	store := &fakeStore{nodeErr: boom}
	w, err := NewWriter(store, WithBatchSize(1))
	require.NoError(t, err)

	require.NoError(t, w.WriteNodes(context.Background(), titleNode("a")))

	err = w.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// The store still gets closed.
	assert.True(t, store.closed)
}

func TestWriter_CancelledContext(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, w.WriteNodes(ctx, titleNode("a")))
	assert.Error(t, w.WriteLinks(ctx, core.Link{SourceUID: "a", TargetUID: "b"}))
}

func TestWriter_LinkRows(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store)
	require.NoError(t, err)

	require.NoError(t, w.WriteLinks(context.Background(), core.Link{SourceUID: "src", TargetUID: "dst"}))
	require.NoError(t, w.Close())

	require.Len(t, store.linkRows, 1)
	assert.Equal(t, "src", store.linkRows[0]["source"])
	assert.Equal(t, "dst", store.linkRows[0]["target"])
}

func TestNodeRow_UIDWins(t *testing.T) {
	row := nodeRow(core.Node{
		UID:        "real",
		Kind:       core.KindParagraph,
		Properties: map[string]any{"uid": "impostor", "content": "text"},
	})
	assert.Equal(t, "real", row["uid"])
	assert.Equal(t, "text", row["content"])
}

func TestWriter_RepeatedIngestionConverges(t *testing.T) {
	store := newMergeStore()

	writeCorpus(t, store, false)
	nodes1, labels1, links1 := store.snapshot()

	// Re-ingesting the identical corpus leaves the graph unchanged.
	writeCorpus(t, store, false)
	nodes2, labels2, links2 := store.snapshot()

	assert.Equal(t, nodes1, nodes2)
	assert.Equal(t, labels1, labels2)
	assert.Equal(t, links1, links2)

	// One vertex per uid, including the stub for the unresolved target.
	assert.Len(t, nodes2, 3)
	assert.Len(t, links2, 2)
}

func TestWriter_LinkOrderDoesNotChangeGraph(t *testing.T) {
	nodesFirst := newMergeStore()
	writeCorpus(t, nodesFirst, false)

	linksFirst := newMergeStore()
	writeCorpus(t, linksFirst, true)

	// Links written before their endpoints create stubs that later node
	// merges fill in; both orders converge to the same graph.
	an, al, ae := nodesFirst.snapshot()
	bn, bl, be := linksFirst.snapshot()
	assert.Equal(t, an, bn)
	assert.Equal(t, al, bl)
	assert.Equal(t, ae, be)
}

func TestWriter_EnsureSchema(t *testing.T) {
	store := &fakeStore{}
	w, err := NewWriter(store)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.EnsureSchema(context.Background()))
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.True(t, store.schema)
}
