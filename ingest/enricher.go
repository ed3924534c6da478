package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/wikigraph/ai"
	"github.com/poiesic/wikigraph/core"
)

// DefaultEmbedBatchSize is the default number of texts per embedding call.
const DefaultEmbedBatchSize = 32

// Enricher attaches embedding vectors to node properties. Enrichment runs
// before nodes reach the graph writer, so a node is never flushed to the
// store with its embedding still pending.
type Enricher struct {
	embedder       ai.Embedder
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewEnricher creates an enricher over the given embedder.
// batchSize: number of texts per embedding call
// maxRetries: attempts per embedding call before the batch is skipped
// retryBaseDelay: base delay for exponential backoff
func NewEnricher(embedder ai.Embedder, batchSize, maxRetries int, retryBaseDelay time.Duration) *Enricher {
	if batchSize < 1 {
		batchSize = DefaultEmbedBatchSize
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Enricher{
		embedder:       embedder,
		batchSize:      batchSize,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "enricher"),
	}
}

// Enrich sets the "embedding" property on every content-bearing node.
// Embeddings are best-effort: a batch that still fails after retries is
// skipped with a warning, and the affected nodes keep their graph
// structure without a vector.
func (e *Enricher) Enrich(ctx context.Context, nodes []core.Node) {
	var indexes []int
	var texts []string
	for i := range nodes {
		content, ok := nodes[i].Properties["content"].(string)
		if !ok || content == "" {
			continue
		}
		indexes = append(indexes, i)
		texts = append(texts, content)
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = e.embedder.EmbedTexts(ctx, batch)
			return embedErr
		}, e.maxRetries, e.retryBaseDelay)
		if err != nil {
			e.logger.Warn("skipping embeddings for batch", "size", len(batch), "err", err)
			continue
		}
		if len(vectors) != len(batch) {
			e.logger.Warn("embedding result mismatch", "expected", len(batch), "received", len(vectors))
			continue
		}

		for j, vec := range vectors {
			nodes[indexes[start+j]].Properties["embedding"] = toFloat64(vec)
		}
	}
}

// toFloat64 widens an embedding so it round-trips through the store's
// parameter encoding.
func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
