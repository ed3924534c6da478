// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package wikigraph

import (
	"context"
	"log/slog"

	"github.com/poiesic/wikigraph/ai"
	"github.com/poiesic/wikigraph/ai/openai"
	"github.com/poiesic/wikigraph/graph"
	"github.com/poiesic/wikigraph/ingest"
	"github.com/poiesic/wikigraph/progress"
)

// Graph is the top-level handle over a property-graph endpoint: it owns the
// store connection, the batching writer, and the optional embedding provider
// and ingestion journal, and hands out ingestion pipelines wired to them.
type Graph struct {
	store    *graph.Neo4jStore
	writer   *graph.Writer
	embedder ai.Embedder
	journal  *progress.Journal
	resume   bool
	logger   *slog.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*graphOptions)

type graphOptions struct {
	aiConfig    *ai.Config
	embeddings  bool
	journalPath string
	resume      bool
	writerOpts  []graph.WriterOption
}

// WithAIConfig sets the embedding provider configuration and enables
// embedding enrichment.
func WithAIConfig(cfg *ai.Config) GraphOption {
	return func(o *graphOptions) {
		o.aiConfig = cfg
		o.embeddings = true
	}
}

// WithEmbeddings toggles embedding enrichment with the default AI config.
func WithEmbeddings(enabled bool) GraphOption {
	return func(o *graphOptions) {
		o.embeddings = enabled
	}
}

// WithJournal enables the ingestion journal at the given path; with resume,
// documents recorded as done are skipped on the next run.
func WithJournal(path string, resume bool) GraphOption {
	return func(o *graphOptions) {
		o.journalPath = path
		o.resume = resume
	}
}

// WithWriterOptions forwards options to the underlying graph writer.
func WithWriterOptions(opts ...graph.WriterOption) GraphOption {
	return func(o *graphOptions) {
		o.writerOpts = append(o.writerOpts, opts...)
	}
}

// NewGraph connects to the endpoint described by cfg and assembles the
// writer, embedder, and journal according to the options.
func NewGraph(ctx context.Context, cfg graph.Neo4jConfig, opts ...GraphOption) (*Graph, error) {
	// Apply options
	options := &graphOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open store
	store, err := graph.NewNeo4jStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Create writer; it owns the store from here on
	writer, err := graph.NewWriter(store, options.writerOpts...)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	// Create embedding provider with configured settings
	var embedder ai.Embedder
	if options.embeddings {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			writer.Close()
			return nil, err
		}
	}

	// Open journal
	var journal *progress.Journal
	if options.journalPath != "" {
		journal, err = progress.Open(options.journalPath)
		if err != nil {
			writer.Close()
			return nil, err
		}
	}

	return &Graph{
		store:    store,
		writer:   writer,
		embedder: embedder,
		journal:  journal,
		resume:   options.resume,
		logger:   slog.Default(),
	}, nil
}

// Writer returns the batching graph writer.
func (g *Graph) Writer() *graph.Writer {
	return g.writer
}

// EnsureSchema idempotently creates uid constraints and the embedding
// vector index on the endpoint.
func (g *Graph) EnsureSchema(ctx context.Context) error {
	return g.store.EnsureSchema(ctx)
}

// NewIngestionPipeline builds a pipeline wired to the graph's writer,
// embedder, and journal. Caller options are applied last and may override
// the wiring.
func (g *Graph) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	wired := make([]ingest.Option, 0, len(opts)+2)
	if g.embedder != nil {
		wired = append(wired, ingest.WithEmbedder(g.embedder))
	}
	if g.journal != nil {
		wired = append(wired, ingest.WithJournal(g.journal, g.resume))
	}
	wired = append(wired, opts...)
	return ingest.NewPipeline(g.writer, wired...)
}

// Close drains the writer (which closes the store) and then closes the
// journal. The returned error carries every batch write failure observed
// during the graph's lifetime.
func (g *Graph) Close() error {
	// Closing the writer waits for outstanding batches and closes the store.
	err := g.writer.Close()
	if err != nil {
		g.logger.Error("error closing graph writer", "err", err)
	}

	if g.journal != nil {
		if jErr := g.journal.Close(); jErr != nil {
			g.logger.Error("error closing journal", "err", jErr)
			if err == nil {
				err = jErr
			}
		}
	}
	return err
}
