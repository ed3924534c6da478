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


package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/wikigraph/ai"
	"github.com/poiesic/wikigraph/core"
	"github.com/poiesic/wikigraph/graph"
	"github.com/poiesic/wikigraph/wiki"
)

// Source yields pages to ingest. Implementations live in the source
// package; the pipeline is agnostic to their origin.
type Source interface {
	// ForEach calls fn for every page in document order. Iteration stops on
	// the first error from fn or on context cancellation.
	ForEach(ctx context.Context, fn func(core.Page) error) error
}

// Journal records per-document ingestion outcomes so interrupted runs can
// be resumed. Journal failures never abort ingestion.
type Journal interface {
	// Done reports whether the document completed in an earlier run.
	Done(title string) bool

	// MarkDone records a successful ingestion of the document.
	MarkDone(title string) error

	// MarkFailed records a failed ingestion and its cause.
	MarkFailed(title string, cause error) error
}

// Pipeline drives the per-document ingestion workflow: parse, build
// records, enrich with embeddings, write to the graph. Documents are
// processed concurrently by a worker pool sized via WithWorkers.
type Pipeline struct {
	writer   *graph.Writer
	embedder ai.Embedder
	enricher *Enricher
	journal  Journal
	pool     *ants.Pool
	logger   *slog.Logger

	maxParagraphLen int
	overlap         int
	embedBatchSize  int
	maxRetries      int
	retryBaseDelay  time.Duration
	resume          bool

	mu   sync.Mutex
	errs []error
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the number of documents processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithEmbedder enables embedding enrichment using the given provider.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		p.embedder = embedder
		return nil
	}
}

// WithEmbedBatchSize sets the number of texts per embedding call.
func WithEmbedBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n >= 1 {
			p.embedBatchSize = n
		}
		return nil
	}
}

// WithJournal enables outcome tracking; with resume, documents already
// marked done are skipped.
func WithJournal(journal Journal, resume bool) Option {
	return func(p *Pipeline) error {
		p.journal = journal
		p.resume = resume
		return nil
	}
}

// WithMaxParagraphLen sets the parser's maximum paragraph chunk length.
func WithMaxParagraphLen(n int) Option {
	return func(p *Pipeline) error {
		p.maxParagraphLen = n
		return nil
	}
}

// WithOverlap sets the parser's sub-chunk overlap length.
func WithOverlap(n int) Option {
	return func(p *Pipeline) error {
		p.overlap = n
		return nil
	}
}

// WithPipelineLogger sets a custom logger.
func WithPipelineLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given writer.
func NewPipeline(writer *graph.Writer, opts ...Option) (*Pipeline, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		writer:          writer,
		pool:            pool,
		logger:          slog.Default().With("component", "pipeline"),
		maxParagraphLen: wiki.DefaultMaxParagraphLen,
		overlap:         wiki.DefaultOverlap,
		embedBatchSize:  DefaultEmbedBatchSize,
		maxRetries:      3,
		retryBaseDelay:  time.Second,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the enricher after options are applied so it gets final config.
	if p.embedder != nil {
		p.enricher = NewEnricher(p.embedder, p.embedBatchSize, p.maxRetries, p.retryBaseDelay)
	}

	return p, nil
}

// Run ingests every page from the source. Per-document failures are
// recorded and the run continues; the returned error aggregates them along
// with any source iteration error. The caller owns the writer and must
// close it after Run to drain outstanding graph writes.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	var wg sync.WaitGroup

	iterErr := src.ForEach(ctx, func(page core.Page) error {
		if err := core.ValidatePage(&page); err != nil {
			p.record(fmt.Errorf("skipping page: %w", err))
			return nil
		}

		if p.resume && p.journal != nil && p.journal.Done(page.Title) {
			p.logger.Debug("skipping completed page", "title", page.Title)
			return nil
		}

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			p.processPage(ctx, page)
		}); err != nil {
			wg.Done()
			return err
		}
		return nil
	})

	wg.Wait()

	p.mu.Lock()
	errs := p.errs
	p.errs = nil
	p.mu.Unlock()

	return errors.Join(append(errs, iterErr)...)
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// processPage runs the full ingestion workflow for one document.
func (p *Pipeline) processPage(ctx context.Context, page core.Page) {
	p.logger.Info("processing page", "title", page.Title)

	parser := wiki.NewParser(page,
		wiki.WithMaxParagraphLen(p.maxParagraphLen),
		wiki.WithOverlap(p.overlap),
	)
	chunks := parser.All()
	nodes, links := BuildRecords(page, chunks)

	if p.enricher != nil {
		p.enricher.Enrich(ctx, nodes)
	}

	if err := p.writer.WriteNodes(ctx, nodes...); err != nil {
		p.fail(page.Title, fmt.Errorf("page %q: write nodes: %w", page.Title, err))
		return
	}
	if err := p.writer.WriteLinks(ctx, links...); err != nil {
		p.fail(page.Title, fmt.Errorf("page %q: write links: %w", page.Title, err))
		return
	}

	p.logger.Debug("page processed", "title", page.Title, "chunks", len(chunks), "nodes", len(nodes), "links", len(links))

	if p.journal != nil {
		if err := p.journal.MarkDone(page.Title); err != nil {
			p.logger.Warn("could not journal completion", "title", page.Title, "err", err)
		}
	}
}

func (p *Pipeline) fail(title string, err error) {
	p.logger.Error("page ingestion failed", "title", title, "err", err)
	p.record(err)
	if p.journal != nil {
		if jErr := p.journal.MarkFailed(title, err); jErr != nil {
			p.logger.Warn("could not journal failure", "title", title, "err", jErr)
		}
	}
}

func (p *Pipeline) record(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}
