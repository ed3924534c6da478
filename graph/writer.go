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


package graph

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/wikigraph/core"
)

const (
	// DefaultBatchSize is the default number of rows per store operation.
	DefaultBatchSize = 1000

	// DefaultConcurrency is the default ceiling on in-flight store writes.
	DefaultConcurrency = 4
)

// nodeKindOrder fixes the order in which per-kind sub-batches are formed,
// so the same input always produces the same batch sequence.
var nodeKindOrder = []core.NodeKind{core.KindTitle, core.KindHeading, core.KindParagraph}

// Writer buffers node and link records and applies them to the store as
// batched, concurrent upserts. Records handed to WriteNodes/WriteLinks are
// owned by the writer from that point on.
//
// No ordering is guaranteed across batches or between node and link writes;
// the store's merge semantics make every application order converge to the
// same graph. A failed batch is recorded and surfaced from Flush or Close,
// with no automatic retry: re-running ingestion is the recovery path, made
// safe by upsert idempotence.
type Writer struct {
	store     Store
	batchSize int
	pool      *ants.Pool
	logger    *slog.Logger

	nodeMu sync.Mutex
	nodes  []core.Node

	linkMu sync.Mutex
	links  []core.Link

	wg     sync.WaitGroup
	errMu  sync.Mutex
	errs   []error
	closed bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer) error

// WithBatchSize sets the number of rows per store operation.
func WithBatchSize(size int) WriterOption {
	return func(w *Writer) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		w.batchSize = size
		return nil
	}
}

// WithConcurrency sets the maximum number of in-flight store writes.
func WithConcurrency(n int) WriterOption {
	return func(w *Writer) error {
		if n < 1 {
			n = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithWriterLogger sets a custom logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger.With("component", "graph-writer")
		return nil
	}
}

// NewWriter creates a writer over the given store.
func NewWriter(store Store, opts ...WriterOption) (*Writer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	pool, err := ants.NewPool(DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		store:     store,
		batchSize: DefaultBatchSize,
		pool:      pool,
		logger:    slog.Default().With("component", "graph-writer"),
	}

	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.pool.Release()
			return nil, optErr
		}
	}

	return w, nil
}

// EnsureSchema idempotently creates the store's constraints and indexes.
// Failures are advisory and logged by the store, not fatal.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	return w.store.EnsureSchema(ctx)
}

// WriteNodes appends nodes to the buffer, submitting full batches for
// asynchronous writing. Invalid nodes are dropped and logged; they never
// fail the batch.
func (w *Writer) WriteNodes(ctx context.Context, nodes ...core.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valid := nodes[:0:0]
	for i := range nodes {
		if err := core.ValidateNode(&nodes[i]); err != nil {
			w.logger.Warn("dropping invalid node", "err", err)
			continue
		}
		valid = append(valid, nodes[i])
	}
	if len(valid) == 0 {
		return nil
	}

	w.nodeMu.Lock()
	if w.closed {
		w.nodeMu.Unlock()
		return ErrWriterClosed
	}
	w.nodes = append(w.nodes, valid...)
	var drained []core.Node
	if len(w.nodes) >= w.batchSize {
		drained = w.nodes
		w.nodes = nil
	}
	w.nodeMu.Unlock()

	if drained != nil {
		return w.submitNodes(drained)
	}
	return nil
}

// WriteLinks appends links to the buffer, submitting full batches for
// asynchronous writing. Invalid links are dropped and logged.
func (w *Writer) WriteLinks(ctx context.Context, links ...core.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valid := links[:0:0]
	for i := range links {
		if err := core.ValidateLink(&links[i]); err != nil {
			w.logger.Warn("dropping invalid link", "err", err)
			continue
		}
		valid = append(valid, links[i])
	}
	if len(valid) == 0 {
		return nil
	}

	w.linkMu.Lock()
	if w.closed {
		w.linkMu.Unlock()
		return ErrWriterClosed
	}
	w.links = append(w.links, valid...)
	var drained []core.Link
	if len(w.links) >= w.batchSize {
		drained = w.links
		w.links = nil
	}
	w.linkMu.Unlock()

	if drained != nil {
		return w.submitLinks(drained)
	}
	return nil
}

// Flush submits all buffered nodes and links regardless of batch size.
// It does not wait for the submitted writes to complete; Close does.
func (w *Writer) Flush() error {
	w.nodeMu.Lock()
	nodes := w.nodes
	w.nodes = nil
	w.nodeMu.Unlock()

	w.linkMu.Lock()
	links := w.links
	w.links = nil
	w.linkMu.Unlock()

	var errs []error
	if len(nodes) > 0 {
		if err := w.submitNodes(nodes); err != nil {
			errs = append(errs, err)
		}
	}
	if len(links) > 0 {
		if err := w.submitLinks(links); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes the buffers, waits for every outstanding write to finish,
// then releases the worker pool and the store connection. It must be
// called exactly once; the writer is unusable afterwards. The returned
// error aggregates all batch write failures observed during the writer's
// lifetime.
func (w *Writer) Close() error {
	flushErr := w.Flush()

	w.nodeMu.Lock()
	w.closed = true
	w.nodeMu.Unlock()
	w.linkMu.Lock()
	w.closed = true
	w.linkMu.Unlock()

	w.wg.Wait()
	w.pool.Release()

	closeErr := w.store.Close(context.Background())

	w.errMu.Lock()
	errs := w.errs
	w.errs = nil
	w.errMu.Unlock()

	return errors.Join(append(errs, flushErr, closeErr)...)
}

// submitNodes groups nodes by kind, slices each group into batches, and
// hands every batch to the pool. Submit blocks while all workers are busy,
// which is the writer's concurrency permit.
func (w *Writer) submitNodes(nodes []core.Node) error {
	byKind := make(map[core.NodeKind][]map[string]any, len(nodeKindOrder))
	for _, n := range nodes {
		byKind[n.Kind] = append(byKind[n.Kind], nodeRow(n))
	}

	for _, kind := range nodeKindOrder {
		rows := byKind[kind]
		for start := 0; start < len(rows); start += w.batchSize {
			end := min(start+w.batchSize, len(rows))
			batch := rows[start:end]
			k := kind
			if err := w.dispatch(func(ctx context.Context) error {
				return w.store.MergeNodes(ctx, k, batch)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// submitLinks slices links into batches and hands each to the pool.
func (w *Writer) submitLinks(links []core.Link) error {
	rows := make([]map[string]any, len(links))
	for i, l := range links {
		rows[i] = map[string]any{"source": l.SourceUID, "target": l.TargetUID}
	}

	for start := 0; start < len(rows); start += w.batchSize {
		end := min(start+w.batchSize, len(rows))
		batch := rows[start:end]
		if err := w.dispatch(func(ctx context.Context) error {
			return w.store.MergeLinks(ctx, batch)
		}); err != nil {
			return err
		}
	}
	return nil
}

// dispatch runs one batch write on the pool. Batch failures are recorded
// and surfaced from Close; there is no cancellation or deadline on the
// in-flight writes.
func (w *Writer) dispatch(task func(context.Context) error) error {
	w.wg.Add(1)
	err := w.pool.Submit(func() {
		defer w.wg.Done()
		if taskErr := task(context.Background()); taskErr != nil {
			w.logger.Error("batch write failed", "err", taskErr)
			w.recordErr(taskErr)
		}
	})
	if err != nil {
		w.wg.Done()
		return err
	}
	return nil
}

func (w *Writer) recordErr(err error) {
	w.errMu.Lock()
	w.errs = append(w.errs, err)
	w.errMu.Unlock()
}

// nodeRow flattens a node into the parameter row bound to the merge
// statement. The uid key wins over any property of the same name.
func nodeRow(n core.Node) map[string]any {
	row := make(map[string]any, len(n.Properties)+1)
	for k, v := range n.Properties {
		row[k] = v
	}
	row["uid"] = n.UID
	return row
}
