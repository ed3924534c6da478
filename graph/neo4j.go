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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/poiesic/wikigraph/core"
)

const (
	// DefaultEmbedDim is the default embedding dimension declared on the
	// paragraph vector index.
	DefaultEmbedDim = 384

	defaultMaxPoolSize    = 50
	defaultConnectTimeout = 10 * time.Second
)

// Neo4jConfig holds connection settings for a Neo4j store.
type Neo4jConfig struct {
	// URI is the bolt endpoint, e.g. "bolt://localhost:7687".
	URI string

	// User and Password authenticate against the server.
	User     string
	Password string

	// Database selects a named database; empty uses the server default.
	Database string

	// MaxPoolSize caps the driver's connection pool. Zero uses the default.
	MaxPoolSize int

	// ConnectTimeout bounds socket establishment. Zero uses the default.
	ConnectTimeout time.Duration

	// EmbedDim is the embedding dimension for the paragraph vector index.
	// Zero uses DefaultEmbedDim.
	EmbedDim int
}

// Neo4jStore implements Store against a single Neo4j endpoint.
//
// Node merges key on the shared Resource label so that stub vertices
// created by link batches and fully-populated vertices created by node
// batches resolve to the same graph vertex regardless of arrival order.
// The kind label is additive (SET n:Title etc.); a uid's kind is never
// reassigned on merge.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	embedDim int
	logger   *slog.Logger
}

var _ Store = (*Neo4jStore)(nil)

const (
	nodeMergeCypher = `
UNWIND $rows AS row
MERGE (n:Resource {uid: row.uid})
SET n:%s, n += row
`

	linkMergeCypher = `
UNWIND $rows AS row
MERGE (a:Resource {uid: row.source})
MERGE (b:Resource {uid: row.target})
MERGE (a)-[:LINK]->(b)
`
)

// NewNeo4jStore connects to a Neo4j endpoint and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	if cfg.URI == "" {
		return nil, ErrURIRequired
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.EmbedDim <= 0 {
		cfg.EmbedDim = DefaultEmbedDim
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.ConnectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		embedDim: cfg.EmbedDim,
		logger:   slog.Default().With("component", "neo4j-store"),
	}, nil
}

// MergeNodes upserts one batch of vertices under the given kind label.
func (s *Neo4jStore) MergeNodes(ctx context.Context, kind core.NodeKind, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", core.ErrInvalidNodeKind, kind)
	}

	// kind is a closed enum, so the label interpolation is safe.
	cypher := fmt.Sprintf(nodeMergeCypher, kind.String())

	start := time.Now()
	if err := s.write(ctx, cypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("neo4j: merge %s nodes: %w", kind, err)
	}
	s.logger.Debug("merged node batch", "kind", kind.String(), "rows", len(rows), "elapsed", time.Since(start))
	return nil
}

// MergeLinks upserts one batch of edges, creating endpoint stubs as needed.
func (s *Neo4jStore) MergeLinks(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	if err := s.write(ctx, linkMergeCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("neo4j: merge links: %w", err)
	}
	s.logger.Debug("merged link batch", "rows", len(rows), "elapsed", time.Since(start))
	return nil
}

// EnsureSchema creates uid uniqueness constraints for every node label plus
// the shared Resource label, and a best-effort vector index on paragraph
// embeddings. Individual failures are logged and skipped: the server may
// lack permissions, or the edition may not support vector indexes.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	for _, label := range []string{"Title", "Heading", "Paragraph", "Resource"} {
		cypher := fmt.Sprintf(
			"CREATE CONSTRAINT %s_uid IF NOT EXISTS FOR (n:%s) REQUIRE n.uid IS UNIQUE",
			strings.ToLower(label), label,
		)
		if res, err := session.Run(ctx, cypher, nil); err != nil {
			s.logger.Warn("could not ensure uid constraint", "label", label, "err", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	vectorIdx := fmt.Sprintf(
		"CREATE VECTOR INDEX paragraph_embedding IF NOT EXISTS FOR (p:Paragraph) ON (p.embedding) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		s.embedDim,
	)
	if res, err := session.Run(ctx, vectorIdx, nil); err != nil {
		s.logger.Warn("vector index creation skipped", "err", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	return nil
}

// Close shuts down the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

// write runs one parameterized statement in a managed write transaction.
func (s *Neo4jStore) write(ctx context.Context, cypher string, params map[string]any) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
