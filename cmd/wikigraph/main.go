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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	wikigraph "github.com/poiesic/wikigraph"
	"github.com/poiesic/wikigraph/ai"
	"github.com/poiesic/wikigraph/graph"
	"github.com/poiesic/wikigraph/ingest"
	"github.com/poiesic/wikigraph/source"
	"github.com/poiesic/wikigraph/wiki"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "wikigraph",
		Usage: "Ingest wiki-markup corpora into a property graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Parse documents and upsert nodes and links into the graph",
				Action: ingestCommand,
				Flags: append(neo4jFlags(),
					&cli.StringFlag{
						Name:    "articles-dir",
						Aliases: []string{"a"},
						Usage:   "Directory of .txt article files, one document per file",
					},
					&cli.StringFlag{
						Name:  "dump",
						Usage: "MediaWiki XML dump file (.xml or .xml.bz2) to ingest directly",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of rows per graph write",
						Value: graph.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "write-concurrency",
						Usage: "Maximum in-flight graph writes",
						Value: graph.DefaultConcurrency,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Documents processed concurrently (0 = half the CPUs)",
					},
					&cli.BoolFlag{
						Name:  "embeddings",
						Usage: "Enrich paragraph nodes with vector embeddings",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "embed-batch-size",
						Usage: "Number of texts per embedding call",
						Value: ingest.DefaultEmbedBatchSize,
					},
					&cli.IntFlag{
						Name:  "embed-dim",
						Usage: "Embedding dimension declared on the vector index",
						Value: graph.DefaultEmbedDim,
					},
					&cli.IntFlag{
						Name:  "max-paragraph-len",
						Usage: "Maximum paragraph chunk length in runes",
						Value: wiki.DefaultMaxParagraphLen,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Overlap between split paragraph chunks in runes",
						Value: wiki.DefaultOverlap,
					},
					&cli.StringFlag{
						Name:  "journal",
						Usage: "Path to the ingestion journal directory",
					},
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Skip documents the journal records as done",
					},
				),
			},
			{
				Name:   "schema",
				Usage:  "Create uid constraints and the embedding vector index",
				Action: schemaCommand,
				Flags: append(neo4jFlags(),
					&cli.IntFlag{
						Name:  "embed-dim",
						Usage: "Embedding dimension declared on the vector index",
						Value: graph.DefaultEmbedDim,
					},
				),
			},
			{
				Name:   "extract",
				Usage:  "Extract articles from a MediaWiki XML dump into a directory",
				Action: extractCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dump",
						Usage:    "MediaWiki XML dump file (.xml or .xml.bz2)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory for .txt article files",
						Value:   "articles",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Stop after N articles (0 = no limit)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// neo4jFlags returns the connection flags shared by graph commands.
func neo4jFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "neo4j-uri",
			Usage: "Neo4j bolt endpoint",
			Value: "bolt://localhost:7687",
		},
		&cli.StringFlag{
			Name:  "neo4j-user",
			Usage: "Neo4j user",
			Value: "neo4j",
		},
		&cli.StringFlag{
			Name:    "neo4j-password",
			Usage:   "Neo4j password",
			EnvVars: []string{"NEO4J_PASSWORD"},
		},
		&cli.StringFlag{
			Name:  "neo4j-database",
			Usage: "Neo4j database name (empty = server default)",
		},
	}
}

func neo4jConfig(c *cli.Context) graph.Neo4jConfig {
	return graph.Neo4jConfig{
		URI:      c.String("neo4j-uri"),
		User:     c.String("neo4j-user"),
		Password: c.String("neo4j-password"),
		Database: c.String("neo4j-database"),
		EmbedDim: c.Int("embed-dim"),
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	// Exactly one input source
	articlesDir := c.String("articles-dir")
	dumpPath := c.String("dump")
	if (articlesDir == "") == (dumpPath == "") {
		return fmt.Errorf("exactly one of --articles-dir or --dump is required")
	}

	var src ingest.Source
	if articlesDir != "" {
		src = source.NewDirSource(articlesDir)
	} else {
		src = source.NewDumpSource(dumpPath)
	}

	graphOpts := []wikigraph.GraphOption{
		wikigraph.WithWriterOptions(
			graph.WithBatchSize(c.Int("batch-size")),
			graph.WithConcurrency(c.Int("write-concurrency")),
		),
	}
	if c.Bool("embeddings") {
		aiConfig := ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid embedding configuration: %w", err)
		}
		graphOpts = append(graphOpts, wikigraph.WithAIConfig(aiConfig))
	}
	if journalPath := c.String("journal"); journalPath != "" {
		graphOpts = append(graphOpts, wikigraph.WithJournal(journalPath, c.Bool("resume")))
	} else if c.Bool("resume") {
		return fmt.Errorf("--resume requires --journal")
	}

	g, err := wikigraph.NewGraph(ctx, neo4jConfig(c), graphOpts...)
	if err != nil {
		return fmt.Errorf("failed to connect to graph: %w", err)
	}

	if err := g.EnsureSchema(ctx); err != nil {
		g.Close()
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	pipelineOpts := []ingest.Option{
		ingest.WithMaxParagraphLen(c.Int("max-paragraph-len")),
		ingest.WithOverlap(c.Int("overlap")),
		ingest.WithEmbedBatchSize(c.Int("embed-batch-size")),
	}
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithWorkers(workers))
	}

	pipeline, err := g.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		g.Close()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	runErr := pipeline.Run(ctx, src)
	pipeline.Release()

	// Close drains buffered writes; its error includes failed batches.
	if closeErr := g.Close(); closeErr != nil {
		if runErr != nil {
			return fmt.Errorf("ingestion failed: %w (close: %v)", runErr, closeErr)
		}
		return fmt.Errorf("failed to drain graph writes: %w", closeErr)
	}
	if runErr != nil {
		return fmt.Errorf("ingestion failed: %w", runErr)
	}

	slog.Info("ingestion complete")
	return nil
}

func schemaCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := graph.NewNeo4jStore(ctx, neo4jConfig(c))
	if err != nil {
		return fmt.Errorf("failed to connect to graph: %w", err)
	}
	defer store.Close(ctx)

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func extractCommand(c *cli.Context) error {
	ctx := context.Background()

	src := source.NewDumpSource(c.String("dump"))
	count, err := source.ExtractArticles(ctx, src, c.String("out"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("extraction failed after %d articles: %w", count, err)
	}

	fmt.Fprintf(os.Stderr, "Extracted %d articles to %s\n", count, c.String("out"))
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
