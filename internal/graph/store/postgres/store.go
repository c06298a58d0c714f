// Package postgres provides an optional PostgreSQL/pgvector-backed durable
// store for the enrichment protocol: a vertex-embedding cache (so a vertex's
// label is not re-sent to the embedding provider on every run that touches
// it) and a merged-graph snapshot history (so a completed enrichment's
// output can be retrieved by run ID without re-reading its JSON file).
//
// Neither layer is on the protocol's critical path — [internal/driver] and
// [internal/plaintext] only ever need an [internal/embedenc.Encoder] and a
// [internal/graph.Graph] in memory — so a deployment that never configures
// a DSN never touches this package at all.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Store is the PostgreSQL-backed durable store. It holds a single
// [pgxpool.Pool] and exposes two independent concerns: [Store.UpsertVertexEmbedding]/
// [Store.NearestVertices] (the vector cache) and [Store.SaveSnapshot]/
// [Store.LoadSnapshot] (graph history).
//
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at dsn,
// registers pgvector types on every connection, and runs [Migrate] to
// ensure the required tables and extensions exist.
//
// embeddingDimensions must match the output dimension of the configured
// [internal/embedenc.Encoder] (e.g. 1536 for OpenAI text-embedding-3-small).
// Changing it after the first migration requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
