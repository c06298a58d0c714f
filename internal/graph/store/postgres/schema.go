package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlVertexEmbeddings = `
CREATE TABLE IF NOT EXISTS vertex_embeddings (
    uri         TEXT         PRIMARY KEY,
    graph_prefix TEXT        NOT NULL,
    label       TEXT         NOT NULL,
    embedding   vector(%d),
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vertex_embeddings_prefix
    ON vertex_embeddings (graph_prefix);

CREATE INDEX IF NOT EXISTS idx_vertex_embeddings_hnsw
    ON vertex_embeddings USING hnsw (embedding vector_cosine_ops);
`

const ddlGraphSnapshots = `
CREATE TABLE IF NOT EXISTS graph_snapshots (
    run_id                TEXT         PRIMARY KEY,
    graph_json            JSONB        NOT NULL,
    enriched_vertex_count INT          NOT NULL DEFAULT 0,
    created_at            TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_graph_snapshots_created_at
    ON graph_snapshots (created_at);
`

// Migrate creates or ensures all required tables, indexes and extensions
// exist. It is idempotent (CREATE TABLE/INDEX IF NOT EXISTS) and safe to
// call on every process start.
//
// embeddingDimensions must match the vector model configured for the
// deployment's [internal/embedenc.Encoder]; changing it after the first
// migration requires a manual schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(ddlVertexEmbeddings, embeddingDimensions),
		ddlGraphSnapshots,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
