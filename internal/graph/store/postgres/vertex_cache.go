package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// VertexMatch is one result of [Store.NearestVertices]: a cached vertex
// embedding ranked by ascending cosine distance to the query vector.
type VertexMatch struct {
	URI         string
	GraphPrefix string
	Label       string
	Embedding   []float64
	Distance    float64
}

// UpsertVertexEmbedding caches uri's embedding so a later run against the
// same dataset can skip re-encoding an unchanged label. If uri is already
// cached its row is completely replaced.
func (s *Store) UpsertVertexEmbedding(ctx context.Context, uri, graphPrefix, label string, embedding []float64) error {
	const q = `
		INSERT INTO vertex_embeddings (uri, graph_prefix, label, embedding, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (uri) DO UPDATE SET
		    graph_prefix = EXCLUDED.graph_prefix,
		    label        = EXCLUDED.label,
		    embedding    = EXCLUDED.embedding,
		    updated_at   = now()`

	_, err := s.pool.Exec(ctx, q, uri, graphPrefix, label, pgvector.NewVector(toFloat32(embedding)))
	if err != nil {
		return fmt.Errorf("vertex cache: upsert %q: %w", uri, err)
	}
	return nil
}

// VertexEmbedding returns the cached embedding for uri, if its label still
// matches currentLabel — a stale cache entry (the dataset's label for this
// URI changed since it was cached) is treated as a miss rather than served,
// since a vertex embedding that no longer reflects its label would silently
// corrupt a similarity comparison.
func (s *Store) VertexEmbedding(ctx context.Context, uri, currentLabel string) ([]float64, bool, error) {
	const q = `SELECT label, embedding FROM vertex_embeddings WHERE uri = $1`

	rows, err := s.pool.Query(ctx, q, uri)
	if err != nil {
		return nil, false, fmt.Errorf("vertex cache: lookup %q: %w", uri, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, nil
	}
	var (
		label string
		vec   pgvector.Vector
	)
	if err := rows.Scan(&label, &vec); err != nil {
		return nil, false, fmt.Errorf("vertex cache: scan %q: %w", uri, err)
	}
	if label != currentLabel {
		return nil, false, nil
	}
	return toFloat64(vec.Slice()), true, nil
}

// NearestVertices finds the topK cached vertex embeddings whose vectors are
// closest (cosine distance) to embedding, optionally restricted to one
// graph's prefix. Results are ordered by ascending distance.
func (s *Store) NearestVertices(ctx context.Context, embedding []float64, topK int, graphPrefix string) ([]VertexMatch, error) {
	queryVec := pgvector.NewVector(toFloat32(embedding))

	var (
		rows pgx.Rows
		err  error
	)
	if graphPrefix == "" {
		const q = `
			SELECT uri, graph_prefix, label, embedding, embedding <=> $1 AS distance
			FROM   vertex_embeddings
			ORDER  BY distance
			LIMIT  $2`
		rows, err = s.pool.Query(ctx, q, queryVec, topK)
	} else {
		const q = `
			SELECT uri, graph_prefix, label, embedding, embedding <=> $1 AS distance
			FROM   vertex_embeddings
			WHERE  graph_prefix = $2
			ORDER  BY distance
			LIMIT  $3`
		rows, err = s.pool.Query(ctx, q, queryVec, graphPrefix, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("vertex cache: nearest: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (VertexMatch, error) {
		var (
			m   VertexMatch
			vec pgvector.Vector
		)
		if err := row.Scan(&m.URI, &m.GraphPrefix, &m.Label, &vec, &m.Distance); err != nil {
			return VertexMatch{}, err
		}
		m.Embedding = toFloat64(vec.Slice())
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("vertex cache: scan nearest rows: %w", err)
	}
	if matches == nil {
		matches = []VertexMatch{}
	}
	return matches, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
