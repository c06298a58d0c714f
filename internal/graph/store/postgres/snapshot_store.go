package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glyphmatch/enrich/internal/graph"
)

// Snapshot is one completed enrichment run's merged graph, as recorded by
// [Store.SaveSnapshot].
type Snapshot struct {
	RunID               string
	EnrichedVertexCount int
	CreatedAt           time.Time
	Graph               *graph.Graph
}

// SaveSnapshot records the merged graph produced by one enrichment run,
// keyed by runID, alongside how many vertices it newly acquired. Saving
// again under the same runID completely replaces the prior snapshot.
//
// This is purely a history/inspection aid: [internal/driver.RunServer] and
// cmd/enrich's plaintext-mode driver (runPlaintext) always write the
// authoritative output to the Cytoscape JSON file named by
// dataset.output_path regardless of whether a Store is configured.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, g *graph.Graph, enrichedVertexCount int) error {
	doc := g.SerializeToCytoscape()
	graphJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot store: marshal graph: %w", err)
	}

	const q = `
		INSERT INTO graph_snapshots (run_id, graph_json, enriched_vertex_count, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (run_id) DO UPDATE SET
		    graph_json            = EXCLUDED.graph_json,
		    enriched_vertex_count = EXCLUDED.enriched_vertex_count,
		    created_at            = now()`

	if _, err := s.pool.Exec(ctx, q, runID, graphJSON, enrichedVertexCount); err != nil {
		return fmt.Errorf("snapshot store: save %q: %w", runID, err)
	}
	return nil
}

// LoadSnapshot retrieves the snapshot saved under runID. It returns
// (nil, nil) when no snapshot exists for that run ID.
func (s *Store) LoadSnapshot(ctx context.Context, runID string) (*Snapshot, error) {
	const q = `
		SELECT graph_json, enriched_vertex_count, created_at
		FROM   graph_snapshots
		WHERE  run_id = $1`

	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: load %q: %w", runID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	var (
		graphJSON []byte
		count     int
		createdAt time.Time
	)
	if err := rows.Scan(&graphJSON, &count, &createdAt); err != nil {
		return nil, fmt.Errorf("snapshot store: scan %q: %w", runID, err)
	}

	var doc graph.CytoscapeDocument
	if err := json.Unmarshal(graphJSON, &doc); err != nil {
		return nil, fmt.Errorf("snapshot store: unmarshal graph: %w", err)
	}
	g, err := graph.FromCytoscapeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: rebuild graph: %w", err)
	}

	return &Snapshot{
		RunID:               runID,
		EnrichedVertexCount: count,
		CreatedAt:           createdAt,
		Graph:               g,
	}, nil
}
