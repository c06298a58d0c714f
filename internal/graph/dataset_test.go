package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeDataset(t *testing.T, doc datasetDocument) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal dataset: %v", err)
	}
	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoadDatasetPrefixesURIs(t *testing.T) {
	doc := datasetDocument{}
	doc.Nodes = append(doc.Nodes, struct {
		ID     string   `json:"id"`
		Labels []string `json:"labels"`
	}{ID: "alice", Labels: []string{"Alice Smith"}})
	doc.Edges = append(doc.Edges, struct {
		Source string   `json:"source"`
		Target string   `json:"target"`
		Labels []string `json:"labels"`
	}{Source: "alice", Target: "alice", Labels: []string{"self"}})

	path := writeDataset(t, doc)
	g, err := LoadDataset(path, "g1")
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	v, err := g.Vertex("g1/alice")
	if err != nil {
		t.Fatalf("Vertex: %v", err)
	}
	if v.Label != "Alice Smith" {
		t.Errorf("Label: want %q, got %q", "Alice Smith", v.Label)
	}
}

// TestLoadDatasetSynthesizesMissingIDs checks that nodes with an empty "id"
// field get distinct synthesized URIs instead of colliding on "<prefix>/".
func TestLoadDatasetSynthesizesMissingIDs(t *testing.T) {
	doc := datasetDocument{}
	doc.Nodes = append(doc.Nodes,
		struct {
			ID     string   `json:"id"`
			Labels []string `json:"labels"`
		}{ID: "", Labels: []string{"Unnamed One"}},
		struct {
			ID     string   `json:"id"`
			Labels []string `json:"labels"`
		}{ID: "", Labels: []string{"Unnamed Two"}},
	)

	path := writeDataset(t, doc)
	g, err := LoadDataset(path, "g1")
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(g.Vertices()) != 2 {
		t.Fatalf("Vertices: want 2 distinct synthesized URIs, got %d", len(g.Vertices()))
	}
}
