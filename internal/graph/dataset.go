package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// datasetDocument is the input dataset's on-disk shape: a flat node/edge list
// with Cytoscape-style "labels" arrays, matching the export format produced
// by the upstream graph database this protocol was built against.
type datasetDocument struct {
	Nodes []struct {
		ID     string   `json:"id"`
		Labels []string `json:"labels"`
	} `json:"nodes"`
	Edges []struct {
		Source string   `json:"source"`
		Target string   `json:"target"`
		Labels []string `json:"labels"`
	} `json:"edges"`
}

// LoadDataset reads a dataset JSON file from path and builds a Graph whose
// vertex URIs are prefixed with "<prefix>/" — the mechanism that keeps the
// server's and client's graphs in disjoint URI namespaces even when both are
// loaded from datasets that reuse the same raw node IDs.
func LoadDataset(path, prefix string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: load dataset %q: %w", path, err)
	}

	var doc datasetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph: parse dataset %q: %w", path, err)
	}

	g := New()
	for _, n := range doc.Nodes {
		label := ""
		if len(n.Labels) > 0 {
			label = n.Labels[0]
		}
		id := n.ID
		if id == "" {
			// The reference export format always sets "id", but hand-edited
			// or partial datasets sometimes drop it for synthetic nodes;
			// without a stable ID every such node would collide on the same
			// "<prefix>/" URI, so synthesize one instead.
			id = uuid.NewString()
		}
		uri := prefix + "/" + id
		if err := g.AddVertex(&Vertex{Entity: Entity{URI: uri, Label: label}}); err != nil {
			return nil, fmt.Errorf("graph: load dataset %q: %w", path, err)
		}
	}
	for _, e := range doc.Edges {
		label := ""
		if len(e.Labels) > 0 {
			label = e.Labels[0]
		}
		srcURI := prefix + "/" + e.Source
		tgtURI := prefix + "/" + e.Target
		if _, err := g.AddEdge(srcURI, tgtURI, label); err != nil {
			return nil, fmt.Errorf("graph: load dataset %q: %w", path, err)
		}
	}
	return g, nil
}
