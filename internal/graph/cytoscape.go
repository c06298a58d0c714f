package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// CytoscapeNode is a single node entry in Cytoscape.js's plain JSON format.
type CytoscapeNode struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels"`
}

// CytoscapeEdge is a single edge entry in Cytoscape.js's plain JSON format.
type CytoscapeEdge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Labels []string `json:"labels"`
}

// CytoscapeDocument is the top-level shape written by [Graph.SaveCytoscapeJSON]
// and accepted by [LoadCytoscapeJSON].
type CytoscapeDocument struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// SerializeToCytoscape converts g into the flattened Cytoscape.js document
// shape used by the merged-graph output file. Edge IDs are assigned
// sequentially ("e1", "e2", ...) in the order [Graph.Edges] returns them,
// which is unspecified — callers that need deterministic output files should
// sort before comparing across runs.
func (g *Graph) SerializeToCytoscape() CytoscapeDocument {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := CytoscapeDocument{
		Nodes: make([]CytoscapeNode, 0, len(g.vertices)),
		Edges: make([]CytoscapeEdge, 0, len(g.edges)),
	}
	for _, v := range g.vertices {
		doc.Nodes = append(doc.Nodes, CytoscapeNode{ID: v.URI, Labels: []string{v.Label}})
	}
	id := 1
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, CytoscapeEdge{
			ID:     fmt.Sprintf("e%d", id),
			Source: e.V1,
			Target: e.V2,
			Labels: []string{e.Label},
		})
		id++
	}
	return doc
}

// SaveCytoscapeJSON serializes g to Cytoscape JSON and writes it to path,
// truncating any existing file — the protocol's sole persisted output.
func (g *Graph) SaveCytoscapeJSON(path string) error {
	doc := g.SerializeToCytoscape()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal cytoscape json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("graph: write cytoscape json %q: %w", path, err)
	}
	return nil
}

// LoadCytoscapeJSON reads a Cytoscape JSON document from path and builds a
// Graph from it. Each node's first Labels entry becomes the vertex label;
// each edge's first Labels entry becomes the edge label.
func LoadCytoscapeJSON(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read cytoscape json %q: %w", path, err)
	}
	var doc CytoscapeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph: parse cytoscape json %q: %w", path, err)
	}
	return FromCytoscapeDocument(doc)
}

// FromCytoscapeDocument builds a Graph directly from an in-memory
// CytoscapeDocument, without going through the filesystem. Used both by
// [LoadCytoscapeJSON] and by internal/protocol to reconstruct a subgraph
// received over the wire.
func FromCytoscapeDocument(doc CytoscapeDocument) (*Graph, error) {
	g := New()
	for _, n := range doc.Nodes {
		label := ""
		if len(n.Labels) > 0 {
			label = n.Labels[0]
		}
		if err := g.AddVertex(&Vertex{Entity: Entity{URI: n.ID, Label: label}}); err != nil {
			return nil, fmt.Errorf("graph: load cytoscape document: %w", err)
		}
	}
	for _, e := range doc.Edges {
		label := ""
		if len(e.Labels) > 0 {
			label = e.Labels[0]
		}
		if _, err := g.AddEdge(e.Source, e.Target, label); err != nil {
			return nil, fmt.Errorf("graph: load cytoscape document: %w", err)
		}
	}
	return g, nil
}
