package merge

import (
	"fmt"

	"github.com/glyphmatch/enrich/internal/graph"
)

// Graphs unions g1 and g2 into a single new Graph, keyed by vertex label:
// two vertices (from either input) that share a label collapse into one
// vertex in the output. g1's root (its first vertex, in whatever order
// [graph.Graph.Vertices] returns) is always the canonical choice when both
// graphs' roots share a label after unification — this mirrors
// merge_graphs's "always prefer g1's root" rule.
func Graphs(g1, g2 *graph.Graph) (*graph.Graph, error) {
	merged := graph.New()
	labelToURI := make(map[string]string)

	g1Vertices := g1.Vertices()
	g2Vertices := g2.Vertices()

	var chosenRootLabel, otherRootLabel string
	if len(g1Vertices) > 0 {
		chosenRootLabel = g1Vertices[0].Label
	}
	if len(g2Vertices) > 0 {
		otherRootLabel = g2Vertices[0].Label
	}

	addVertex := func(v *graph.Vertex) (string, error) {
		label := v.Label
		if label == otherRootLabel && label != chosenRootLabel && chosenRootLabel != "" {
			label = chosenRootLabel
		}
		if uri, ok := labelToURI[label]; ok {
			return uri, nil
		}

		uri := v.URI
		if label == chosenRootLabel && len(g1Vertices) > 0 {
			uri = g1Vertices[0].URI
		}
		status := graph.StatusOriginal
		if err := merged.AddVertex(&graph.Vertex{Entity: graph.Entity{URI: uri, Label: label}, Status: status}); err != nil {
			return "", fmt.Errorf("merge: graphs: add vertex: %w", err)
		}
		labelToURI[label] = uri
		return uri, nil
	}

	for _, v := range g1Vertices {
		if _, err := addVertex(v); err != nil {
			return nil, err
		}
	}
	for _, v := range g2Vertices {
		if _, err := addVertex(v); err != nil {
			return nil, err
		}
	}

	seenEdges := make(map[string]struct{})
	addEdges := func(src *graph.Graph) error {
		for _, e := range src.Edges() {
			v1, err := src.Vertex(e.V1)
			if err != nil {
				return fmt.Errorf("merge: graphs: %w", err)
			}
			v2, err := src.Vertex(e.V2)
			if err != nil {
				return fmt.Errorf("merge: graphs: %w", err)
			}
			u1, err := addVertex(v1)
			if err != nil {
				return err
			}
			u2, err := addVertex(v2)
			if err != nil {
				return err
			}

			mv1, _ := merged.Vertex(u1)
			mv2, _ := merged.Vertex(u2)
			key := mv1.Label + "\x00" + mv2.Label + "\x00" + e.Label
			if _, dup := seenEdges[key]; dup {
				continue
			}
			if _, err := merged.AddEdge(u1, u2, e.Label); err != nil {
				return fmt.Errorf("merge: graphs: add edge: %w", err)
			}
			seenEdges[key] = struct{}{}
		}
		return nil
	}

	if err := addEdges(g1); err != nil {
		return nil, err
	}
	if err := addEdges(g2); err != nil {
		return nil, err
	}

	return merged, nil
}

// RemoveDuplicateVerticesByLabelAndEdgeLabel collapses vertices that share
// both a label and the label of an incoming edge pointing to them,
// redirecting only the incoming edges that matched to a canonical survivor
// and removing the rest. As in the reference implementation, outgoing edges
// of a removed duplicate are not redirected — they are removed along with
// the vertex.
func RemoveDuplicateVerticesByLabelAndEdgeLabel(g *graph.Graph) error {
	type key struct {
		vertexLabel string
		edgeLabel   string
	}
	groups := make(map[key][]string)

	for _, e := range g.Edges() {
		v2, err := g.Vertex(e.V2)
		if err != nil {
			continue
		}
		k := key{vertexLabel: v2.Label, edgeLabel: e.Label}
		groups[k] = appendUnique(groups[k], v2.URI)
	}

	for k, uris := range groups {
		if len(uris) <= 1 {
			continue
		}
		canonical := uris[0]
		for _, dupURI := range uris[1:] {
			if dupURI == canonical {
				continue
			}
			redirectIncoming(g, dupURI, canonical, k.edgeLabel)
			if err := g.RemoveVertex(dupURI); err != nil {
				return fmt.Errorf("merge: dedup: remove %q: %w", dupURI, err)
			}
		}
	}
	return nil
}

func appendUnique(uris []string, uri string) []string {
	for _, u := range uris {
		if u == uri {
			return uris
		}
	}
	return append(uris, uri)
}

// redirectIncoming rewires every edge labeled edgeLabel that points at
// dupURI so that it points at canonicalURI instead, synthesizing a fresh
// edge URI via [graph.EdgeURI] and removing the old edge.
func redirectIncoming(g *graph.Graph, dupURI, canonicalURI, edgeLabel string) {
	for _, e := range g.Edges() {
		if e.V2 != dupURI || e.Label != edgeLabel {
			continue
		}
		oldURI := e.URI
		v1 := e.V1
		label := e.Label
		_ = g.RemoveEdge(oldURI)
		if !hasEdgeTo(g, v1, canonicalURI, label) {
			_, _ = g.AddEdge(v1, canonicalURI, label)
		}
	}
}
