// Package merge implements the subgraph-attachment and whole-graph-union
// operations the driver loop uses once ParaMatch has decided that a server
// vertex and a client vertex denote the same real-world entity.
//
// Every traversal here is iterative (an explicit work-list), not recursive:
// matched subgraphs can be deep, and a stack-based walk keeps memory use
// bounded and predictable regardless of input depth.
package merge

import (
	"fmt"

	"github.com/glyphmatch/enrich/internal/graph"
)

// Subgraph attaches the subgraph of x rooted at xRootURI into y, grafting it
// onto yRootURI. It mirrors the reference implementation's merge_subgraph:
// an edge from the source graph is satisfied in y either by reusing a
// child already reachable from the current y-node under the same label, or
// by cloning the source vertex into y when no such child exists.
//
// The returned map records, for every x vertex visited, which y vertex it
// was mapped to.
func Subgraph(x *graph.Graph, xRootURI string, y *graph.Graph, yRootURI string) (map[string]string, error) {
	if _, err := x.Vertex(xRootURI); err != nil {
		return nil, fmt.Errorf("merge: subgraph: %w", err)
	}
	if _, err := y.Vertex(yRootURI); err != nil {
		return nil, fmt.Errorf("merge: subgraph: %w", err)
	}

	mapping := map[string]string{xRootURI: yRootURI}
	visited := map[string]struct{}{xRootURI: {}}

	type frame struct {
		xURI    string
		edgeIdx int
	}
	stack := []frame{{xURI: xRootURI}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := x.GetEdges(top.xURI)
		if top.edgeIdx >= len(edges) {
			stack = stack[:len(stack)-1]
			continue
		}
		edge := edges[top.edgeIdx]
		top.edgeIdx++

		childXURI := edge.V2
		label := edge.Label
		parentYURI := mapping[top.xURI]

		targetYURI, mapped := mapping[childXURI]
		if !mapped {
			childX, err := x.Vertex(childXURI)
			if err != nil {
				return nil, fmt.Errorf("merge: subgraph: %w", err)
			}
			targetYURI = findChildByLabel(y, parentYURI, childX.Label, label)
			if targetYURI == "" {
				cloned := &graph.Vertex{
					Entity: graph.Entity{URI: childXURI, Label: childX.Label},
					Status: graph.StatusMerged,
				}
				if err := y.AddVertex(cloned); err != nil {
					return nil, fmt.Errorf("merge: subgraph: clone %q: %w", childXURI, err)
				}
				targetYURI = childXURI
			}
			mapping[childXURI] = targetYURI
		}

		if !hasEdgeTo(y, parentYURI, targetYURI, label) {
			if _, err := y.AddEdge(parentYURI, targetYURI, label); err != nil {
				return nil, fmt.Errorf("merge: subgraph: attach edge: %w", err)
			}
		}

		if _, seen := visited[childXURI]; !seen {
			visited[childXURI] = struct{}{}
			stack = append(stack, frame{xURI: childXURI})
		}
	}

	return mapping, nil
}

// findChildByLabel returns the URI of the first vertex reachable from
// parentURI in g by an edge with the given label whose target vertex
// carries childLabel, or "" if none exists.
func findChildByLabel(g *graph.Graph, parentURI, childLabel, edgeLabel string) string {
	for _, e := range g.GetEdges(parentURI) {
		if e.Label != edgeLabel {
			continue
		}
		v, err := g.Vertex(e.V2)
		if err != nil {
			continue
		}
		if v.Label == childLabel {
			return v.URI
		}
	}
	return ""
}

// hasEdgeTo reports whether g already has an edge parentURI->childURI
// labeled label.
func hasEdgeTo(g *graph.Graph, parentURI, childURI, label string) bool {
	for _, e := range g.GetEdges(parentURI) {
		if e.V2 == childURI && e.Label == label {
			return true
		}
	}
	return false
}

// AppendAtURI grafts the whole of subgraph onto target's vertex at uri,
// treating the first subgraph vertex with no incoming edge as the subgraph's
// root (an arbitrary vertex when every vertex has one), and reusing any vertex in target that already carries the same label as a
// subgraph vertex (by label, not URI) before cloning a new one in. This
// mirrors append_subgraph_at_uri, which favors label-based reuse across the
// entire destination graph rather than only the vertices local to the
// attachment point.
func AppendAtURI(target *graph.Graph, subgraph *graph.Graph, uri string) error {
	rootAny, err := target.Lookup(uri)
	if err != nil {
		return fmt.Errorf("merge: append at uri: %w", err)
	}
	root, ok := rootAny.(*graph.Vertex)
	if !ok || root == nil {
		return fmt.Errorf("merge: append at uri: %q is not a vertex", uri)
	}

	subVertices := subgraph.Vertices()
	if len(subVertices) == 0 {
		return nil
	}
	hasIncoming := make(map[string]bool)
	for _, e := range subgraph.Edges() {
		hasIncoming[e.V2] = true
	}
	subRoot := subVertices[0]
	for _, v := range subVertices {
		if !hasIncoming[v.URI] {
			subRoot = v
			break
		}
	}

	labelToURI := make(map[string]string)
	for _, v := range target.Vertices() {
		if _, ok := labelToURI[v.Label]; !ok {
			labelToURI[v.Label] = v.URI
		}
	}

	visited := make(map[string]struct{})

	type frame struct {
		subURI    string
		targetURI string
		edgeIdx   int
	}
	stack := []frame{{subURI: subRoot.URI, targetURI: root.URI}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.edgeIdx == 0 {
			if _, seen := visited[top.subURI]; seen {
				stack = stack[:len(stack)-1]
				continue
			}
			visited[top.subURI] = struct{}{}
		}

		edges := subgraph.GetEdges(top.subURI)
		if top.edgeIdx >= len(edges) {
			stack = stack[:len(stack)-1]
			continue
		}
		edge := edges[top.edgeIdx]
		top.edgeIdx++

		childSub, err := subgraph.Vertex(edge.V2)
		if err != nil {
			return fmt.Errorf("merge: append at uri: %w", err)
		}

		childTargetURI, reused := labelToURI[childSub.Label]
		if !reused {
			cloned := &graph.Vertex{
				Entity: graph.Entity{URI: childSub.URI, Label: childSub.Label},
				Status: graph.StatusMerged,
			}
			if err := target.AddVertex(cloned); err != nil {
				return fmt.Errorf("merge: append at uri: clone %q: %w", childSub.URI, err)
			}
			childTargetURI = childSub.URI
			labelToURI[childSub.Label] = childTargetURI
		}

		if !hasEdgeTo(target, top.targetURI, childTargetURI, edge.Label) {
			if _, err := target.AddEdge(top.targetURI, childTargetURI, edge.Label); err != nil {
				return fmt.Errorf("merge: append at uri: attach edge: %w", err)
			}
		}

		if _, seen := visited[edge.V2]; !seen {
			stack = append(stack, frame{subURI: edge.V2, targetURI: childTargetURI})
		}
	}

	return nil
}
