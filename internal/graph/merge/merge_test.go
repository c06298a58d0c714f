package merge

import (
	"testing"

	"github.com/glyphmatch/enrich/internal/graph"
)

func mustVertex(t *testing.T, g *graph.Graph, uri, label string) {
	t.Helper()
	if err := g.AddVertex(&graph.Vertex{Entity: graph.Entity{URI: uri, Label: label}}); err != nil {
		t.Fatalf("AddVertex(%s): %v", uri, err)
	}
}

func TestSubgraphClonesMissingChildren(t *testing.T) {
	x := graph.New()
	mustVertex(t, x, "x1", "Person")
	mustVertex(t, x, "x2", "City")
	if _, err := x.AddEdge("x1", "x2", "lives_in"); err != nil {
		t.Fatal(err)
	}

	y := graph.New()
	mustVertex(t, y, "y1", "Person")

	mapping, err := Subgraph(x, "x1", y, "y1")
	if err != nil {
		t.Fatalf("Subgraph: %v", err)
	}
	if mapping["x1"] != "y1" {
		t.Errorf("mapping[x1] = %q, want y1", mapping["x1"])
	}
	yChildURI, ok := mapping["x2"]
	if !ok {
		t.Fatal("x2 not mapped")
	}
	if edges := y.GetEdges("y1"); len(edges) != 1 || edges[0].V2 != yChildURI {
		t.Errorf("y edges from y1 = %+v, want one edge to %s", edges, yChildURI)
	}
}

func TestSubgraphReusesExistingLabeledChild(t *testing.T) {
	x := graph.New()
	mustVertex(t, x, "x1", "Person")
	mustVertex(t, x, "x2", "City")
	if _, err := x.AddEdge("x1", "x2", "lives_in"); err != nil {
		t.Fatal(err)
	}

	y := graph.New()
	mustVertex(t, y, "y1", "Person")
	mustVertex(t, y, "y2", "City")
	if _, err := y.AddEdge("y1", "y2", "lives_in"); err != nil {
		t.Fatal(err)
	}

	mapping, err := Subgraph(x, "x1", y, "y1")
	if err != nil {
		t.Fatalf("Subgraph: %v", err)
	}
	if mapping["x2"] != "y2" {
		t.Errorf("mapping[x2] = %q, want reuse of y2", mapping["x2"])
	}
	if got := len(y.Vertices()); got != 2 {
		t.Errorf("y vertex count = %d, want 2 (no duplicate clone)", got)
	}
}

func TestGraphsUnionsByLabel(t *testing.T) {
	g1 := graph.New()
	mustVertex(t, g1, "g1/root", "Org")
	mustVertex(t, g1, "g1/a", "Team")
	if _, err := g1.AddEdge("g1/root", "g1/a", "has"); err != nil {
		t.Fatal(err)
	}

	g2 := graph.New()
	mustVertex(t, g2, "g2/root", "Org")
	mustVertex(t, g2, "g2/b", "Project")
	if _, err := g2.AddEdge("g2/root", "g2/b", "has"); err != nil {
		t.Fatal(err)
	}

	merged, err := Graphs(g1, g2)
	if err != nil {
		t.Fatalf("Graphs: %v", err)
	}
	if got := len(merged.Vertices()); got != 3 {
		t.Errorf("merged vertex count = %d, want 3 (Org unified)", got)
	}
	if got := len(merged.Edges()); got != 2 {
		t.Errorf("merged edge count = %d, want 2", got)
	}
}

func TestRemoveDuplicateVerticesRedirectsIncomingOnly(t *testing.T) {
	g := graph.New()
	mustVertex(t, g, "root", "Org")
	mustVertex(t, g, "dup1", "Team")
	mustVertex(t, g, "dup2", "Team")
	mustVertex(t, g, "child", "Member")
	if _, err := g.AddEdge("root", "dup1", "has"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge("root", "dup2", "has"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge("dup2", "child", "contains"); err != nil {
		t.Fatal(err)
	}

	if err := RemoveDuplicateVerticesByLabelAndEdgeLabel(g); err != nil {
		t.Fatalf("RemoveDuplicateVerticesByLabelAndEdgeLabel: %v", err)
	}

	teamCount := 0
	for _, v := range g.Vertices() {
		if v.Label == "Team" {
			teamCount++
		}
	}
	if teamCount != 1 {
		t.Errorf("Team vertex count = %d, want 1", teamCount)
	}
	if _, err := g.Vertex("child"); err != nil {
		t.Errorf("child vertex should survive dup2's removal (only dup2's own edges are cascaded): %v", err)
	}
	if edges := g.GetEdges("root"); len(edges) != 1 {
		t.Errorf("root should retain exactly one outgoing edge after dedup, got %d", len(edges))
	}
}
