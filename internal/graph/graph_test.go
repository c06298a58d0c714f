package graph

import (
	"testing"
)

func buildChain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, uri := range []string{"a", "b", "c"} {
		if err := g.AddVertex(&Vertex{Entity: Entity{URI: uri, Label: "L_" + uri}}); err != nil {
			t.Fatalf("AddVertex(%s): %v", uri, err)
		}
	}
	if _, err := g.AddEdge("a", "b", "knows"); err != nil {
		t.Fatalf("AddEdge a->b: %v", err)
	}
	if _, err := g.AddEdge("b", "c", "knows"); err != nil {
		t.Fatalf("AddEdge b->c: %v", err)
	}
	return g
}

func TestAddEdgeIncrementsOutwardDegree(t *testing.T) {
	g := buildChain(t)
	va, err := g.Vertex("a")
	if err != nil {
		t.Fatal(err)
	}
	if va.OutwardDegree != 1 {
		t.Errorf("a.OutwardDegree = %d, want 1", va.OutwardDegree)
	}
	vc, err := g.Vertex("c")
	if err != nil {
		t.Fatal(err)
	}
	if vc.OutwardDegree != 0 {
		t.Errorf("c.OutwardDegree = %d, want 0", vc.OutwardDegree)
	}
}

func TestLookupDistinguishesEdgesFromVertices(t *testing.T) {
	g := buildChain(t)

	got, err := g.Lookup("a")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*Vertex); !ok {
		t.Fatalf("Lookup(a) = %T, want *Vertex", got)
	}

	edgeURI := EdgeURI("a", "knows", "b")
	got, err = g.Lookup(edgeURI)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*Edge); !ok {
		t.Fatalf("Lookup(%s) = %T, want *Edge", edgeURI, got)
	}
}

func TestRemoveVertexCascadesToEdges(t *testing.T) {
	g := buildChain(t)
	if err := g.RemoveVertex("b"); err != nil {
		t.Fatal(err)
	}
	if edges := g.GetEdges("a"); len(edges) != 0 {
		t.Errorf("GetEdges(a) after removing b = %v, want empty", edges)
	}
	if edges := g.Edges(); len(edges) != 0 {
		t.Errorf("Edges() after removing b = %v, want empty", edges)
	}
}

func TestExtractLineageSetFollowsOutwardEdgesOnly(t *testing.T) {
	g := buildChain(t)
	lineage, err := g.ExtractLineageSet("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(lineage.Vertices()) != 3 {
		t.Errorf("lineage vertex count = %d, want 3", len(lineage.Vertices()))
	}
	if len(lineage.Edges()) != 2 {
		t.Errorf("lineage edge count = %d, want 2", len(lineage.Edges()))
	}

	leaf, err := g.ExtractLineageSet("c")
	if err != nil {
		t.Fatal(err)
	}
	if len(leaf.Vertices()) != 1 {
		t.Errorf("leaf lineage vertex count = %d, want 1", len(leaf.Vertices()))
	}
}

func TestExtractLineageSetTerminatesOnCycle(t *testing.T) {
	g := New()
	for _, uri := range []string{"x", "y"} {
		if err := g.AddVertex(&Vertex{Entity: Entity{URI: uri, Label: uri}}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.AddEdge("x", "y", "loop"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge("y", "x", "loop"); err != nil {
		t.Fatal(err)
	}

	done := make(chan *Graph, 1)
	go func() {
		lineage, err := g.ExtractLineageSet("x")
		if err != nil {
			t.Error(err)
			done <- nil
			return
		}
		done <- lineage
	}()

	select {
	case lineage := <-done:
		if lineage == nil {
			return
		}
		if len(lineage.Vertices()) != 2 {
			t.Errorf("cyclic lineage vertex count = %d, want 2", len(lineage.Vertices()))
		}
	}
}

func TestNewlyAddedVertexCount(t *testing.T) {
	g := buildChain(t)
	before := g.VertexURISet()

	if err := g.AddVertex(&Vertex{Entity: Entity{URI: "d", Label: "L_d"}}); err != nil {
		t.Fatal(err)
	}

	if got := g.NewlyAddedVertexCount(before); got != 1 {
		t.Errorf("NewlyAddedVertexCount = %d, want 1", got)
	}
}

func TestCytoscapeRoundTrip(t *testing.T) {
	g := buildChain(t)
	doc := g.SerializeToCytoscape()
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Fatalf("doc = %+v, want 3 nodes/2 edges", doc)
	}
}
