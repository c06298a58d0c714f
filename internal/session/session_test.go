package session

import "testing"

func TestResetMatchCacheLeavesVertexSimilarityAndPathsIntact(t *testing.T) {
	s := New[int](Config{Sigma: 0.95, Delta: 0.2, K: 3, Epsilon: 1e-3})

	s.SetVertexSimilarity("a", "b", true)
	s.SetLocalPaths("a", []PathCandidate[int]{{URI: "c", Vector: 1, Edge: 2, Length: 2}})
	s.SetMatch("a", "b", true)

	s.ResetMatchCache()

	if _, ok := s.Match("a", "b"); ok {
		t.Error("Match should be cleared after ResetMatchCache")
	}
	if v, ok := s.VertexSimilarity("a", "b"); !ok || !v {
		t.Error("VertexSimilarity should survive ResetMatchCache")
	}
	if _, ok := s.LocalPaths("a"); !ok {
		t.Error("LocalPaths should survive ResetMatchCache")
	}
}

func TestInvalidateDependentsRemovesOnlyDependentEntries(t *testing.T) {
	s := New[int](Config{})

	s.SetMatch("x", "y", true, [2]string{"a", "b"})
	s.SetMatch("p", "q", true)

	removed := s.InvalidateDependents("a", "b")
	if len(removed) != 1 || removed[0] != [2]string{"x", "y"} {
		t.Fatalf("InvalidateDependents() = %v, want [[x y]]", removed)
	}
	if _, ok := s.Match("x", "y"); ok {
		t.Error("dependent entry should have been removed")
	}
	if _, ok := s.Match("p", "q"); !ok {
		t.Error("unrelated entry should not have been removed")
	}
}
