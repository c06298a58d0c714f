package paramatch

import (
	"context"
	"testing"

	"github.com/glyphmatch/enrich/internal/session"
)

// fakeEngine is a deterministic Engine[float64] used to exercise Match
// without any encryption, network, or graph machinery: vectors are plain
// floats and similarity is looked up from fixed tables.
type fakeEngine struct {
	similar      map[[2]string]bool
	localPaths   map[string][]session.PathCandidate[float64]
	peerPaths    map[string][]session.PathCandidate[float64]
	localVectors map[string]float64
	peerVectors  map[string]float64
	outward      map[string]int
}

func (e *fakeEngine) VertexSimilar(ctx context.Context, a, b float64) (bool, error) {
	return e.similar[[2]string{keyOf(e, a), keyOf(e, b)}], nil
}

// keyOf resolves a vector back to the URI that produced it, since the fake
// uses plain floats as vectors and needs a way to recover identity for the
// similarity table lookup.
func keyOf(e *fakeEngine, v float64) string {
	for uri, vec := range e.localVectors {
		if vec == v {
			return uri
		}
	}
	for uri, vec := range e.peerVectors {
		if vec == v {
			return uri
		}
	}
	return ""
}

func (e *fakeEngine) PathSimilarity(ctx context.Context, aEdge float64, aLen float64, bEdge float64, bLen float64) (float64, error) {
	return 1.0, nil
}

func (e *fakeEngine) LocalTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[float64], error) {
	return e.localPaths[uri], nil
}

func (e *fakeEngine) PeerTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[float64], error) {
	return e.peerPaths[uri], nil
}

func (e *fakeEngine) LocalVector(ctx context.Context, uri string) (float64, error) {
	return e.localVectors[uri], nil
}

func (e *fakeEngine) PeerVector(ctx context.Context, uri string) (float64, error) {
	return e.peerVectors[uri], nil
}

func (e *fakeEngine) VertexInfo(uri string) (bool, int, error) {
	degree, ok := e.outward[uri]
	return ok, degree, nil
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		similar:      make(map[[2]string]bool),
		localPaths:   make(map[string][]session.PathCandidate[float64]),
		peerPaths:    make(map[string][]session.PathCandidate[float64]),
		localVectors: make(map[string]float64),
		peerVectors:  make(map[string]float64),
		outward:      make(map[string]int),
	}
}

func TestMatchSucceedsWhenNeighborhoodsAlign(t *testing.T) {
	eng := newFakeEngine()
	eng.localVectors["s1"] = 1
	eng.localVectors["s2"] = 2
	eng.peerVectors["c1"] = 11
	eng.peerVectors["c2"] = 12

	eng.outward["s1"] = 1
	eng.outward["s2"] = 0

	eng.similar[[2]string{"s1", "c1"}] = true
	eng.similar[[2]string{"s2", "c2"}] = true

	eng.localPaths["s1"] = []session.PathCandidate[float64]{{URI: "s2", Vector: 2, Edge: 1, Length: 1}}
	eng.peerPaths["c1"] = []session.PathCandidate[float64]{{URI: "c2", Vector: 12, Edge: 1, Length: 1}}

	sess := session.New[float64](session.Config{Sigma: 0.95, Delta: 0.1, K: 3, Epsilon: 1e-3})

	matched, err := Match(context.Background(), sess, eng, "s1", 1, "c1", 11)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !matched {
		t.Error("Match() = false, want true")
	}
}

func TestMatchFailsWhenRootVertexSimilarityFails(t *testing.T) {
	eng := newFakeEngine()
	eng.localVectors["s1"] = 1
	eng.peerVectors["c1"] = 11
	eng.outward["s1"] = 1
	// no similarity entry: defaults to false

	sess := session.New[float64](session.Config{Sigma: 0.95, Delta: 0.1, K: 3})

	matched, err := Match(context.Background(), sess, eng, "s1", 1, "c1", 11)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if matched {
		t.Error("Match() = true, want false")
	}
}

func TestMatchShortCircuitsOnLeafVertex(t *testing.T) {
	eng := newFakeEngine()
	eng.localVectors["s1"] = 1
	eng.peerVectors["c1"] = 11
	eng.outward["s1"] = 0
	eng.similar[[2]string{"s1", "c1"}] = true

	sess := session.New[float64](session.Config{Sigma: 0.95, Delta: 0.1, K: 3})

	matched, err := Match(context.Background(), sess, eng, "s1", 1, "c1", 11)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !matched {
		t.Error("Match() = false, want true for a leaf vertex with similar root")
	}
}
