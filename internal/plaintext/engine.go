// Package plaintext implements [paramatch.Engine] without any encryption or
// network round trip: vertex similarity and path similarity are computed
// directly against plaintext embedding vectors, both graphs live in the
// same process, and the top-k paraphrase path generator runs straight
// against each side's own graph and predictor. It exists both as the
// unencrypted "security_mode: false" deployment option and as the
// ground truth that tests compare the homomorphically masked engine's
// rankings against.
package plaintext

import (
	"context"
	"fmt"
	"sort"

	"github.com/glyphmatch/enrich/internal/embedenc"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/predictor"
	"github.com/glyphmatch/enrich/internal/session"
	"github.com/glyphmatch/enrich/internal/vecmath"
)

// Side bundles one party's graph, predictor, and precomputed normalized
// vertex embeddings.
type Side struct {
	Graph     *graph.Graph
	Predictor predictor.Predictor
	Vectors   map[string][]float64
}

// NewSide computes and normalizes an embedding for every vertex in g,
// building a ready-to-use Side.
func NewSide(ctx context.Context, g *graph.Graph, enc embedenc.Encoder, pred predictor.Predictor) (*Side, error) {
	vertices := g.Vertices()
	labels := make([]string, len(vertices))
	for i, v := range vertices {
		labels[i] = v.Label
	}
	embeddings, err := enc.EncodeBatch(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("plaintext: encode embeddings: %w", err)
	}

	vectors := make(map[string][]float64, len(vertices))
	for i, v := range vertices {
		vectors[v.URI] = vecmath.Normalize(embeddings[i])
	}
	return &Side{Graph: g, Predictor: pred, Vectors: vectors}, nil
}

var _ interface {
	VertexSimilar(ctx context.Context, a, b []float64) (bool, error)
} = (*Engine)(nil)

// Engine implements [paramatch.Engine] over plaintext float64 vectors.
type Engine struct {
	Local *Side
	Peer  *Side
	Sigma float64

	// PathEncoder embeds the joined vertex-label sentence of a path into a
	// comparable vector; both sides use the same encoder in practice, but
	// the field is kept separate from Local/Peer's Vectors caches since
	// paths are enumerated afresh per query rather than precomputed.
	PathEncoder embedenc.Encoder
}

// NewEngine constructs an [Engine] comparing local against peer.
func NewEngine(local, peer *Side, sigma float64, pathEncoder embedenc.Encoder) *Engine {
	return &Engine{Local: local, Peer: peer, Sigma: sigma, PathEncoder: pathEncoder}
}

// VertexSimilar implements [paramatch.Engine]: cosine similarity thresholded
// at Sigma, both vectors assumed already normalized.
func (e *Engine) VertexSimilar(ctx context.Context, a, b []float64) (bool, error) {
	return vecmath.Dot(a, b) >= e.Sigma, nil
}

// PathSimilarity implements [paramatch.Engine] as (p1 . p2) / (len1 + len2),
// the plaintext reference formula. This is intentionally not numerically
// equivalent to the homomorphically masked engine's ranking-only score; see
// internal/henc for that variant.
func (e *Engine) PathSimilarity(ctx context.Context, aEdge []float64, aLen float64, bEdge []float64, bLen float64) (float64, error) {
	denom := aLen + bLen
	if denom == 0 {
		return 0, nil
	}
	return vecmath.Dot(aEdge, bEdge) / denom, nil
}

// LocalTopKPaths implements [paramatch.Engine] against the local side's own
// graph and predictor.
func (e *Engine) LocalTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[[]float64], error) {
	return TopKPaths(ctx, e.Local, e.PathEncoder, uri, k)
}

// PeerTopKPaths implements [paramatch.Engine]. In this single-process
// engine the "peer" graph is simply the other side's graph, computed
// in-process rather than fetched over a wire.
func (e *Engine) PeerTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[[]float64], error) {
	return TopKPaths(ctx, e.Peer, e.PathEncoder, uri, k)
}

// LocalVector implements [paramatch.Engine].
func (e *Engine) LocalVector(ctx context.Context, uri string) ([]float64, error) {
	v, ok := e.Local.Vectors[uri]
	if !ok {
		return nil, fmt.Errorf("plaintext: local vector: no embedding for %q", uri)
	}
	return v, nil
}

// PeerVector implements [paramatch.Engine].
func (e *Engine) PeerVector(ctx context.Context, uri string) ([]float64, error) {
	v, ok := e.Peer.Vectors[uri]
	if !ok {
		return nil, fmt.Errorf("plaintext: peer vector: no embedding for %q", uri)
	}
	return v, nil
}

// VertexInfo implements [paramatch.Engine] against the local graph: aURI in
// ParaMatch is always a vertex of the side that owns the comparison.
func (e *Engine) VertexInfo(uri string) (exists bool, outwardDegree int, err error) {
	v, lookupErr := e.Local.Graph.Vertex(uri)
	if lookupErr != nil {
		return false, 0, nil
	}
	return true, v.OutwardDegree, nil
}

// walk is one in-progress paraphrase path: the vertex URIs visited and the
// edges traversed to reach them, in order.
type walk struct {
	vertices []string
	edges    []*graph.Edge
}

// lastEdge returns the most recently traversed edge.
func (w walk) lastEdge() *graph.Edge {
	return w.edges[len(w.edges)-1]
}

// TopKPaths implements the top-k paraphrase path generator h_r: starting
// from every outward edge of uri, greedily extend the walk by asking the
// predictor which of the current vertex's outward edge labels continues
// most plausibly, stopping at a leaf, a predictor end-of-sequence signal,
// or a revisited vertex (cycle). Each candidate walk is scored by the
// product of the inverse out-degree of every vertex but the last, and the
// top k walks by that score are returned.
//
// It is exported so the homomorphically encrypted driver can reuse the
// same plaintext walk logic on its own side of the connection before
// encrypting the resulting candidates; path discovery itself is never
// secret, only the similarity comparison that follows it.
func TopKPaths(ctx context.Context, side *Side, enc embedenc.Encoder, uri string, k int) ([]session.PathCandidate[[]float64], error) {
	if k <= 0 {
		return nil, nil
	}

	edges := side.Graph.GetEdges(uri)
	walks := make([]walk, 0, len(edges))
	for _, e0 := range edges {
		w := walk{vertices: []string{e0.V1, e0.V2}, edges: []*graph.Edge{e0}}
		for {
			last := w.lastEdge()
			v2, err := side.Graph.Vertex(last.V2)
			if err != nil || v2.OutwardDegree == 0 {
				break
			}
			candidates := side.Graph.GetEdges(last.V2)
			labels := make([]string, len(candidates))
			for i, c := range candidates {
				labels[i] = c.Label
			}
			predicted, eos, err := side.Predictor.Predict(ctx, last.Label, labels)
			if err != nil {
				return nil, fmt.Errorf("plaintext: predict: %w", err)
			}
			if eos || len(predicted) == 0 {
				break
			}

			var next *graph.Edge
			for _, c := range candidates {
				for _, p := range predicted {
					if c.Label == p {
						next = c
						break
					}
				}
				if next != nil {
					break
				}
			}
			if next == nil {
				break
			}

			visited := false
			for _, v := range w.vertices {
				if v == next.V2 {
					visited = true
					break
				}
			}
			if visited {
				break
			}

			w.vertices = append(w.vertices, next.V2)
			w.edges = append(w.edges, next)
		}
		walks = append(walks, w)
	}

	type scored struct {
		walk  walk
		score float64
	}
	scoredWalks := make([]scored, 0, len(walks))
	for _, w := range walks {
		score := 1.0
		for _, v := range w.vertices[:len(w.vertices)-1] {
			vv, err := side.Graph.Vertex(v)
			if err != nil || vv.OutwardDegree == 0 {
				continue
			}
			score *= 1.0 / float64(vv.OutwardDegree)
		}
		scoredWalks = append(scoredWalks, scored{walk: w, score: score})
	}
	sort.SliceStable(scoredWalks, func(i, j int) bool { return scoredWalks[i].score > scoredWalks[j].score })
	if len(scoredWalks) > k {
		scoredWalks = scoredWalks[:k]
	}

	out := make([]session.PathCandidate[[]float64], 0, len(scoredWalks))
	for _, sw := range scoredWalks {
		labels := make([]string, len(sw.walk.edges))
		for i, e := range sw.walk.edges {
			labels[i] = e.Label
		}
		pathVec, err := embedenc.EncodePathSentence(ctx, enc, labels)
		if err != nil {
			return nil, fmt.Errorf("plaintext: encode path: %w", err)
		}

		targetURI := sw.walk.vertices[1]
		out = append(out, session.PathCandidate[[]float64]{
			URI:    targetURI,
			Vector: side.Vectors[targetURI],
			Edge:   vecmath.Normalize(pathVec),
			Length: float64(len(sw.walk.vertices)),
		})
	}
	return out, nil
}
