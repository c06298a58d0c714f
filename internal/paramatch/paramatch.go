// Package paramatch implements ParaMatch, the recursive same-vertex
// decision procedure that decides whether a server vertex and a client
// vertex denote the same real-world entity by recursively comparing their
// paraphrased neighborhoods. The reference implementation expresses this as
// a Python function that calls itself; Go has no tail-call elimination and
// the call graph here is mutually recursive and cyclic (a vertex pair's
// evaluation can depend on itself transitively), so Match is implemented as
// an explicit work-stack machine instead of native recursion.
package paramatch

import (
	"context"
	"fmt"

	"github.com/glyphmatch/enrich/internal/session"
)

// Engine supplies the oracle operations ParaMatch needs: vertex similarity
// (h_v), path similarity (h_p), and the top-k paraphrase path generator
// (h_r), split into a local variant (evaluated directly against the
// caller's own graph and predictor) and a peer variant (requested from the
// other party over the wire). Implementations wrap either the homomorphic
// engine (internal/henc) or the plaintext reference engine
// (internal/plaintext); both satisfy the same ranking-only guarantee.
type Engine[V any] interface {
	VertexSimilar(ctx context.Context, a, b V) (bool, error)
	PathSimilarity(ctx context.Context, aEdge V, aLen float64, bEdge V, bLen float64) (float64, error)
	LocalTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[V], error)
	PeerTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[V], error)
	LocalVector(ctx context.Context, uri string) (V, error)
	PeerVector(ctx context.Context, uri string) (V, error)
	VertexInfo(uri string) (exists bool, outwardDegree int, err error)
}

type lGroup[V any] struct {
	server  session.PathCandidate[V]
	clients []session.PathCandidate[V] // sorted descending by h_p score
}

type framePhase int

const (
	phaseBuildL framePhase = iota
	phaseIterate
	phaseDone
)

type frame[V any] struct {
	aURI, bURI string
	aVec, bVec V

	phase framePhase

	groups   []lGroup[V]
	maxScore float64
	sum      float64
	w        [][2]string

	sIdx int
	cIdx int

	result bool
}

// Match decides whether the server vertex aURI/aVec and the peer vertex
// bURI/bVec denote the same entity, recursing (via an explicit work stack,
// not the Go call stack) into their neighborhoods as needed. Results and
// intermediate oracle answers are memoized on sess so repeated or mutually
// dependent calls within the same run reuse work instead of repeating it.
func Match[V any](ctx context.Context, sess *session.Session[V], eng Engine[V], aURI string, aVec V, bURI string, bVec V) (bool, error) {
	if m, ok := sess.Match(aURI, bURI); ok {
		return m, nil
	}

	resolved, ok, err := enter(ctx, sess, eng, aURI, aVec, bURI, bVec)
	if err != nil {
		return false, err
	}
	if ok {
		return resolved, nil
	}

	stack := []*frame[V]{{aURI: aURI, bURI: bURI, aVec: aVec, bVec: bVec, phase: phaseBuildL}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		done, err := step(ctx, sess, eng, f, &stack)
		if err != nil {
			return false, err
		}
		if done {
			stack = stack[:len(stack)-1]
		}
	}

	m, _ := sess.Match(aURI, bURI)
	return m, nil
}

// enter runs the non-recursive prelude of a ParaMatch evaluation: the
// vertex-similarity gate, the leaf-vertex short circuit, and the
// provisional-true cache write that breaks cycles. It reports ok=true when
// the pair resolved without needing the iterative loop (h_v failed, the
// vertex doesn't exist locally, or the vertex is a graph leaf); otherwise
// the caller must push a frame and run step until it completes.
func enter[V any](ctx context.Context, sess *session.Session[V], eng Engine[V], aURI string, aVec V, bURI string, bVec V) (result bool, ok bool, err error) {
	similar, cached := sess.VertexSimilarity(aURI, bURI)
	if !cached {
		similar, err = eng.VertexSimilar(ctx, aVec, bVec)
		if err != nil {
			return false, false, fmt.Errorf("paramatch: vertex similarity: %w", err)
		}
		sess.SetVertexSimilarity(aURI, bURI, similar)
	}
	if !similar {
		sess.SetMatch(aURI, bURI, false)
		return false, true, nil
	}

	exists, outwardDegree, err := eng.VertexInfo(aURI)
	if err != nil {
		return false, false, fmt.Errorf("paramatch: vertex info: %w", err)
	}
	if !exists {
		// Mirrors the reference implementation: an unresolved vertex type
		// returns false without ever being cached.
		return false, true, nil
	}
	if outwardDegree == 0 {
		sess.SetMatch(aURI, bURI, true)
		return true, true, nil
	}

	sess.SetMatch(aURI, bURI, true)
	return false, false, nil
}

func step[V any](ctx context.Context, sess *session.Session[V], eng Engine[V], f *frame[V], stack *[]*frame[V]) (done bool, err error) {
	switch f.phase {
	case phaseBuildL:
		return buildL(ctx, sess, eng, f)
	case phaseIterate:
		return iterate(ctx, sess, eng, f, stack)
	default:
		return true, nil
	}
}

func buildL[V any](ctx context.Context, sess *session.Session[V], eng Engine[V], f *frame[V]) (bool, error) {
	serverPaths, ok := sess.LocalPaths(f.aURI)
	if !ok {
		var err error
		serverPaths, err = eng.LocalTopKPaths(ctx, f.aURI, sess.Config.K)
		if err != nil {
			return false, fmt.Errorf("paramatch: local top-k paths: %w", err)
		}
		sess.SetLocalPaths(f.aURI, serverPaths)
	}

	clientPaths, ok := sess.PeerPaths(f.bURI)
	if !ok {
		var err error
		clientPaths, err = eng.PeerTopKPaths(ctx, f.bURI, sess.Config.K)
		if err != nil {
			return false, fmt.Errorf("paramatch: peer top-k paths: %w", err)
		}
		sess.SetPeerPaths(f.bURI, clientPaths)
	}

	var groups []lGroup[V]
	var maxScore float64
	for _, sp := range serverPaths {
		var matched []session.PathCandidate[V]
		var scores []float64
		for _, cp := range clientPaths {
			similar, cached := sess.VertexSimilarity(sp.URI, cp.URI)
			if !cached {
				var err error
				similar, err = eng.VertexSimilar(ctx, sp.Vector, cp.Vector)
				if err != nil {
					return false, fmt.Errorf("paramatch: vertex similarity: %w", err)
				}
				sess.SetVertexSimilarity(sp.URI, cp.URI, similar)
			}
			if !similar {
				continue
			}
			score, err := eng.PathSimilarity(ctx, sp.Edge, sp.Length, cp.Edge, cp.Length)
			if err != nil {
				return false, fmt.Errorf("paramatch: path similarity: %w", err)
			}
			matched = append(matched, cp)
			scores = append(scores, score)
		}
		if len(matched) == 0 {
			continue
		}
		sortDescByScore(matched, scores)
		maxScore += minScore(scores)
		groups = append(groups, lGroup[V]{server: sp, clients: matched})
	}

	if maxScore < sess.Config.Delta {
		sess.SetMatch(f.aURI, f.bURI, false)
		f.phase = phaseDone
		f.result = false
		return true, nil
	}

	f.groups = groups
	f.maxScore = maxScore
	f.phase = phaseIterate
	f.sIdx, f.cIdx = 0, 0
	return false, nil
}

func iterate[V any](ctx context.Context, sess *session.Session[V], eng Engine[V], f *frame[V], stack *[]*frame[V]) (bool, error) {
	for f.sIdx < len(f.groups) {
		group := f.groups[f.sIdx]
		if f.cIdx >= len(group.clients) {
			f.sIdx++
			f.cIdx = 0
			continue
		}

		sp := group.server
		cp := group.clients[f.cIdx]

		matched, ok := sess.Match(sp.URI, cp.URI)
		if !ok {
			resolved, ok, err := enter(ctx, sess, eng, sp.URI, sp.Vector, cp.URI, cp.Vector)
			if err != nil {
				return false, err
			}
			if !ok {
				*stack = append(*stack, &frame[V]{aURI: sp.URI, bURI: cp.URI, aVec: sp.Vector, bVec: cp.Vector, phase: phaseBuildL})
				return false, nil
			}
			matched = resolved
		}

		if matched {
			score, err := eng.PathSimilarity(ctx, sp.Edge, sp.Length, cp.Edge, cp.Length)
			if err != nil {
				return false, err
			}
			f.sum += score
			f.w = append(f.w, [2]string{sp.URI, cp.URI})
			if f.sum > sess.Config.Delta {
				sess.SetMatch(f.aURI, f.bURI, true, f.w...)
				f.phase = phaseDone
				f.result = true
				return true, nil
			}
			f.sIdx++
			f.cIdx = 0
			continue
		}

		disproved, err := eng.PathSimilarity(ctx, sp.Edge, sp.Length, cp.Edge, cp.Length)
		if err != nil {
			return false, err
		}
		f.maxScore -= disproved
		for j, other := range group.clients {
			if j == f.cIdx {
				continue
			}
			s, err := eng.PathSimilarity(ctx, sp.Edge, sp.Length, other.Edge, other.Length)
			if err != nil {
				return false, err
			}
			f.maxScore += s
		}
		if f.maxScore < sess.Config.Delta {
			f.sIdx++
			f.cIdx = 0
			continue
		}
		f.cIdx++
	}

	sess.SetMatch(f.aURI, f.bURI, false)
	f.phase = phaseDone
	f.result = false

	for _, dep := range sess.InvalidateDependents(f.aURI, f.bURI) {
		localURI, peerURI := dep[0], dep[1]
		localVec, err := eng.LocalVector(ctx, localURI)
		if err != nil {
			return false, fmt.Errorf("paramatch: invalidate: local vector: %w", err)
		}
		peerVec, err := eng.PeerVector(ctx, peerURI)
		if err != nil {
			return false, fmt.Errorf("paramatch: invalidate: peer vector: %w", err)
		}
		resolved, ok, err := enter(ctx, sess, eng, localURI, localVec, peerURI, peerVec)
		if err != nil {
			return false, err
		}
		if !ok {
			*stack = append(*stack, &frame[V]{aURI: localURI, bURI: peerURI, aVec: localVec, bVec: peerVec, phase: phaseBuildL})
		}
		_ = resolved
	}

	return true, nil
}

func minScore(scores []float64) float64 {
	min := scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

// sortDescByScore sorts clients and their parallel scores slice in place so
// that clients[i] always corresponds to scores[i], ordered by descending
// score. A manual insertion sort keeps the two slices in lockstep without
// allocating index/pair wrappers.
func sortDescByScore[V any](clients []session.PathCandidate[V], scores []float64) {
	for i := 1; i < len(clients); i++ {
		cv, sv := clients[i], scores[i]
		j := i - 1
		for j >= 0 && scores[j] < sv {
			clients[j+1] = clients[j]
			scores[j+1] = scores[j]
			j--
		}
		clients[j+1] = cv
		scores[j+1] = sv
	}
}
