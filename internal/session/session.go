// Package session holds the per-run state a ParaMatch comparison needs
// across the lifetime of one server vertex's enrichment pass: the
// thresholds that govern matching, the memoized oracle answers, and the
// top-k path candidates already fetched for a vertex. The reference
// implementation kept this state in module-level globals (cache, hv_cache,
// ecache, sigma, delta, mask); here it is an explicit value threaded through
// every call so multiple comparisons can run without clobbering each
// other's state.
package session

import "sync"

// Config holds the thresholds and tuning knobs that shape a ParaMatch run.
type Config struct {
	// Sigma is the vertex-similarity offset subtracted before masking in
	// h_v: the oracle reports similarity as (dot - Sigma) > 0 once the mask
	// is divided out.
	Sigma float64

	// Delta is the minimum accumulated path-similarity score required for
	// two vertices' neighborhoods to be judged a match.
	Delta float64

	// K is the number of top-ranked paraphrase paths retained per vertex
	// by the path generator h_r.
	K int

	// Epsilon is the tolerance the client-side oracle applies when
	// comparing a masked similarity value against zero.
	Epsilon float64
}

// PathCandidate is one of the top-k paraphrase paths rooted at a vertex:
// the vertex reached by following it, that vertex's similarity vector, an
// encoded representation of the path's edge labels, and the path length
// used to normalize h_p.
type PathCandidate[V any] struct {
	URI    string
	Vector V
	Edge   V
	Length float64
}

type pairKey [2]string

// PairKey builds the key used to address a cached match result between two
// vertex URIs. Order matters: (a, b) and (b, a) are distinct entries,
// matching the reference implementation's directed server/client pairing.
func PairKey(a, b string) [2]string { return pairKey{a, b} }

type matchEntry struct {
	matched bool
	// dependents lists the pairs this entry's result relied on (its
	// witness list), so that this entry can be invalidated and recomputed
	// when one of those pairs is later rejected.
	dependents []pairKey
}

// Session carries the mutable, per-comparison state of one ParaMatch run:
// memoized vertex-similarity answers, cached top-k paths, and the
// provisional match cache used to break cycles and support back-invalidation.
//
// Session is safe for concurrent use.
type Session[V any] struct {
	Config Config

	mu         sync.Mutex
	hvCache    map[pairKey]bool
	localPaths map[string][]PathCandidate[V]
	peerPaths  map[string][]PathCandidate[V]
	mCache     map[pairKey]matchEntry
}

// New constructs an empty Session with the given configuration.
func New[V any](cfg Config) *Session[V] {
	return &Session[V]{
		Config:     cfg,
		hvCache:    make(map[pairKey]bool),
		localPaths: make(map[string][]PathCandidate[V]),
		peerPaths:  make(map[string][]PathCandidate[V]),
		mCache:     make(map[pairKey]matchEntry),
	}
}

// ResetMatchCache clears the provisional match cache. The driver calls this
// once per outer server-vertex iteration: the reference implementation
// reassigns its module-level `cache` dict at the same point, while leaving
// hv_cache and ecache (here hvCache and localPaths/peerPaths) live for the
// whole run since
// vertex similarity and top-k paths don't depend on which outer vertex is
// currently being compared against.
func (s *Session[V]) ResetMatchCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mCache = make(map[pairKey]matchEntry)
}

// VertexSimilarity returns a memoized h_v answer and whether one was cached.
func (s *Session[V]) VertexSimilarity(aURI, bURI string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.hvCache[pairKey{aURI, bURI}]
	return v, ok
}

// SetVertexSimilarity memoizes an h_v answer for the given pair.
func (s *Session[V]) SetVertexSimilarity(aURI, bURI string, similar bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hvCache[pairKey{aURI, bURI}] = similar
}

// LocalPaths returns the cached top-k path candidates computed locally (via
// the caller's own graph and predictor) for the vertex at uri, if present.
func (s *Session[V]) LocalPaths(uri string) ([]PathCandidate[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.localPaths[uri]
	return p, ok
}

// SetLocalPaths caches locally computed top-k path candidates for uri.
func (s *Session[V]) SetLocalPaths(uri string, paths []PathCandidate[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localPaths[uri] = paths
}

// PeerPaths returns the cached top-k path candidates fetched from the peer
// over the wire for the vertex at uri, if present.
func (s *Session[V]) PeerPaths(uri string) ([]PathCandidate[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peerPaths[uri]
	return p, ok
}

// SetPeerPaths caches top-k path candidates fetched from the peer for uri.
func (s *Session[V]) SetPeerPaths(uri string, paths []PathCandidate[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerPaths[uri] = paths
}

// Match returns the provisional or final match result cached for (aURI,
// bURI), if present.
func (s *Session[V]) Match(aURI, bURI string) (matched bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.mCache[pairKey{aURI, bURI}]
	return e.matched, ok
}

// SetMatch records the match result for (aURI, bURI). dependsOn lists the
// pairs whose match results this one relied on; a later
// [Session.InvalidateDependents] call for one of those pairs removes this
// entry so it can be recomputed. Passing no dependsOn records a pair that
// relied on no other pair.
func (s *Session[V]) SetMatch(aURI, bURI string, matched bool, dependsOn ...[2]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deps := make([]pairKey, len(dependsOn))
	for i, d := range dependsOn {
		deps[i] = pairKey(d)
	}
	s.mCache[pairKey{aURI, bURI}] = matchEntry{matched: matched, dependents: deps}
}

// DeleteMatch removes the cached result for (aURI, bURI), forcing
// recomputation on the next lookup.
func (s *Session[V]) DeleteMatch(aURI, bURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mCache, pairKey{aURI, bURI})
}

// InvalidateDependents removes every cached match entry whose recorded
// dependents include (aURI, bURI), returning the keys removed so the caller
// can recompute them. This mirrors the reference implementation's
// end-of-call sweep over its cache dict, which deletes and reruns any entry
// that assumed a provisional value for the pair just finalized.
func (s *Session[V]) InvalidateDependents(aURI, bURI string) [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := pairKey{aURI, bURI}
	var removed [][2]string
	for key, entry := range s.mCache {
		for _, dep := range entry.dependents {
			if dep == target {
				removed = append(removed, [2]string{key[0], key[1]})
				delete(s.mCache, key)
				break
			}
		}
	}
	return removed
}
