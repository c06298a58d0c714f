// Package driver wires the homomorphic engine (internal/henc), the wire
// protocol (internal/protocol), the matching algorithm (internal/paramatch),
// and the subgraph merge operations (internal/graph/merge) into the
// networked server/client enrichment run: for each of its own vertices, a
// party asks its peer's oracle to judge similarity against every peer
// vertex, and once ParaMatch decides two vertices denote the same entity,
// each side fetches the other's lineage subgraph and grafts it in.
package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/glyphmatch/enrich/internal/embedenc"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/paramatch"
	"github.com/glyphmatch/enrich/internal/plaintext"
	"github.com/glyphmatch/enrich/internal/protocol"
	"github.com/glyphmatch/enrich/internal/session"
	"github.com/glyphmatch/enrich/internal/telemetry"
)

// NetEngine implements [paramatch.Engine] over a live connection to a peer's
// oracle: vertex similarity and path similarity are computed homomorphically
// and sent across the wire for the peer to decrypt and answer, while top-k
// paraphrase paths are computed locally in plaintext (path discovery itself
// reveals nothing the protocol protects) and only the resulting vectors are
// encrypted before being exchanged.
type NetEngine struct {
	Conn io.ReadWriter
	HCtx *henc.Context

	// Sigma mirrors session.Config.Sigma; NetEngine needs its own copy
	// since Engine methods are not passed the session.
	Sigma float64

	// Mask blinds every value this side sends to the peer's oracle. It is
	// drawn once per run (see [henc.RandomMask]) and reused for every
	// request, matching the reference implementation's single session-wide
	// mask rather than a fresh mask per call.
	Mask float64

	Local       *plaintext.Side
	PathEncoder embedenc.Encoder

	// LocalVectors and PeerVectors hold every vertex's encrypted embedding,
	// precomputed once at handshake time: LocalVectors by encrypting this
	// side's own embeddings, PeerVectors by receiving the peer's ciphertexts.
	LocalVectors map[string]henc.EncVector
	PeerVectors  map[string]henc.EncVector

	// Metrics records every oracle round trip's latency and byte counts
	// when non-nil. A zero-value NetEngine (as used in tests) leaves this
	// nil and simply skips recording.
	Metrics *telemetry.Metrics
}

// recordRoundTrip reports one oracle round trip to e.Metrics, if set.
func (e *NetEngine) recordRoundTrip(ctx context.Context, messageType string, start time.Time, sent, received int) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordOracleRoundTrip(ctx, messageType, time.Since(start), sent, received)
}

var _ paramatch.Engine[henc.EncVector] = (*NetEngine)(nil)

// VertexSimilar implements [paramatch.Engine]'s h_v: the encrypted
// similarity offset (a . b - Sigma) is masked and sent to the peer oracle,
// which decrypts and replies with the thresholded bool.
func (e *NetEngine) VertexSimilar(ctx context.Context, a, b henc.EncVector) (bool, error) {
	start := time.Now()
	diff, err := a.Dot(b)
	if err != nil {
		return false, fmt.Errorf("driver: vertex similar: dot: %w", err)
	}
	diff, err = diff.SubScalar(e.Sigma)
	if err != nil {
		return false, fmt.Errorf("driver: vertex similar: sub sigma: %w", err)
	}
	masked, err := diff.ScaleScalar(e.Mask)
	if err != nil {
		return false, fmt.Errorf("driver: vertex similar: mask: %w", err)
	}
	payload, err := masked.Serialize()
	if err != nil {
		return false, fmt.Errorf("driver: vertex similar: serialize: %w", err)
	}
	if err := protocol.WriteRequest(e.Conn, protocol.MsgVertexSimilarity, payload); err != nil {
		return false, fmt.Errorf("driver: vertex similar: send: %w", err)
	}
	similar, err := protocol.ReadBool(e.Conn)
	if err != nil {
		return false, fmt.Errorf("driver: vertex similar: recv: %w", err)
	}
	e.recordRoundTrip(ctx, "vertex_similarity", start, len(payload), 4)
	return similar, nil
}

// PathSimilarity implements [paramatch.Engine]'s h_p: the encrypted path
// dot product is scaled by a quarter of the combined reciprocal lengths,
// masked, and sent to the peer oracle for a ranking-only score. aLen and
// bLen must already be 1/len(path), matching how [NetEngine.LocalTopKPaths]
// and the oracle's top-k replies populate [session.PathCandidate.Length].
func (e *NetEngine) PathSimilarity(ctx context.Context, aEdge henc.EncVector, aLen float64, bEdge henc.EncVector, bLen float64) (float64, error) {
	start := time.Now()
	prod, err := aEdge.Dot(bEdge)
	if err != nil {
		return 0, fmt.Errorf("driver: path similarity: dot: %w", err)
	}
	scaled, err := prod.ScaleScalar(0.25 * (aLen + bLen))
	if err != nil {
		return 0, fmt.Errorf("driver: path similarity: scale: %w", err)
	}
	masked, err := scaled.ScaleScalar(e.Mask)
	if err != nil {
		return 0, fmt.Errorf("driver: path similarity: mask: %w", err)
	}
	payload, err := masked.Serialize()
	if err != nil {
		return 0, fmt.Errorf("driver: path similarity: serialize: %w", err)
	}
	if err := protocol.WriteRequest(e.Conn, protocol.MsgPathSimilarity, payload); err != nil {
		return 0, fmt.Errorf("driver: path similarity: send: %w", err)
	}
	score, err := protocol.ReadFloat64(e.Conn)
	if err != nil {
		return 0, fmt.Errorf("driver: path similarity: recv: %w", err)
	}
	e.recordRoundTrip(ctx, "path_similarity", start, len(payload), 8)
	return score, nil
}

// LocalTopKPaths implements [paramatch.Engine]: the walk itself runs in
// plaintext against the local graph and predictor, and only the resulting
// vectors are encrypted before being handed to ParaMatch.
func (e *NetEngine) LocalTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[henc.EncVector], error) {
	candidates, err := plaintext.TopKPaths(ctx, e.Local, e.PathEncoder, uri, k)
	if err != nil {
		return nil, fmt.Errorf("driver: local top-k paths: %w", err)
	}
	out := make([]session.PathCandidate[henc.EncVector], len(candidates))
	for i, c := range candidates {
		vecCT, err := e.HCtx.Encrypt(c.Vector)
		if err != nil {
			return nil, fmt.Errorf("driver: local top-k paths: encrypt vector: %w", err)
		}
		edgeCT, err := e.HCtx.Encrypt(c.Edge)
		if err != nil {
			return nil, fmt.Errorf("driver: local top-k paths: encrypt edge: %w", err)
		}
		out[i] = session.PathCandidate[henc.EncVector]{
			URI:    c.URI,
			Vector: vecCT,
			Edge:   edgeCT,
			Length: reciprocal(c.Length),
		}
	}
	return out, nil
}

// PeerTopKPaths implements [paramatch.Engine]: a type-2 request is sent to
// the peer's oracle, which runs the same plaintext walk against its own
// graph and returns encrypted vectors.
func (e *NetEngine) PeerTopKPaths(ctx context.Context, uri string, k int) ([]session.PathCandidate[henc.EncVector], error) {
	reqBytes, err := protocol.EncodeTopKRequest(protocol.TopKRequest{URI: uri, K: uint32(k)})
	if err != nil {
		return nil, fmt.Errorf("driver: peer top-k paths: encode request: %w", err)
	}
	if err := protocol.WriteRequest(e.Conn, protocol.MsgTopKPaths, reqBytes); err != nil {
		return nil, fmt.Errorf("driver: peer top-k paths: send: %w", err)
	}
	respBytes, err := protocol.ReadLengthPrefixed(e.Conn)
	if err != nil {
		return nil, fmt.Errorf("driver: peer top-k paths: recv: %w", err)
	}
	resp, err := protocol.DecodeTopKResponse(respBytes)
	if err != nil {
		return nil, fmt.Errorf("driver: peer top-k paths: decode: %w", err)
	}

	out := make([]session.PathCandidate[henc.EncVector], len(resp.URIs))
	for i := range resp.URIs {
		vecCT, err := e.HCtx.Deserialize(resp.Vectors[i])
		if err != nil {
			return nil, fmt.Errorf("driver: peer top-k paths: deserialize vector: %w", err)
		}
		edgeCT, err := e.HCtx.Deserialize(resp.Edges[i])
		if err != nil {
			return nil, fmt.Errorf("driver: peer top-k paths: deserialize edge: %w", err)
		}
		out[i] = session.PathCandidate[henc.EncVector]{
			URI:    resp.URIs[i],
			Vector: vecCT,
			Edge:   edgeCT,
			Length: resp.Lengths[i],
		}
	}
	return out, nil
}

// LocalVector implements [paramatch.Engine].
func (e *NetEngine) LocalVector(ctx context.Context, uri string) (henc.EncVector, error) {
	v, ok := e.LocalVectors[uri]
	if !ok {
		return nil, fmt.Errorf("driver: local vector: no ciphertext for %q", uri)
	}
	return v, nil
}

// PeerVector implements [paramatch.Engine].
func (e *NetEngine) PeerVector(ctx context.Context, uri string) (henc.EncVector, error) {
	v, ok := e.PeerVectors[uri]
	if !ok {
		return nil, fmt.Errorf("driver: peer vector: no ciphertext for %q", uri)
	}
	return v, nil
}

// VertexInfo implements [paramatch.Engine] against the local graph: aURI in
// ParaMatch always names a vertex owned by the side driving the comparison.
func (e *NetEngine) VertexInfo(uri string) (exists bool, outwardDegree int, err error) {
	v, lookupErr := e.Local.Graph.Vertex(uri)
	if lookupErr != nil {
		return false, 0, nil
	}
	return true, v.OutwardDegree, nil
}

// FetchPeerLineage sends a type-4 request for the peer's lineage subgraph
// rooted at uri and rebuilds it as a local [graph.Graph].
func (e *NetEngine) FetchPeerLineage(ctx context.Context, uri string) (*graph.Graph, error) {
	if err := protocol.WriteRequest(e.Conn, protocol.MsgLineageSubgraph, []byte(uri)); err != nil {
		return nil, fmt.Errorf("driver: fetch peer lineage: send: %w", err)
	}
	respBytes, err := protocol.ReadLengthPrefixed(e.Conn)
	if err != nil {
		return nil, fmt.Errorf("driver: fetch peer lineage: recv: %w", err)
	}
	payload, err := protocol.DecodeSubgraphPayload(respBytes)
	if err != nil {
		return nil, fmt.Errorf("driver: fetch peer lineage: decode: %w", err)
	}
	g, err := protocol.GraphFromSubgraphPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("driver: fetch peer lineage: rebuild graph: %w", err)
	}
	return g, nil
}

// SendEnrichment sends a type-5, fire-and-forget request telling the peer
// that its vertex at uri matched one of ours, attaching our lineage
// subgraph rooted there so the peer can graft it into its own graph.
func (e *NetEngine) SendEnrichment(ctx context.Context, uri string, subgraph *graph.Graph) error {
	req := protocol.EnrichmentRequest{URI: uri, Subgraph: protocol.SubgraphPayloadFromGraph(subgraph)}
	payload, err := protocol.EncodeEnrichmentRequest(req)
	if err != nil {
		return fmt.Errorf("driver: send enrichment: encode: %w", err)
	}
	if err := protocol.WriteRequest(e.Conn, protocol.MsgEnrichment, payload); err != nil {
		return fmt.Errorf("driver: send enrichment: send: %w", err)
	}
	return nil
}

// reciprocal returns 1/length, or 0 if length is 0, converting a plaintext
// path length into the form the encrypted h_p formula expects.
func reciprocal(length float64) float64 {
	if length == 0 {
		return 0
	}
	return 1 / length
}
