package driver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/graph/merge"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/paramatch"
	"github.com/glyphmatch/enrich/internal/protocol"
	"github.com/glyphmatch/enrich/internal/session"
)

// EnrichmentResult summarizes one completed enrichment run, mirroring the
// reference implementation's return dict.
type EnrichmentResult struct {
	EnrichedNodeCount int
	GraphPath         string
	Duration          time.Duration
}

// match pairs a local vertex with the peer vertex ParaMatch decided denotes
// the same entity, keeping the local vertex's outward degree for ordering.
type match struct {
	localURI     string
	peerURI      string
	localOutward int
}

// RunServer drives one full enrichment pass: for every local vertex it asks
// ParaMatch (via net, against every candidate peer vertex) whether the two
// denote the same entity, then — for every match found, processed in order
// of descending local outward degree, as the reference implementation's
// PI_ordered does — fetches the peer's lineage subgraph and grafts it into
// localGraph, and sends the local lineage back so the peer's own graph grows
// too. The merged graph is deduplicated, written to outputPath as Cytoscape
// JSON, and a termination signal is sent on controlConn once finished.
func RunServer(
	ctx context.Context,
	net *NetEngine,
	sess *session.Session[henc.EncVector],
	localGraph *graph.Graph,
	peerVertexURIs []string,
	outputPath string,
	controlConn io.Writer,
) (EnrichmentResult, error) {
	start := time.Now()
	originalURIs := localGraph.VertexURISet()

	matches, err := findMatches(ctx, net, sess, localGraph, peerVertexURIs)
	if err != nil {
		return EnrichmentResult{}, fmt.Errorf("driver: run server: find matches: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].localOutward > matches[j].localOutward
	})

	for _, m := range matches {
		localLineage, err := localGraph.ExtractLineageSet(m.localURI)
		if err != nil {
			return EnrichmentResult{}, fmt.Errorf("driver: run server: local lineage %q: %w", m.localURI, err)
		}

		peerLineage, err := net.FetchPeerLineage(ctx, m.peerURI)
		if err != nil {
			return EnrichmentResult{}, fmt.Errorf("driver: run server: peer lineage %q: %w", m.peerURI, err)
		}

		if _, err := merge.Subgraph(peerLineage, m.peerURI, localGraph, m.localURI); err != nil {
			return EnrichmentResult{}, fmt.Errorf("driver: run server: graft %q onto %q: %w", m.peerURI, m.localURI, err)
		}

		if err := net.SendEnrichment(ctx, m.peerURI, localLineage); err != nil {
			return EnrichmentResult{}, fmt.Errorf("driver: run server: send enrichment %q: %w", m.peerURI, err)
		}
	}

	if err := merge.RemoveDuplicateVerticesByLabelAndEdgeLabel(localGraph); err != nil {
		return EnrichmentResult{}, fmt.Errorf("driver: run server: dedup: %w", err)
	}
	if err := localGraph.SaveCytoscapeJSON(outputPath); err != nil {
		return EnrichmentResult{}, fmt.Errorf("driver: run server: save graph: %w", err)
	}
	if err := protocol.WriteTermination(controlConn); err != nil {
		return EnrichmentResult{}, fmt.Errorf("driver: run server: terminate: %w", err)
	}

	return EnrichmentResult{
		EnrichedNodeCount: localGraph.NewlyAddedVertexCount(originalURIs),
		GraphPath:         outputPath,
		Duration:          time.Since(start),
	}, nil
}

// findMatches builds the PI map: for every local vertex it asks ParaMatch
// about every candidate peer vertex and collects every one that matches, not
// just the first — PI maps a local vertex to the list of all matched peer
// vertices, as the reference implementation's PI[uri_server].append(result)
// does inside an unconditional loop. The provisional match cache is reset
// once per local vertex — the point at which the reference implementation
// reassigns its module-level cache dict — while the vertex-similarity and
// path caches stay live for the whole run.
func findMatches(ctx context.Context, net *NetEngine, sess *session.Session[henc.EncVector], localGraph *graph.Graph, peerVertexURIs []string) ([]match, error) {
	var matches []match
	for _, v := range localGraph.Vertices() {
		sess.ResetMatchCache()

		localVec, err := net.LocalVector(ctx, v.URI)
		if err != nil {
			return nil, fmt.Errorf("local vector %q: %w", v.URI, err)
		}

		for _, peerURI := range peerVertexURIs {
			peerVec, err := net.PeerVector(ctx, peerURI)
			if err != nil {
				return nil, fmt.Errorf("peer vector %q: %w", peerURI, err)
			}

			matched, err := paramatch.Match(ctx, sess, net, v.URI, localVec, peerURI, peerVec)
			if err != nil {
				return nil, fmt.Errorf("match %q/%q: %w", v.URI, peerURI, err)
			}
			if net.Metrics != nil {
				net.Metrics.RecordComparison(ctx, matched)
			}
			if matched {
				matches = append(matches, match{localURI: v.URI, peerURI: peerURI, localOutward: v.OutwardDegree})
			}
		}
	}
	return matches, nil
}
