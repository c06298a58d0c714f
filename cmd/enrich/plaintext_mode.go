package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/graph/merge"
	"github.com/glyphmatch/enrich/internal/paramatch"
	"github.com/glyphmatch/enrich/internal/plaintext"
	"github.com/glyphmatch/enrich/internal/session"
	"github.com/glyphmatch/enrich/internal/telemetry"
)

// localMatch mirrors internal/driver's unexported match type, kept separate
// since this mode drives [plaintext.Engine] directly rather than going
// through [driver.RunServer], which is hardwired to a networked [driver.NetEngine].
type localMatch struct {
	localURI     string
	peerURI      string
	localOutward int
}

// runPlaintext implements enrichment.security_mode: false — both datasets
// are loaded into the same process and compared directly against the
// plaintext ground-truth engine, with no network round trip and no
// homomorphic evaluation. Both graphs are enriched: the local graph gains
// the peer's matched lineage and is written to dataset.output_path, while
// the peer graph is enriched in memory only (this mode never persists it,
// whereas in the networked mode both roles write their own output file).
func runPlaintext(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) error {
	enc, err := buildEncoder(cfg.Providers.Embeddings)
	if err != nil {
		return fmt.Errorf("run plaintext: %w", err)
	}
	pred, err := buildPredictor(cfg.Providers.Predictor)
	if err != nil {
		return fmt.Errorf("run plaintext: %w", err)
	}

	localGraph, err := graph.LoadDataset(cfg.Dataset.Path, cfg.Dataset.Prefix)
	if err != nil {
		return fmt.Errorf("run plaintext: load local dataset: %w", err)
	}
	peerGraph, err := graph.LoadDataset(cfg.Dataset.PeerPath, cfg.Dataset.PeerPrefix)
	if err != nil {
		return fmt.Errorf("run plaintext: load peer dataset: %w", err)
	}

	localSide, err := plaintext.NewSide(ctx, localGraph, enc, pred)
	if err != nil {
		return fmt.Errorf("run plaintext: build local side: %w", err)
	}
	peerSide, err := plaintext.NewSide(ctx, peerGraph, enc, pred)
	if err != nil {
		return fmt.Errorf("run plaintext: build peer side: %w", err)
	}

	engine := plaintext.NewEngine(localSide, peerSide, cfg.Enrichment.Sigma, enc)

	sess := session.New[[]float64](session.Config{
		Sigma:   cfg.Enrichment.Sigma,
		Delta:   cfg.Enrichment.Delta,
		K:       cfg.Enrichment.K,
		Epsilon: cfg.Enrichment.Epsilon,
	})

	peerVertices := peerGraph.Vertices()
	peerURIs := make([]string, len(peerVertices))
	for i, v := range peerVertices {
		peerURIs[i] = v.URI
	}

	slog.Info("starting plaintext match search", "local_vertices", len(localGraph.Vertices()), "peer_vertices", len(peerURIs))

	matches, err := findLocalMatches(ctx, engine, sess, localGraph, peerURIs, metrics)
	if err != nil {
		return fmt.Errorf("run plaintext: %w", err)
	}

	// Process matches in descending local outward-degree order, same as
	// [driver.RunServer], so higher-fan-out vertices merge first.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].localOutward > matches[j].localOutward
	})

	localOriginalURIs := localGraph.VertexURISet()
	peerOriginalURIs := peerGraph.VertexURISet()

	for _, m := range matches {
		localLineage, err := localGraph.ExtractLineageSet(m.localURI)
		if err != nil {
			return fmt.Errorf("run plaintext: local lineage %q: %w", m.localURI, err)
		}
		peerLineage, err := peerGraph.ExtractLineageSet(m.peerURI)
		if err != nil {
			return fmt.Errorf("run plaintext: peer lineage %q: %w", m.peerURI, err)
		}

		if _, err := merge.Subgraph(peerLineage, m.peerURI, localGraph, m.localURI); err != nil {
			return fmt.Errorf("run plaintext: graft %q onto %q: %w", m.peerURI, m.localURI, err)
		}
		if err := merge.AppendAtURI(peerGraph, localLineage, m.peerURI); err != nil {
			return fmt.Errorf("run plaintext: append local lineage onto peer %q: %w", m.peerURI, err)
		}
	}

	if err := merge.RemoveDuplicateVerticesByLabelAndEdgeLabel(localGraph); err != nil {
		return fmt.Errorf("run plaintext: dedup local: %w", err)
	}
	if err := localGraph.SaveCytoscapeJSON(cfg.Dataset.OutputPath); err != nil {
		return fmt.Errorf("run plaintext: save graph: %w", err)
	}

	enrichedLocal := localGraph.NewlyAddedVertexCount(localOriginalURIs)
	enrichedPeer := peerGraph.NewlyAddedVertexCount(peerOriginalURIs)
	metrics.RecordEnrichedVertices(ctx, enrichedLocal+enrichedPeer)
	slog.Info("plaintext enrichment complete",
		"matches", len(matches),
		"enriched_local_vertices", enrichedLocal,
		"enriched_peer_vertices", enrichedPeer,
		"output", cfg.Dataset.OutputPath,
	)
	return nil
}

// findLocalMatches mirrors internal/driver's findMatches against
// [plaintext.Engine] instead of [driver.NetEngine]: every peer vertex that
// matches a given local vertex is collected, not just the first.
func findLocalMatches(ctx context.Context, engine *plaintext.Engine, sess *session.Session[[]float64], localGraph *graph.Graph, peerURIs []string, metrics *telemetry.Metrics) ([]localMatch, error) {
	var matches []localMatch
	for _, v := range localGraph.Vertices() {
		sess.ResetMatchCache()

		localVec, err := engine.LocalVector(ctx, v.URI)
		if err != nil {
			return nil, fmt.Errorf("local vector %q: %w", v.URI, err)
		}

		for _, peerURI := range peerURIs {
			peerVec, err := engine.PeerVector(ctx, peerURI)
			if err != nil {
				return nil, fmt.Errorf("peer vector %q: %w", peerURI, err)
			}

			matched, err := paramatch.Match(ctx, sess, engine, v.URI, localVec, peerURI, peerVec)
			if err != nil {
				return nil, fmt.Errorf("match %q/%q: %w", v.URI, peerURI, err)
			}
			metrics.RecordComparison(ctx, matched)
			if matched {
				matches = append(matches, localMatch{localURI: v.URI, peerURI: peerURI, localOutward: v.OutwardDegree})
			}
		}
	}
	return matches, nil
}
