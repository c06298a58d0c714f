package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/driver"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/graph/merge"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/plaintext"
	"github.com/glyphmatch/enrich/internal/protocol"
	"github.com/glyphmatch/enrich/internal/telemetry"
)

// runOracle implements the role: client side of the networked protocol: it
// owns the only keypair in the run and never decrypts anything but its own
// ciphertexts, answering the peer requester's vertex- and path-similarity
// queries, top-k path requests, and lineage/enrichment requests against its
// own graph until the requester ends the run.
func runOracle(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) error {
	enc, err := buildEncoder(cfg.Providers.Embeddings)
	if err != nil {
		return fmt.Errorf("run oracle: %w", err)
	}
	pred, err := buildPredictor(cfg.Providers.Predictor)
	if err != nil {
		return fmt.Errorf("run oracle: %w", err)
	}

	localGraph, err := graph.LoadDataset(cfg.Dataset.Path, cfg.Dataset.Prefix)
	if err != nil {
		return fmt.Errorf("run oracle: load dataset: %w", err)
	}
	localSide, err := plaintext.NewSide(ctx, localGraph, enc, pred)
	if err != nil {
		return fmt.Errorf("run oracle: build side: %w", err)
	}

	hctx, err := henc.NewContext(paramsConfig(cfg.Encryption))
	if err != nil {
		return fmt.Errorf("run oracle: new context: %w", err)
	}

	controlAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	oracleAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.OraclePort())

	var d net.Dialer
	slog.Info("oracle dialing peer", "control_addr", controlAddr)
	controlConn, err := d.DialContext(ctx, "tcp", controlAddr)
	if err != nil {
		return fmt.Errorf("run oracle: dial control connection %q: %w", controlAddr, err)
	}
	defer controlConn.Close()

	serialized, err := hctx.SerializeContext()
	if err != nil {
		return fmt.Errorf("run oracle: serialize context: %w", err)
	}
	if err := protocol.WriteLengthPrefixed(controlConn, serialized); err != nil {
		return fmt.Errorf("run oracle: send context: %w", err)
	}

	localVectors, err := driver.EmbedVertices(ctx, hctx, localGraph, enc)
	if err != nil {
		return fmt.Errorf("run oracle: embed local vertices: %w", err)
	}
	// The requester's half of the exchange is always empty (see
	// runRequester); it is read here and discarded.
	if _, err := driver.ExchangeVectors(ctx, controlConn, hctx, localVectors); err != nil {
		return fmt.Errorf("run oracle: exchange vectors: %w", err)
	}

	slog.Info("oracle dialing peer", "oracle_addr", oracleAddr)
	oracleConn, err := d.DialContext(ctx, "tcp", oracleAddr)
	if err != nil {
		return fmt.Errorf("run oracle: dial oracle connection %q: %w", oracleAddr, err)
	}
	defer oracleConn.Close()

	mask, err := henc.RandomMask(1, 2)
	if err != nil {
		return fmt.Errorf("run oracle: draw mask: %w", err)
	}

	originalURIs := localGraph.VertexURISet()

	slog.Info("serving oracle requests")
	oracleCfg := driver.OracleConfig{Epsilon: cfg.Enrichment.Epsilon, Mask: mask}
	if err := driver.ServeOracle(ctx, oracleConn, hctx, oracleCfg, localSide, enc); err != nil {
		return fmt.Errorf("run oracle: %w", err)
	}

	if err := protocol.ReadTermination(controlConn); err != nil {
		return fmt.Errorf("run oracle: read termination: %w", err)
	}

	// Every match the requester found sent a fire-and-forget enrichment
	// request here (handleEnrichment grafts it into localGraph in place),
	// so this side's own graph grows too and is worth persisting.
	if err := merge.RemoveDuplicateVerticesByLabelAndEdgeLabel(localGraph); err != nil {
		return fmt.Errorf("run oracle: dedup: %w", err)
	}
	if err := localGraph.SaveCytoscapeJSON(cfg.Dataset.OutputPath); err != nil {
		return fmt.Errorf("run oracle: save graph: %w", err)
	}

	enrichedCount := localGraph.NewlyAddedVertexCount(originalURIs)
	metrics.RecordEnrichedVertices(ctx, enrichedCount)
	slog.Info("peer finished enrichment", "enriched_vertices", enrichedCount, "output", cfg.Dataset.OutputPath)
	return nil
}
