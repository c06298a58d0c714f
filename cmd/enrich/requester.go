package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/driver"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/plaintext"
	"github.com/glyphmatch/enrich/internal/protocol"
	"github.com/glyphmatch/enrich/internal/session"
	"github.com/glyphmatch/enrich/internal/telemetry"
)

// runRequester implements the role: server side of the networked protocol:
// it listens for the oracle (role: client) to connect, learns the oracle's
// public key and vertex ciphertexts over the control connection, then
// drives [driver.RunServer] against its own graph using the oracle
// connection as its homomorphic comparison channel.
func runRequester(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) error {
	enc, err := buildEncoder(cfg.Providers.Embeddings)
	if err != nil {
		return fmt.Errorf("run requester: %w", err)
	}
	pred, err := buildPredictor(cfg.Providers.Predictor)
	if err != nil {
		return fmt.Errorf("run requester: %w", err)
	}

	localGraph, err := graph.LoadDataset(cfg.Dataset.Path, cfg.Dataset.Prefix)
	if err != nil {
		return fmt.Errorf("run requester: load dataset: %w", err)
	}
	localSide, err := plaintext.NewSide(ctx, localGraph, enc, pred)
	if err != nil {
		return fmt.Errorf("run requester: build side: %w", err)
	}

	controlAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	oracleAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.OraclePort())

	var lc net.ListenConfig
	controlLn, err := lc.Listen(ctx, "tcp", controlAddr)
	if err != nil {
		return fmt.Errorf("run requester: listen %q: %w", controlAddr, err)
	}
	defer controlLn.Close()
	oracleLn, err := lc.Listen(ctx, "tcp", oracleAddr)
	if err != nil {
		return fmt.Errorf("run requester: listen %q: %w", oracleAddr, err)
	}
	defer oracleLn.Close()

	slog.Info("requester waiting for peer", "control_addr", controlAddr, "oracle_addr", oracleAddr)

	controlConn, err := controlLn.Accept()
	if err != nil {
		return fmt.Errorf("run requester: accept control connection: %w", err)
	}
	defer controlConn.Close()
	oracleConn, err := oracleLn.Accept()
	if err != nil {
		return fmt.Errorf("run requester: accept oracle connection: %w", err)
	}
	defer oracleConn.Close()

	slog.Info("peer connected")

	peerContextBytes, err := protocol.ReadLengthPrefixed(controlConn)
	if err != nil {
		return fmt.Errorf("run requester: read peer context: %w", err)
	}
	peerPubCtx, err := henc.LoadPublicContext(paramsConfig(cfg.Encryption), peerContextBytes)
	if err != nil {
		return fmt.Errorf("run requester: load peer context: %w", err)
	}

	// The requester never holds a keypair of its own: its own vertices are
	// encrypted under the peer's public key so the resulting ciphertexts
	// are only ever evaluated against — and ultimately decrypted by — the
	// peer oracle that owns the matching secret key.
	localVectors, err := driver.EmbedVertices(ctx, peerPubCtx, localGraph, enc)
	if err != nil {
		return fmt.Errorf("run requester: embed local vertices: %w", err)
	}
	// Nothing is sent to the peer here — the oracle never needs this
	// side's embeddings, only the decrypted outcome of each comparison it
	// is asked to judge — so the local half of the exchange is empty.
	peerVectors, err := driver.ExchangeVectors(ctx, controlConn, peerPubCtx, nil)
	if err != nil {
		return fmt.Errorf("run requester: exchange vectors: %w", err)
	}

	peerVertexURIs := make([]string, 0, len(peerVectors))
	for uri := range peerVectors {
		peerVertexURIs = append(peerVertexURIs, uri)
	}

	mask, err := henc.RandomMask(1, 2)
	if err != nil {
		return fmt.Errorf("run requester: draw mask: %w", err)
	}

	netEngine := &driver.NetEngine{
		Conn:         oracleConn,
		HCtx:         peerPubCtx,
		Sigma:        cfg.Enrichment.Sigma,
		Mask:         mask,
		Local:        localSide,
		PathEncoder:  enc,
		LocalVectors: localVectors,
		PeerVectors:  peerVectors,
		Metrics:      metrics,
	}

	sess := session.New[henc.EncVector](session.Config{
		Sigma:   cfg.Enrichment.Sigma,
		Delta:   cfg.Enrichment.Delta,
		K:       cfg.Enrichment.K,
		Epsilon: cfg.Enrichment.Epsilon,
	})

	slog.Info("starting match search", "local_vertices", len(localGraph.Vertices()), "peer_vertices", len(peerVertexURIs))

	result, err := driver.RunServer(ctx, netEngine, sess, localGraph, peerVertexURIs, cfg.Dataset.OutputPath, controlConn)
	if err != nil {
		return fmt.Errorf("run requester: %w", err)
	}

	// Closing the oracle connection is the requester's termination signal
	// on that channel: the peer's ServeOracle loop reads until EOF.
	oracleConn.Close()

	metrics.RecordEnrichedVertices(ctx, result.EnrichedNodeCount)
	slog.Info("enrichment complete",
		"enriched_vertices", result.EnrichedNodeCount,
		"output", result.GraphPath,
		"duration", result.Duration,
	)
	return nil
}
