package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/glyphmatch/enrich/internal/embedenc"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/graph/merge"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/plaintext"
	"github.com/glyphmatch/enrich/internal/protocol"
)

// OracleConfig holds the per-run values a [ServeOracle] loop needs to answer
// requests: the tolerance used to threshold a decrypted similarity value,
// and this side's own mask for the double-masked path-similarity reply.
type OracleConfig struct {
	// Epsilon is the tolerance against which a decrypted, still-masked
	// similarity value is compared to zero.
	Epsilon float64

	// Mask blinds the magnitude of this side's own path-similarity replies,
	// drawn once per run independently of the requester's mask — the
	// reference implementation's client and server each carry their own
	// mask global, never shared.
	Mask float64
}

// ServeOracle reads and answers requests from conn until the peer closes
// the connection or sends a type-0 termination. It owns hctx's secret key,
// so it must run on whichever side holds the private material for the
// ciphertexts it is asked to decrypt — the requester (internal/driver's
// [NetEngine]) only ever sends ciphertexts encrypted under this side's
// public key.
func ServeOracle(ctx context.Context, conn io.ReadWriter, hctx *henc.Context, cfg OracleConfig, local *plaintext.Side, enc embedenc.Encoder) error {
	for {
		msgType, payload, err := protocol.ReadRequest(conn)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("driver: serve oracle: read request: %w", err)
		}

		switch msgType {
		case protocol.MsgTerminate:
			return nil

		case protocol.MsgVertexSimilarity:
			if err := handleVertexSimilarity(conn, hctx, cfg, payload); err != nil {
				return err
			}

		case protocol.MsgPathSimilarity:
			if err := handlePathSimilarity(conn, hctx, cfg, payload); err != nil {
				return err
			}

		case protocol.MsgTopKPaths:
			if err := handleTopKPaths(ctx, conn, hctx, local, enc, payload); err != nil {
				return err
			}

		case protocol.MsgLineageSubgraph:
			if err := handleLineageSubgraph(conn, local.Graph, payload); err != nil {
				return err
			}

		case protocol.MsgEnrichment:
			if err := handleEnrichment(local.Graph, payload); err != nil {
				return err
			}

		default:
			return fmt.Errorf("driver: serve oracle: unknown message type %d", msgType)
		}
	}
}

func handleVertexSimilarity(conn io.Writer, hctx *henc.Context, cfg OracleConfig, payload []byte) error {
	ct, err := hctx.Deserialize(payload)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: vertex similarity: deserialize: %w", err)
	}
	val, err := ct.Decrypt()
	if err != nil {
		return fmt.Errorf("driver: serve oracle: vertex similarity: decrypt: %w", err)
	}
	similar := val > -cfg.Epsilon
	if err := protocol.WriteBool(conn, similar); err != nil {
		return fmt.Errorf("driver: serve oracle: vertex similarity: reply: %w", err)
	}
	return nil
}

// handlePathSimilarity decrypts the masked score, determines its sign
// against -Epsilon, then replies with the absolute value re-masked under
// this side's own mask — the double-masking the reference implementation's
// client applies before ever sending a value back to the server.
func handlePathSimilarity(conn io.Writer, hctx *henc.Context, cfg OracleConfig, payload []byte) error {
	ct, err := hctx.Deserialize(payload)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: path similarity: deserialize: %w", err)
	}
	val, err := ct.Decrypt()
	if err != nil {
		return fmt.Errorf("driver: serve oracle: path similarity: decrypt: %w", err)
	}
	response := math.Abs(val) * cfg.Mask
	if val <= -cfg.Epsilon {
		response = -response
	}
	if err := protocol.WriteFloat64(conn, response); err != nil {
		return fmt.Errorf("driver: serve oracle: path similarity: reply: %w", err)
	}
	return nil
}

func handleTopKPaths(ctx context.Context, conn io.Writer, hctx *henc.Context, local *plaintext.Side, enc embedenc.Encoder, payload []byte) error {
	req, err := protocol.DecodeTopKRequest(payload)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: top-k paths: decode request: %w", err)
	}
	candidates, err := plaintext.TopKPaths(ctx, local, enc, req.URI, int(req.K))
	if err != nil {
		return fmt.Errorf("driver: serve oracle: top-k paths: compute: %w", err)
	}

	resp := protocol.TopKResponse{
		URIs:    make([]string, 0, len(candidates)),
		Vectors: make([][]byte, 0, len(candidates)),
		Edges:   make([][]byte, 0, len(candidates)),
		Lengths: make([]float64, 0, len(candidates)),
	}
	for _, c := range candidates {
		vecCT, err := hctx.Encrypt(c.Vector)
		if err != nil {
			return fmt.Errorf("driver: serve oracle: top-k paths: encrypt vector: %w", err)
		}
		vecBytes, err := vecCT.Serialize()
		if err != nil {
			return fmt.Errorf("driver: serve oracle: top-k paths: serialize vector: %w", err)
		}
		edgeCT, err := hctx.Encrypt(c.Edge)
		if err != nil {
			return fmt.Errorf("driver: serve oracle: top-k paths: encrypt edge: %w", err)
		}
		edgeBytes, err := edgeCT.Serialize()
		if err != nil {
			return fmt.Errorf("driver: serve oracle: top-k paths: serialize edge: %w", err)
		}
		resp.URIs = append(resp.URIs, c.URI)
		resp.Vectors = append(resp.Vectors, vecBytes)
		resp.Edges = append(resp.Edges, edgeBytes)
		resp.Lengths = append(resp.Lengths, reciprocal(c.Length))
	}

	data, err := protocol.EncodeTopKResponse(resp)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: top-k paths: encode response: %w", err)
	}
	if err := protocol.WriteLengthPrefixed(conn, data); err != nil {
		return fmt.Errorf("driver: serve oracle: top-k paths: reply: %w", err)
	}
	return nil
}

func handleLineageSubgraph(conn io.Writer, local *graph.Graph, payload []byte) error {
	uri := string(payload)
	lineage, err := local.ExtractLineageSet(uri)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: lineage subgraph: extract: %w", err)
	}
	data, err := protocol.EncodeSubgraphPayload(protocol.SubgraphPayloadFromGraph(lineage))
	if err != nil {
		return fmt.Errorf("driver: serve oracle: lineage subgraph: encode: %w", err)
	}
	if err := protocol.WriteLengthPrefixed(conn, data); err != nil {
		return fmt.Errorf("driver: serve oracle: lineage subgraph: reply: %w", err)
	}
	return nil
}

func handleEnrichment(local *graph.Graph, payload []byte) error {
	req, err := protocol.DecodeEnrichmentRequest(payload)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: enrichment: decode: %w", err)
	}
	subgraph, err := protocol.GraphFromSubgraphPayload(req.Subgraph)
	if err != nil {
		return fmt.Errorf("driver: serve oracle: enrichment: rebuild graph: %w", err)
	}
	if err := merge.AppendAtURI(local, subgraph, req.URI); err != nil {
		return fmt.Errorf("driver: serve oracle: enrichment: append: %w", err)
	}
	return nil
}
