package driver

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/glyphmatch/enrich/internal/embedenc"
	"github.com/glyphmatch/enrich/internal/graph"
	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/protocol"
)

// vectorBatch is the gob-friendly wire form of one side's pre-computed
// vertex embeddings, exchanged once per run on the primary connection
// before the oracle request loop starts. It carries the same bare
// length-prefixed envelope [protocol.WriteLengthPrefixed]/
// [protocol.ReadLengthPrefixed] uses for type-2/type-4 payloads, kept
// local to this package rather than added to [protocol]'s fixed
// message-type taxonomy since it is a one-time setup exchange, not one of
// the six request/reply kinds the reference implementation's msg_type
// byte distinguishes.
type vectorBatch struct {
	URIs        []string
	Ciphertexts [][]byte
}

// embedConcurrency bounds how many in-flight enc.Encode calls EmbedVertices
// allows at once, so a large dataset against a rate-limited remote provider
// doesn't open one goroutine per vertex.
const embedConcurrency = 8

// EmbedVertices computes and encrypts the embedding vector for every
// vertex in g, keyed by URI, under hctx's key. The oracle calls it with its
// own context and sends the result to the requester (which uses it as its
// PeerVectors); the requester calls it with the oracle's public context and
// keeps the result as its own LocalVectors.
//
// The plaintext encode step runs concurrently across up to
// [embedConcurrency] vertices via [errgroup.Group], since enc.Encode is
// typically a remote call to an embedding provider and independent per
// vertex. The CKKS encrypt step that follows runs back on the calling
// goroutine: hctx's encoder and encryptor hold scratch state that is not
// safe for concurrent use, so only the network-bound half of the work is
// parallelized.
func EmbedVertices(ctx context.Context, hctx *henc.Context, g *graph.Graph, enc embedenc.Encoder) (map[string]henc.EncVector, error) {
	vertices := g.Vertices()

	// Each goroutine below writes to a distinct index, so the slice needs no
	// lock: concurrent writes to disjoint elements are data-race-free.
	vecs := make([][]float64, len(vertices))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)
	for i, v := range vertices {
		i, v := i, v
		eg.Go(func() error {
			vec, err := enc.Encode(egCtx, v.Label)
			if err != nil {
				return fmt.Errorf("driver: embed vertices: encode %q: %w", v.URI, err)
			}
			vecs[i] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]henc.EncVector, len(vertices))
	for i, v := range vertices {
		ct, err := hctx.Encrypt(vecs[i])
		if err != nil {
			return nil, fmt.Errorf("driver: embed vertices: encrypt %q: %w", v.URI, err)
		}
		out[v.URI] = ct
	}
	return out, nil
}

// ExchangeVectors sends local's ciphertexts to the peer over conn and
// receives the peer's own in return, using hctx only to deserialize what
// comes back (hctx here is the requester's own context if the requester
// is also an oracle for its own vertices, or the peer's PublicContext()
// copy when only the oracle side can decrypt — either way deserialization
// needs no secret key). The peer vectors returned were encrypted by
// whichever context the peer used to produce them, and are only ever
// operated on homomorphically here, never decrypted.
func ExchangeVectors(ctx context.Context, conn io.ReadWriter, hctx *henc.Context, local map[string]henc.EncVector) (map[string]henc.EncVector, error) {
	outBatch := vectorBatch{
		URIs:        make([]string, 0, len(local)),
		Ciphertexts: make([][]byte, 0, len(local)),
	}
	for uri, ct := range local {
		data, err := ct.Serialize()
		if err != nil {
			return nil, fmt.Errorf("driver: exchange vectors: serialize %q: %w", uri, err)
		}
		outBatch.URIs = append(outBatch.URIs, uri)
		outBatch.Ciphertexts = append(outBatch.Ciphertexts, data)
	}

	outData, err := gobEncodeBatch(outBatch)
	if err != nil {
		return nil, fmt.Errorf("driver: exchange vectors: encode: %w", err)
	}
	if err := protocol.WriteLengthPrefixed(conn, outData); err != nil {
		return nil, fmt.Errorf("driver: exchange vectors: send: %w", err)
	}

	inData, err := protocol.ReadLengthPrefixed(conn)
	if err != nil {
		return nil, fmt.Errorf("driver: exchange vectors: recv: %w", err)
	}
	var inBatch vectorBatch
	if err := gobDecodeBatch(inData, &inBatch); err != nil {
		return nil, fmt.Errorf("driver: exchange vectors: decode: %w", err)
	}

	peer := make(map[string]henc.EncVector, len(inBatch.URIs))
	for i, uri := range inBatch.URIs {
		ct, err := hctx.Deserialize(inBatch.Ciphertexts[i])
		if err != nil {
			return nil, fmt.Errorf("driver: exchange vectors: deserialize %q: %w", uri, err)
		}
		peer[uri] = ct
	}
	return peer, nil
}

func gobEncodeBatch(b vectorBatch) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecodeBatch(data []byte, b *vectorBatch) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(b)
}
