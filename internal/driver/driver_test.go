package driver

import (
	"context"
	"net"
	"testing"

	"github.com/glyphmatch/enrich/internal/henc"
	"github.com/glyphmatch/enrich/internal/protocol"
)

// startOracle runs ServeOracle against serverConn in a goroutine and
// returns a channel that receives its terminal error.
func startOracle(t *testing.T, serverConn net.Conn, hctx *henc.Context, cfg OracleConfig) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- ServeOracle(context.Background(), serverConn, hctx, cfg, nil, nil)
	}()
	return done
}

func TestNetEngineVertexSimilarRoundTrip(t *testing.T) {
	oracleCtx, err := henc.NewContext(henc.DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	pubCtx := oracleCtx.PublicContext()

	serverConn, clientConn := net.Pipe()
	done := startOracle(t, serverConn, oracleCtx, OracleConfig{Epsilon: 0.01, Mask: 1.4})

	eng := &NetEngine{Conn: clientConn, HCtx: pubCtx, Sigma: 0.5, Mask: 1.3}

	ctx := context.Background()
	a, err := pubCtx.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := pubCtx.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}

	similar, err := eng.VertexSimilar(ctx, a, b)
	if err != nil {
		t.Fatalf("VertexSimilar: %v", err)
	}
	if !similar {
		t.Error("identical vectors with dot ~1 and sigma 0.5 should be similar")
	}

	c, err := pubCtx.Encrypt([]float64{0, 1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	similar, err = eng.VertexSimilar(ctx, a, c)
	if err != nil {
		t.Fatalf("VertexSimilar: %v", err)
	}
	if similar {
		t.Error("orthogonal vectors with dot ~0 and sigma 0.5 should not be similar")
	}

	if err := protocol.WriteRequest(clientConn, protocol.MsgTerminate, nil); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("ServeOracle returned: %v", err)
	}
}

func TestNetEnginePathSimilarityIsDoubleMasked(t *testing.T) {
	oracleCtx, err := henc.NewContext(henc.DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	pubCtx := oracleCtx.PublicContext()

	serverConn, clientConn := net.Pipe()
	done := startOracle(t, serverConn, oracleCtx, OracleConfig{Epsilon: 0.01, Mask: 1.7})

	eng := &NetEngine{Conn: clientConn, HCtx: pubCtx, Mask: 1.2}

	ctx := context.Background()
	aEdge, err := pubCtx.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	bEdge, err := pubCtx.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}

	score, err := eng.PathSimilarity(ctx, aEdge, 0.5, bEdge, 0.5)
	if err != nil {
		t.Fatalf("PathSimilarity: %v", err)
	}
	if score <= 0 {
		t.Errorf("PathSimilarity() = %v, want positive (dot ~1, masks all positive)", score)
	}

	if err := protocol.WriteRequest(clientConn, protocol.MsgTerminate, nil); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("ServeOracle returned: %v", err)
	}
}
