// Package protocol implements the wire framing between a server and a
// client holding separate graphs: a length-prefixed request/response
// envelope carrying the six message kinds the enrichment run exchanges
// (vertex similarity, top-k paraphrase paths, path similarity, lineage
// subgraph transfer, fire-and-forget enrichment, and termination).
//
// Every multi-byte integer on the wire is big-endian, matching the
// reference implementation's struct.pack("!I", ...) framing. The two fixed
// single-value oracle replies (vertex similarity, path similarity) are
// written as bare values with no envelope, mirroring the reference
// implementation's direct conn.sendall of an unframed struct.pack result.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math"

	"github.com/glyphmatch/enrich/internal/graph"
)

// Message type tags, matching the reference implementation's msg_type
// values exactly.
const (
	MsgTerminate        uint32 = 0
	MsgVertexSimilarity uint32 = 1
	MsgTopKPaths        uint32 = 2
	MsgPathSimilarity   uint32 = 3
	MsgLineageSubgraph  uint32 = 4
	MsgEnrichment       uint32 = 5
)

// TopKRequest is the type-2 request payload: the vertex to generate
// paraphrase paths from, and how many top-ranked paths to return.
type TopKRequest struct {
	URI string
	K   uint32
}

// TopKResponse is the type-2 response payload: for each of the k returned
// paths, the URI of the vertex reached, its serialized similarity vector,
// a serialized encoding of the path's edge labels, and the path length.
type TopKResponse struct {
	URIs    []string
	Vectors [][]byte
	Edges   [][]byte
	Lengths []float64
}

// EnrichmentRequest is the type-5 payload: the vertex URI the sender
// matched against, and the sender's lineage subgraph rooted there.
type EnrichmentRequest struct {
	URI      string
	Subgraph SubgraphPayload
}

// SubgraphPayload is the gob-friendly wire form of a lineage subgraph,
// structurally identical to graph.CytoscapeDocument but kept distinct so
// the wire format can evolve independently of the Cytoscape JSON output
// file.
type SubgraphPayload struct {
	Nodes []SubgraphNode
	Edges []SubgraphEdge
}

// SubgraphNode is one vertex entry in a SubgraphPayload.
type SubgraphNode struct {
	ID    string
	Label string
}

// SubgraphEdge is one edge entry in a SubgraphPayload.
type SubgraphEdge struct {
	ID     string
	Source string
	Target string
	Label  string
}

// SubgraphPayloadFromGraph converts g into its wire form.
func SubgraphPayloadFromGraph(g *graph.Graph) SubgraphPayload {
	doc := g.SerializeToCytoscape()
	payload := SubgraphPayload{
		Nodes: make([]SubgraphNode, 0, len(doc.Nodes)),
		Edges: make([]SubgraphEdge, 0, len(doc.Edges)),
	}
	for _, n := range doc.Nodes {
		label := ""
		if len(n.Labels) > 0 {
			label = n.Labels[0]
		}
		payload.Nodes = append(payload.Nodes, SubgraphNode{ID: n.ID, Label: label})
	}
	for _, e := range doc.Edges {
		label := ""
		if len(e.Labels) > 0 {
			label = e.Labels[0]
		}
		payload.Edges = append(payload.Edges, SubgraphEdge{ID: e.ID, Source: e.Source, Target: e.Target, Label: label})
	}
	return payload
}

// GraphFromSubgraphPayload reconstructs a Graph from its wire form.
func GraphFromSubgraphPayload(payload SubgraphPayload) (*graph.Graph, error) {
	doc := graph.CytoscapeDocument{
		Nodes: make([]graph.CytoscapeNode, 0, len(payload.Nodes)),
		Edges: make([]graph.CytoscapeEdge, 0, len(payload.Edges)),
	}
	for _, n := range payload.Nodes {
		doc.Nodes = append(doc.Nodes, graph.CytoscapeNode{ID: n.ID, Labels: []string{n.Label}})
	}
	for _, e := range payload.Edges {
		doc.Edges = append(doc.Edges, graph.CytoscapeEdge{ID: e.ID, Source: e.Source, Target: e.Target, Labels: []string{e.Label}})
	}
	g, err := graph.FromCytoscapeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("protocol: subgraph payload: %w", err)
	}
	return g, nil
}

// WriteRequest writes a length-prefixed, typed request frame: a uint32
// payload length, a uint32 message type, and the payload bytes.
func WriteRequest(w io.Writer, msgType uint32, payload []byte) error {
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(header[4:8], msgType)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("protocol: write request header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("protocol: write request payload: %w", err)
		}
	}
	return nil
}

// ReadRequest reads one length-prefixed, typed request frame. It returns
// io.EOF, unwrapped, when the peer closed the connection cleanly before any
// bytes of a new frame arrived — the wire equivalent of the reference
// implementation's bare termination message.
func ReadRequest(r io.Reader) (msgType uint32, payload []byte, err error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("protocol: read request header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[0:4])
	msgType = binary.BigEndian.Uint32(header[4:8])

	payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("protocol: read request payload: %w", err)
		}
	}
	return msgType, payload, nil
}

// WriteLengthPrefixed writes a bare length-prefixed blob with no message
// type, used for the type-2 and type-4 responses.
func WriteLengthPrefixed(w io.Writer, payload []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("protocol: write length-prefixed header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("protocol: write length-prefixed payload: %w", err)
	}
	return nil
}

// ReadLengthPrefixed reads a bare length-prefixed blob with no message type.
func ReadLengthPrefixed(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("protocol: read length-prefixed header: %w", err)
	}
	length := binary.BigEndian.Uint32(header)
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("protocol: read length-prefixed payload: %w", err)
		}
	}
	return payload, nil
}

// WriteBool writes the bare 4-byte big-endian reply used for type-1
// (vertex similarity) responses.
func WriteBool(w io.Writer, v bool) error {
	buf := make([]byte, 4)
	if v {
		binary.BigEndian.PutUint32(buf, 1)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("protocol: write bool: %w", err)
	}
	return nil
}

// ReadBool reads the bare 4-byte big-endian reply used for type-1
// responses.
func ReadBool(r io.Reader) (bool, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return false, fmt.Errorf("protocol: read bool: %w", err)
	}
	return binary.BigEndian.Uint32(buf) != 0, nil
}

// WriteFloat64 writes the bare 8-byte reply used for type-3 (path
// similarity) responses.
func WriteFloat64(w io.Writer, v float64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("protocol: write float64: %w", err)
	}
	return nil
}

// ReadFloat64 reads the bare 8-byte reply used for type-3 responses.
func ReadFloat64(r io.Reader) (float64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("protocol: read float64: %w", err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// EncodeTopKResponse gob-encodes a TopKResponse for the type-2 reply body.
func EncodeTopKResponse(resp TopKResponse) ([]byte, error) {
	return gobEncode(resp)
}

// DecodeTopKResponse decodes a type-2 reply body.
func DecodeTopKResponse(data []byte) (TopKResponse, error) {
	var resp TopKResponse
	err := gobDecode(data, &resp)
	return resp, err
}

// EncodeTopKRequest gob-encodes a TopKRequest for the type-2 request body.
func EncodeTopKRequest(req TopKRequest) ([]byte, error) {
	return gobEncode(req)
}

// DecodeTopKRequest decodes a type-2 request body.
func DecodeTopKRequest(data []byte) (TopKRequest, error) {
	var req TopKRequest
	err := gobDecode(data, &req)
	return req, err
}

// EncodeEnrichmentRequest gob-encodes a type-5 request body.
func EncodeEnrichmentRequest(req EnrichmentRequest) ([]byte, error) {
	return gobEncode(req)
}

// DecodeEnrichmentRequest decodes a type-5 request body.
func DecodeEnrichmentRequest(data []byte) (EnrichmentRequest, error) {
	var req EnrichmentRequest
	err := gobDecode(data, &req)
	return req, err
}

// EncodeSubgraphPayload gob-encodes a type-4 response body.
func EncodeSubgraphPayload(payload SubgraphPayload) ([]byte, error) {
	return gobEncode(payload)
}

// DecodeSubgraphPayload decodes a type-4 response body.
func DecodeSubgraphPayload(data []byte) (SubgraphPayload, error) {
	var payload SubgraphPayload
	err := gobDecode(data, &payload)
	return payload, err
}

// WriteTermination writes the bare 4-byte zero value the server sends on
// its primary connection once enrichment completes, signaling the client
// there is no more work to do. It shares ReadBool/WriteBool's framing but
// is named separately since it travels on the control connection, not the
// oracle request stream.
func WriteTermination(w io.Writer) error {
	return WriteBool(w, false)
}

// ReadTermination reads the bare 4-byte termination signal.
func ReadTermination(r io.Reader) error {
	_, err := ReadBool(r)
	return err
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("protocol: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("protocol: gob decode: %w", err)
	}
	return nil
}
