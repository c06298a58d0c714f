// Package graph implements the labeled directed graph model shared by the
// enrichment protocol's server and client: vertices carry a semantic label,
// edges carry a label and connect exactly two vertices, and every vertex/edge
// is addressable by a URI synthesized from its defining entity.
//
// The model mirrors a small graph database rather than wrapping one: there is
// no external graph engine dependency, because the protocol's matching and
// merge algorithms need direct control over vertex/edge identity and the
// exact shape of lineage subgraphs they extract.
package graph

import "fmt"

// Entity is the declarative identity of a vertex or edge: a URI and a
// human-readable label. Vertices and edges both embed an Entity so that
// [Graph.Lookup] can resolve either kind from a single URI namespace.
type Entity struct {
	// URI uniquely identifies this vertex or edge within a Graph.
	URI string `json:"uri"`

	// Label is the semantic text associated with this entity — the value
	// that gets embedded and compared across graphs.
	Label string `json:"label"`
}

// VertexStatus distinguishes vertices original to a dataset from those
// introduced by a merge. Newly-added counts and deduplication work from
// URIs and do not read it.
type VertexStatus int

const (
	// StatusOriginal marks a vertex that was present before any merge.
	StatusOriginal VertexStatus = iota

	// StatusMerged marks a vertex introduced while attaching a matched
	// subgraph from the peer graph.
	StatusMerged
)

// String implements fmt.Stringer.
func (s VertexStatus) String() string {
	switch s {
	case StatusOriginal:
		return "original"
	case StatusMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Vertex is a node in the graph. OutwardDegree is maintained by [Graph]'s
// add/remove operations rather than recomputed on demand; the driver
// orders its matches by it before the merge phase.
type Vertex struct {
	Entity

	// OutwardDegree is the number of edges whose V1 is this vertex's URI.
	OutwardDegree int `json:"outward_degree"`

	// Status records whether this vertex survived from the source dataset
	// or was created while merging in a matched subgraph.
	Status VertexStatus `json:"status"`
}

// Edge connects two vertices, identified by their URIs, and itself carries a
// label (the predicate). An edge's own URI is synthesized from its endpoints
// and label by [EdgeURI], which is how [Graph.Lookup] tells an edge URI from
// a vertex URI — edge URIs always contain the "->" separator.
type Edge struct {
	Entity

	// V1 is the URI of the edge's source vertex.
	V1 string `json:"v1"`

	// V2 is the URI of the edge's destination vertex.
	V2 string `json:"v2"`
}

// edgeSeparator appears in every synthesized edge URI and in no vertex URI,
// which is the invariant [Graph.Lookup] relies on to disambiguate the two.
const edgeSeparator = "->"

// EdgeURI synthesizes a stable URI for an edge from its endpoints and label.
// The format is "<v1>-><label>-><v2>", chosen so that two edges with the same
// endpoints but different labels never collide.
func EdgeURI(v1, label, v2 string) string {
	return fmt.Sprintf("%s%s%s%s%s", v1, edgeSeparator, label, edgeSeparator, v2)
}

// isEdgeURI reports whether uri was produced by [EdgeURI] (or at least looks
// like one) by checking for the separator. This is a syntactic check only;
// callers that need certainty should consult the Graph's edge index.
func isEdgeURI(uri string) bool {
	for i := 0; i+len(edgeSeparator) <= len(uri); i++ {
		if uri[i:i+len(edgeSeparator)] == edgeSeparator {
			return true
		}
	}
	return false
}
