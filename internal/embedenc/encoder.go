// Package embedenc converts vertex and path labels into the dense float
// vectors the similarity primitives operate on. It wraps a text-embedding
// backend (the encoder is treated as an opaque external dependency per the
// protocol's scope) behind a small interface so the encrypted and plaintext
// engines, and the driver's batch pre-computation pass, never depend on a
// concrete provider.
package embedenc

import "context"

// Encoder is the abstraction over any text-to-vector embedding backend.
//
// All vectors returned by a single Encoder instance share one dimensionality
// (Dimensions); callers must not mix vectors from different Encoder
// instances into the same similarity computation.
//
// Implementations must be safe for concurrent use.
type Encoder interface {
	// Encode computes the embedding vector for a single label string.
	Encode(ctx context.Context, text string) ([]float64, error)

	// EncodeBatch computes embedding vectors for a slice of label strings in
	// one backend call. The returned slice has the same length as texts and
	// result[i] corresponds to texts[i]. On error the entire slice is nil.
	EncodeBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the fixed vector length this Encoder produces.
	Dimensions() int

	// ModelID returns the backend's model identifier, for logging.
	ModelID() string
}

// EncodeEmbedding encodes a single vertex label into its vector form via
// enc, the unit of work behind h_v's masked comparisons.
func EncodeEmbedding(ctx context.Context, enc Encoder, label string) ([]float64, error) {
	return enc.Encode(ctx, label)
}

// EncodePathSentence encodes the space-joined labels of a path's edges
// as a single vector, mirroring the reference implementation's
// encode_path convention of treating a paraphrase path's edge trace as
// one sentence rather than averaging per-vertex embeddings.
func EncodePathSentence(ctx context.Context, enc Encoder, labels []string) ([]float64, error) {
	return enc.Encode(ctx, joinLabels(labels))
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	out := labels[0]
	for _, l := range labels[1:] {
		out += " " + l
	}
	return out
}
