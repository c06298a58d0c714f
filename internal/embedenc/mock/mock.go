// Package mock provides a test double for [embedenc.Encoder].
package mock

import (
	"context"
	"sync"

	"github.com/glyphmatch/enrich/internal/embedenc"
)

var _ embedenc.Encoder = (*Encoder)(nil)

// EncodeCall records a single invocation of Encode.
type EncodeCall struct {
	Text string
}

// Encoder is a deterministic, call-recording stand-in for a real embedding
// backend. By default it derives a vector from the input text's bytes so
// that identical labels always embed to identical vectors, which is enough
// for exercising the similarity and masking logic without a live model.
type Encoder struct {
	mu sync.Mutex

	// DimensionsValue is returned by Dimensions and used to size generated
	// vectors. Defaults to 8 if zero.
	DimensionsValue int

	// ModelIDValue is returned by ModelID.
	ModelIDValue string

	// Vectors, if non-nil, maps a label to a fixed vector to return instead
	// of the derived default — lets tests force two distinct labels to
	// compare as similar or dissimilar.
	Vectors map[string][]float64

	// EncodeErr, if non-nil, is returned by Encode and EncodeBatch.
	EncodeErr error

	// EncodeCalls records every call to Encode in order.
	EncodeCalls []EncodeCall
}

// Encode implements [embedenc.Encoder].
func (e *Encoder) Encode(ctx context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	e.EncodeCalls = append(e.EncodeCalls, EncodeCall{Text: text})
	e.mu.Unlock()

	if e.EncodeErr != nil {
		return nil, e.EncodeErr
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	return deriveVector(text, e.dimensions()), nil
}

// EncodeBatch implements [embedenc.Encoder].
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions implements [embedenc.Encoder].
func (e *Encoder) Dimensions() int { return e.dimensions() }

func (e *Encoder) dimensions() int {
	if e.DimensionsValue <= 0 {
		return 8
	}
	return e.DimensionsValue
}

// ModelID implements [embedenc.Encoder].
func (e *Encoder) ModelID() string { return e.ModelIDValue }

// Reset clears all recorded calls.
func (e *Encoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.EncodeCalls = nil
}

// deriveVector hashes text into a stable pseudo-embedding of length dim.
func deriveVector(text string, dim int) []float64 {
	v := make([]float64, dim)
	h := uint64(1469598103934665603)
	for i := 0; i < len(text); i++ {
		h ^= uint64(text[i])
		h *= 1099511628211
	}
	for i := 0; i < dim; i++ {
		h ^= h >> 33
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
		v[i] = (float64(h%10000) / 10000.0) - 0.5
	}
	return v
}
