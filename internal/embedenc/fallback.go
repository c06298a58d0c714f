package embedenc

import (
	"context"
	"fmt"

	"github.com/glyphmatch/enrich/internal/resilience"
)

var _ Encoder = (*FallbackEncoder)(nil)

// FallbackEncoder wraps a primary [Encoder] and zero or more fallbacks, each
// behind its own circuit breaker, so a provider outage during batch
// pre-computation of vertex embeddings degrades to the next configured
// backend instead of aborting the run.
type FallbackEncoder struct {
	group *resilience.FallbackGroup[Encoder]
	dims  int
	model string
}

// NewFallbackEncoder constructs a [FallbackEncoder] around primary. Its
// Dimensions/ModelID are fixed at construction time from primary since
// every backend in the group must agree on vector shape for a single run.
func NewFallbackEncoder(primary Encoder, primaryName string, cfg resilience.FallbackConfig) *FallbackEncoder {
	return &FallbackEncoder{
		group: resilience.NewFallbackGroup(primary, primaryName, cfg),
		dims:  primary.Dimensions(),
		model: primary.ModelID(),
	}
}

// AddFallback registers an additional backend tried after the primary and
// any previously added fallbacks fail or have an open circuit.
func (f *FallbackEncoder) AddFallback(name string, fallback Encoder) {
	f.group.AddFallback(name, fallback)
}

// Encode implements [Encoder].
func (f *FallbackEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	return resilience.ExecuteWithResult(f.group, func(enc Encoder) ([]float64, error) {
		return enc.Encode(ctx, text)
	})
}

// EncodeBatch implements [Encoder].
func (f *FallbackEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	result, err := resilience.ExecuteWithResult(f.group, func(enc Encoder) ([][]float64, error) {
		return enc.EncodeBatch(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("embedenc: fallback encode batch: %w", err)
	}
	return result, nil
}

// Dimensions implements [Encoder].
func (f *FallbackEncoder) Dimensions() int { return f.dims }

// ModelID implements [Encoder].
func (f *FallbackEncoder) ModelID() string { return f.model }
