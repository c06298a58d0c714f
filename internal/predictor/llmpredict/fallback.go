package llmpredict

import (
	"context"

	"github.com/glyphmatch/enrich/internal/resilience"
)

var _ ChatProvider = (*FallbackProvider)(nil)

// FallbackProvider wraps a primary [ChatProvider] and zero or more
// fallbacks, each behind its own circuit breaker, so a model outage during a
// path walk degrades to the next configured backend instead of aborting h_r
// partway through a vertex's candidates.
type FallbackProvider struct {
	group *resilience.FallbackGroup[ChatProvider]
}

// NewFallbackProvider constructs a [FallbackProvider] around primary.
func NewFallbackProvider(primary ChatProvider, primaryName string, cfg resilience.FallbackConfig) *FallbackProvider {
	return &FallbackProvider{group: resilience.NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional backend tried after the primary and
// any previously added fallbacks fail or have an open circuit.
func (f *FallbackProvider) AddFallback(name string, fallback ChatProvider) {
	f.group.AddFallback(name, fallback)
}

// Complete implements [ChatProvider].
func (f *FallbackProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return resilience.ExecuteWithResult(f.group, func(p ChatProvider) (string, error) {
		return p.Complete(ctx, messages)
	})
}
