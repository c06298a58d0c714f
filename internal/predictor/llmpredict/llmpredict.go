// Package llmpredict implements [predictor.Predictor] by asking a chat
// completion model to rank candidate edge labels, mirroring the multi-backend
// provider story the rest of this codebase uses for every external model
// call: a narrow [ChatProvider] interface lets OpenAI, Anthropic, Gemini, and
// Ollama backends (wired through any-llm-go) sit behind a single call site.
package llmpredict

import (
	"context"
	"fmt"
	"strings"

	"github.com/glyphmatch/enrich/internal/predictor"
)

// ChatMessage is a single turn in a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatProvider is the minimal chat-completion surface llmpredict needs from
// an LLM backend. Concrete backends (OpenAI, Anthropic, Gemini, Ollama) each
// implement this directly or are adapted onto it via any-llm-go.
type ChatProvider interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

var _ predictor.Predictor = (*Predictor)(nil)

// Predictor implements [predictor.Predictor] by prompting a [ChatProvider] to
// choose the most semantically plausible continuation among the candidate
// edge labels.
type Predictor struct {
	provider ChatProvider
	eosToken string
}

// Option configures a [Predictor] at construction time.
type Option func(*Predictor)

// WithEOSToken overrides the sentinel string the model is instructed to
// return when no candidate continues the path. Defaults to "<|endoftext|>",
// matching the reference implementation's tokenizer convention.
func WithEOSToken(token string) Option {
	return func(p *Predictor) { p.eosToken = token }
}

// New constructs a [Predictor] backed by provider.
func New(provider ChatProvider, opts ...Option) *Predictor {
	p := &Predictor{provider: provider, eosToken: "<|endoftext|>"}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Predict implements [predictor.Predictor].
func (p *Predictor) Predict(ctx context.Context, label string, candidates []string) ([]string, bool, error) {
	if len(candidates) == 0 {
		return nil, true, nil
	}

	prompt := buildPrompt(label, candidates, p.eosToken)
	reply, err := p.provider.Complete(ctx, []ChatMessage{
		{Role: "system", Content: "You extend a path of related concepts by choosing the single best next label from a fixed candidate list, or end the path."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, false, fmt.Errorf("llmpredict: complete: %w", err)
	}

	choice := strings.TrimSpace(reply)
	if choice == "" || choice == p.eosToken {
		return nil, true, nil
	}
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), choice) {
			return []string{c}, false, nil
		}
	}
	// The model answered with something outside the candidate set — treat
	// that as "no continuation" rather than guessing.
	return nil, true, nil
}

func buildPrompt(label string, candidates []string, eosToken string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current label: %q\n", label)
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	fmt.Fprintf(&b, "Reply with exactly one candidate verbatim, or %q to end the path.\n", eosToken)
	return b.String()
}
