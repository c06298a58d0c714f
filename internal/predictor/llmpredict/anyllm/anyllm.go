// Package anyllm implements [llmpredict.ChatProvider] on top of
// github.com/mozilla-ai/any-llm-go, the same unified multi-provider client
// the rest of this codebase's ancestor uses to reach OpenAI, Anthropic,
// Gemini, Ollama, and friends through one interface.
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/glyphmatch/enrich/internal/predictor/llmpredict"
)

var _ llmpredict.ChatProvider = (*Provider)(nil)

// Provider implements [llmpredict.ChatProvider] by delegating to one of
// any-llm-go's backend providers.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider backed by the named any-llm-go provider: one of
// "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq".
// opts are any-llm-go configuration options (e.g. anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL); without an API key option the backend falls back
// to its usual environment variable (OPENAI_API_KEY and so on).
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq", providerName)
	}
}

// Complete implements [llmpredict.ChatProvider].
func (p *Provider) Complete(ctx context.Context, messages []llmpredict.ChatMessage) (string, error) {
	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: convertMessages(messages),
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}

func convertMessages(messages []llmpredict.ChatMessage) []anyllmlib.Message {
	out := make([]anyllmlib.Message, len(messages))
	for i, m := range messages {
		out[i] = anyllmlib.Message{Role: roleFor(m.Role), Content: m.Content}
	}
	return out
}

func roleFor(role string) string {
	switch strings.ToLower(role) {
	case "system":
		return anyllmlib.RoleSystem
	case "assistant":
		return anyllmlib.RoleAssistant
	default:
		return anyllmlib.RoleUser
	}
}
